package lockscript

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Parse reads a policy expression in the concrete syntax produced by
// Node.String(): pk(<pubkey hex>), pkh(<20-byte hex>), thresh(k,p1,...),
// and(p1,p2), or(p1,p2), older(n), after(n), sha256(<32-byte hex>) and
// hash160(<20-byte hex>). Whitespace around arguments is ignored. Public
// keys may be given in compressed or uncompressed encoding.
func Parse(policy string) (Node, error) {
	p := &parser{input: policy}
	node, err := p.parseNode()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("unexpected trailing input at "+
			"offset %d", p.pos)
	}

	return node, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' ||
		p.input[p.pos] == '\t' || p.input[p.pos] == '\n') {

		p.pos++
	}
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != c {
		return fmt.Errorf("expected %q at offset %d", c, p.pos)
	}
	p.pos++
	return nil
}

// name reads the operator identifier up to the opening parenthesis.
func (p *parser) name() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("expected operator name at offset %d",
			start)
	}
	return p.input[start:p.pos], nil
}

// argument reads a plain (non-policy) argument up to the next comma or
// closing parenthesis.
func (p *parser) argument() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != ',' &&
		p.input[p.pos] != ')' {

		p.pos++
	}
	arg := strings.TrimSpace(p.input[start:p.pos])
	if arg == "" {
		return "", fmt.Errorf("empty argument at offset %d", start)
	}
	return arg, nil
}

func (p *parser) parseNode() (Node, error) {
	name, err := p.name()
	if err != nil {
		return nil, err
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}

	var node Node
	switch name {
	case "pk":
		node, err = p.parseKey()

	case "pkh":
		node, err = p.parseKeyHash()

	case "thresh":
		node, err = p.parseThreshold()

	case "and":
		node, err = p.parsePair(func(l, r Node) Node {
			return &And{Left: l, Right: r}
		})

	case "or":
		node, err = p.parsePair(func(l, r Node) Node {
			return &Or{Left: l, Right: r}
		})

	case "older":
		node, err = p.parseLock(func(n uint32) Node {
			return &Older{Blocks: n}
		})

	case "after":
		node, err = p.parseLock(func(n uint32) Node {
			return &After{Height: n}
		})

	case "sha256":
		node, err = p.parseSha256()

	case "hash160":
		node, err = p.parseHash160()

	default:
		return nil, fmt.Errorf("unknown operator %q", name)
	}
	if err != nil {
		return nil, err
	}

	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *parser) parseKey() (Node, error) {
	arg, err := p.argument()
	if err != nil {
		return nil, err
	}
	keyBytes, err := hex.DecodeString(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid public key hex %q: %w", arg,
			err)
	}
	key, err := btcec.ParsePubKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid public key %q: %w", arg, err)
	}
	return &Key{Key: key}, nil
}

func (p *parser) parseKeyHash() (Node, error) {
	hash, err := p.parseDigest()
	if err != nil {
		return nil, err
	}
	return &KeyHash{Hash: hash}, nil
}

func (p *parser) parseHash160() (Node, error) {
	hash, err := p.parseDigest()
	if err != nil {
		return nil, err
	}
	return &Hash160{Hash: hash}, nil
}

func (p *parser) parseDigest() ([HashSize]byte, error) {
	var hash [HashSize]byte

	arg, err := p.argument()
	if err != nil {
		return hash, err
	}
	hashBytes, err := hex.DecodeString(arg)
	if err != nil {
		return hash, fmt.Errorf("invalid digest hex %q: %w", arg, err)
	}
	if len(hashBytes) != HashSize {
		return hash, fmt.Errorf("digest %q must be %d bytes", arg,
			HashSize)
	}

	copy(hash[:], hashBytes)
	return hash, nil
}

func (p *parser) parseSha256() (Node, error) {
	arg, err := p.argument()
	if err != nil {
		return nil, err
	}
	hash, err := chainhash.NewHashFromStr(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid sha256 digest %q: %w", arg,
			err)
	}
	return &Sha256{Hash: *hash}, nil
}

func (p *parser) parseThreshold() (Node, error) {
	arg, err := p.argument()
	if err != nil {
		return nil, err
	}
	k, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid threshold %q: %w", arg, err)
	}

	var subs []Node
	for {
		if err := p.expect(','); err != nil {
			break
		}
		sub, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	if k < 1 || k > len(subs) {
		return nil, fmt.Errorf("invalid threshold %d of %d", k,
			len(subs))
	}
	return &Threshold{K: k, Subs: subs}, nil
}

func (p *parser) parsePair(join func(l, r Node) Node) (Node, error) {
	left, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	if err := p.expect(','); err != nil {
		return nil, err
	}
	right, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	return join(left, right), nil
}

func (p *parser) parseLock(mk func(uint32) Node) (Node, error) {
	arg, err := p.argument()
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid lock value %q: %w", arg, err)
	}
	return mk(uint32(n)), nil
}
