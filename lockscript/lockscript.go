// Package lockscript models the output-locking script of a transaction
// output as a policy tree over public keys, key hashes, thresholds,
// combinators and time locks. The tree is only traversed, never executed;
// compiling it down to raw bitcoin script is a one-way rendering step.
package lockscript

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
)

// HashSize is the size of a key-hash leaf value, the HASH160 of a
// compressed public key.
const HashSize = 20

// Node is a single node of a lockscript policy tree. The set of
// implementations is closed; consumers switch over the concrete types.
type Node interface {
	fmt.Stringer

	// node restricts implementations to this package.
	node()
}

// Key is a leaf requiring a signature for the given public key.
type Key struct {
	Key *btcec.PublicKey
}

// KeyHash is a leaf requiring a signature for a public key whose HASH160
// matches the given digest.
type KeyHash struct {
	Hash [HashSize]byte
}

// Threshold requires any K of its sub-policies to be satisfied.
type Threshold struct {
	K    int
	Subs []Node
}

// And requires both of its sub-policies to be satisfied.
type And struct {
	Left  Node
	Right Node
}

// Or requires either of its sub-policies to be satisfied.
type Or struct {
	Left  Node
	Right Node
}

// Older is a relative time lock over the containing branch.
type Older struct {
	Blocks uint32
}

// After is an absolute time lock over the containing branch.
type After struct {
	Height uint32
}

// Sha256 is a hash-preimage check against a SHA256 digest. Its digest is
// not part of the script's key-hash surface.
type Sha256 struct {
	Hash chainhash.Hash
}

// Hash160 is a hash-preimage check against a HASH160 digest. Like Sha256
// it is unrelated to the key-hash surface.
type Hash160 struct {
	Hash [HashSize]byte
}

func (n *Key) node()       {}
func (n *KeyHash) node()   {}
func (n *Threshold) node() {}
func (n *And) node()       {}
func (n *Or) node()        {}
func (n *Older) node()     {}
func (n *After) node()     {}
func (n *Sha256) node()    {}
func (n *Hash160) node()   {}

func (n *Key) String() string {
	return fmt.Sprintf("pk(%x)", n.Key.SerializeCompressed())
}

func (n *KeyHash) String() string {
	return fmt.Sprintf("pkh(%x)", n.Hash[:])
}

func (n *Threshold) String() string {
	parts := make([]string, 0, len(n.Subs)+1)
	parts = append(parts, fmt.Sprintf("%d", n.K))
	for _, sub := range n.Subs {
		parts = append(parts, sub.String())
	}
	return fmt.Sprintf("thresh(%s)", strings.Join(parts, ","))
}

func (n *And) String() string {
	return fmt.Sprintf("and(%s,%s)", n.Left, n.Right)
}

func (n *Or) String() string {
	return fmt.Sprintf("or(%s,%s)", n.Left, n.Right)
}

func (n *Older) String() string {
	return fmt.Sprintf("older(%d)", n.Blocks)
}

func (n *After) String() string {
	return fmt.Sprintf("after(%d)", n.Height)
}

func (n *Sha256) String() string {
	// chainhash renders in reversed display order, matching what
	// NewHashFromStr expects back.
	return fmt.Sprintf("sha256(%s)", n.Hash.String())
}

func (n *Hash160) String() string {
	return fmt.Sprintf("hash160(%x)", n.Hash[:])
}

// HashKey returns the HASH160 of the compressed serialization of the
// given public key. Key-hash leaves always hash the compressed form, no
// matter which encoding the key was supplied in.
func HashKey(key *btcec.PublicKey) [HashSize]byte {
	var hash [HashSize]byte
	copy(hash[:], btcutil.Hash160(key.SerializeCompressed()))
	return hash
}

// Equal reports whether two policy trees are structurally identical:
// same shape, same leaf values. Keys compare by point identity, so the
// encoding they were parsed from does not matter.
func Equal(a, b Node) bool {
	switch a := a.(type) {
	case *Key:
		b, ok := b.(*Key)
		return ok && a.Key.IsEqual(b.Key)

	case *KeyHash:
		b, ok := b.(*KeyHash)
		return ok && a.Hash == b.Hash

	case *Threshold:
		b, ok := b.(*Threshold)
		if !ok || a.K != b.K || len(a.Subs) != len(b.Subs) {
			return false
		}
		for idx := range a.Subs {
			if !Equal(a.Subs[idx], b.Subs[idx]) {
				return false
			}
		}
		return true

	case *And:
		b, ok := b.(*And)
		return ok && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)

	case *Or:
		b, ok := b.(*Or)
		return ok && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)

	case *Older:
		b, ok := b.(*Older)
		return ok && a.Blocks == b.Blocks

	case *After:
		b, ok := b.(*After)
		return ok && a.Height == b.Height

	case *Sha256:
		b, ok := b.(*Sha256)
		return ok && a.Hash == b.Hash

	case *Hash160:
		b, ok := b.(*Hash160)
		return ok && a.Hash == b.Hash

	default:
		return false
	}
}

// Compile renders the policy tree into raw bitcoin script. Thresholds
// over plain key leaves become classic CHECKMULTISIG, all other
// thresholds an ADD/EQUAL counting chain.
func Compile(root Node) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	if err := compile(root, builder); err != nil {
		return nil, err
	}
	return builder.Script()
}

func compile(node Node, builder *txscript.ScriptBuilder) error {
	switch node := node.(type) {
	case *Key:
		builder.AddData(node.Key.SerializeCompressed())
		builder.AddOp(txscript.OP_CHECKSIG)

	case *KeyHash:
		builder.AddOp(txscript.OP_DUP)
		builder.AddOp(txscript.OP_HASH160)
		builder.AddData(node.Hash[:])
		builder.AddOp(txscript.OP_EQUALVERIFY)
		builder.AddOp(txscript.OP_CHECKSIG)

	case *Threshold:
		if node.K < 1 || node.K > len(node.Subs) {
			return fmt.Errorf("invalid threshold %d of %d",
				node.K, len(node.Subs))
		}

		if keys, ok := multisigKeys(node); ok {
			builder.AddInt64(int64(node.K))
			for _, key := range keys {
				builder.AddData(key.SerializeCompressed())
			}
			builder.AddInt64(int64(len(keys)))
			builder.AddOp(txscript.OP_CHECKMULTISIG)
			return nil
		}

		for idx, sub := range node.Subs {
			if err := compile(sub, builder); err != nil {
				return err
			}
			if idx > 0 {
				builder.AddOp(txscript.OP_ADD)
			}
		}
		builder.AddInt64(int64(node.K))
		builder.AddOp(txscript.OP_EQUAL)

	case *And:
		if err := compile(node.Left, builder); err != nil {
			return err
		}
		builder.AddOp(txscript.OP_VERIFY)
		if err := compile(node.Right, builder); err != nil {
			return err
		}

	case *Or:
		builder.AddOp(txscript.OP_IF)
		if err := compile(node.Left, builder); err != nil {
			return err
		}
		builder.AddOp(txscript.OP_ELSE)
		if err := compile(node.Right, builder); err != nil {
			return err
		}
		builder.AddOp(txscript.OP_ENDIF)

	case *Older:
		builder.AddInt64(int64(node.Blocks))
		builder.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)

	case *After:
		builder.AddInt64(int64(node.Height))
		builder.AddOp(txscript.OP_CHECKLOCKTIMEVERIFY)

	case *Sha256:
		builder.AddOp(txscript.OP_SHA256)
		builder.AddData(node.Hash[:])
		builder.AddOp(txscript.OP_EQUAL)

	case *Hash160:
		builder.AddOp(txscript.OP_HASH160)
		builder.AddData(node.Hash[:])
		builder.AddOp(txscript.OP_EQUAL)

	default:
		return fmt.Errorf("unknown script node %T", node)
	}

	return nil
}

// multisigKeys returns the keys of a threshold whose children are all
// plain key leaves, the only shape CHECKMULTISIG can express.
func multisigKeys(node *Threshold) ([]*btcec.PublicKey, bool) {
	keys := make([]*btcec.PublicKey, 0, len(node.Subs))
	for _, sub := range node.Subs {
		leaf, ok := sub.(*Key)
		if !ok {
			return nil, false
		}
		keys = append(keys, leaf.Key)
	}
	return keys, true
}
