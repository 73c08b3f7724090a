package lockscript

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

// KeyRule maps the key of a key leaf to its replacement. Returning the
// key unchanged leaves the leaf alone.
type KeyRule func(*btcec.PublicKey) (*btcec.PublicKey, error)

// HashRule maps the digest of a key-hash leaf to its replacement.
type HashRule func([HashSize]byte) ([HashSize]byte, error)

// Replace rewrites a policy tree by applying keyRule to every key leaf
// and hashRule to every key-hash leaf, in a single traversal. The tree
// shape is preserved exactly; rules run on every matching leaf, not just
// the first. The input tree is never mutated.
func Replace(root Node, keyRule KeyRule, hashRule HashRule) (Node, error) {
	switch node := root.(type) {
	case *Key:
		key, err := keyRule(node.Key)
		if err != nil {
			return nil, err
		}
		return &Key{Key: key}, nil

	case *KeyHash:
		hash, err := hashRule(node.Hash)
		if err != nil {
			return nil, err
		}
		return &KeyHash{Hash: hash}, nil

	case *Threshold:
		subs := make([]Node, len(node.Subs))
		for idx, sub := range node.Subs {
			rewritten, err := Replace(sub, keyRule, hashRule)
			if err != nil {
				return nil, err
			}
			subs[idx] = rewritten
		}
		return &Threshold{K: node.K, Subs: subs}, nil

	case *And:
		left, err := Replace(node.Left, keyRule, hashRule)
		if err != nil {
			return nil, err
		}
		right, err := Replace(node.Right, keyRule, hashRule)
		if err != nil {
			return nil, err
		}
		return &And{Left: left, Right: right}, nil

	case *Or:
		left, err := Replace(node.Left, keyRule, hashRule)
		if err != nil {
			return nil, err
		}
		right, err := Replace(node.Right, keyRule, hashRule)
		if err != nil {
			return nil, err
		}
		return &Or{Left: left, Right: right}, nil

	case *Older:
		return &Older{Blocks: node.Blocks}, nil

	case *After:
		return &After{Height: node.Height}, nil

	case *Sha256:
		return &Sha256{Hash: node.Hash}, nil

	case *Hash160:
		return &Hash160{Hash: node.Hash}, nil

	default:
		return nil, fmt.Errorf("unknown script node %T", root)
	}
}
