package lockscript

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
)

// KeySet is an insertion-ordered set of public keys, deduplicated by
// point identity: adding the compressed and the uncompressed encoding of
// the same point counts as a single member.
type KeySet struct {
	keys  []*btcec.PublicKey
	index map[[33]byte]int
}

// NewKeySet returns an empty key set.
func NewKeySet() *KeySet {
	return &KeySet{
		index: make(map[[33]byte]int),
	}
}

func setKey(key *btcec.PublicKey) [33]byte {
	var id [33]byte
	copy(id[:], key.SerializeCompressed())
	return id
}

// Add inserts a key, returning false if an equal point was already
// present.
func (s *KeySet) Add(key *btcec.PublicKey) bool {
	id := setKey(key)
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = len(s.keys)
	s.keys = append(s.keys, key)
	return true
}

// Contains reports whether an equal point is a member of the set.
func (s *KeySet) Contains(key *btcec.PublicKey) bool {
	_, ok := s.index[setKey(key)]
	return ok
}

// Len returns the number of distinct points in the set.
func (s *KeySet) Len() int {
	return len(s.keys)
}

// Keys returns the members in insertion order. The returned slice is
// shared with the set and must not be mutated.
func (s *KeySet) Keys() []*btcec.PublicKey {
	return s.keys
}

// Sorted returns the members ordered by their compressed serialization,
// independent of insertion order.
func (s *KeySet) Sorted() []*btcec.PublicKey {
	keys := make([]*btcec.PublicKey, len(s.keys))
	copy(keys, s.keys)
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(
			keys[i].SerializeCompressed(),
			keys[j].SerializeCompressed(),
		) < 0
	})
	return keys
}

// ExtractKeyHashSet walks the tree once and collects the script's key
// surface: the set of distinct public keys at key leaves and the set of
// distinct digests at key-hash leaves. Preimage-check leaves (sha256,
// hash160) are not part of either set.
func ExtractKeyHashSet(root Node) (*KeySet, [][HashSize]byte, error) {
	keys := NewKeySet()
	seen := make(map[[HashSize]byte]struct{})
	var hashes [][HashSize]byte

	err := walk(root, func(node Node) {
		switch node := node.(type) {
		case *Key:
			keys.Add(node.Key)

		case *KeyHash:
			if _, ok := seen[node.Hash]; !ok {
				seen[node.Hash] = struct{}{}
				hashes = append(hashes, node.Hash)
			}
		}
	})
	if err != nil {
		return nil, nil, err
	}

	return keys, hashes, nil
}

// walk visits every node of the tree in depth-first order.
func walk(node Node, visit func(Node)) error {
	if node == nil {
		return fmt.Errorf("nil script node")
	}

	visit(node)

	switch node := node.(type) {
	case *Threshold:
		for _, sub := range node.Subs {
			if err := walk(sub, visit); err != nil {
				return err
			}
		}

	case *And:
		if err := walk(node.Left, visit); err != nil {
			return err
		}
		return walk(node.Right, visit)

	case *Or:
		if err := walk(node.Left, visit); err != nil {
			return err
		}
		return walk(node.Right, visit)
	}

	return nil
}
