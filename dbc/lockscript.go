package dbc

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/lockcommit/lockscript"
)

// LockscriptContainer is the full context a lockscript commitment is
// derived from: the script, the key leaf targeted by the tweak and the
// hashed protocol tag. Containers are transient values built per call
// and never persisted.
type LockscriptContainer struct {
	// Script is the policy tree the message is embedded into.
	Script lockscript.Node

	// Pubkey is the target key; it must appear as a key leaf of
	// Script.
	Pubkey *btcec.PublicKey

	// Tag is the single SHA256 hash of the protocol-specific tag
	// string, scoping commitments to one protocol.
	Tag chainhash.Hash
}

// The tag is the lockscript container's supplement: published next to
// the proof but not part of it.
var _ Container[chainhash.Hash] = (*LockscriptContainer)(nil)

// ReconstructLockscript rebuilds the full commitment context from a
// public proof and the tag supplement. It fails with
// ErrInvalidProofStructure if the proof was produced for a different
// script kind.
func ReconstructLockscript(proof Proof,
	tag chainhash.Hash) (*LockscriptContainer, error) {

	if proof.Kind != ScriptKindLockscript || proof.Lockscript == nil {
		return nil, ErrInvalidProofStructure
	}

	return &LockscriptContainer{
		Script: proof.Lockscript,
		Pubkey: proof.Pubkey,
		Tag:    tag,
	}, nil
}

// Deconstruct projects the container into its minimal public witness
// plus the tag supplement.
func (c *LockscriptContainer) Deconstruct() (Proof, chainhash.Hash) {
	return c.Proof(), c.Tag
}

// Proof projects the public witness alone.
func (c *LockscriptContainer) Proof() Proof {
	return Proof{
		Kind:       ScriptKindLockscript,
		Lockscript: c.Script,
		Pubkey:     c.Pubkey,
	}
}

// LockscriptCommitment is a lockscript in which every occurrence of the
// target key (and of its hash) has been replaced by the tweaked key
// carrying the message commitment. The rewritten script is economically
// and syntactically equivalent to the original.
type LockscriptCommitment struct {
	// Script is the rewritten policy tree.
	Script lockscript.Node

	// TweakedKey is the key all matching leaves were replaced with.
	TweakedKey *btcec.PublicKey

	// NumReplaced counts the leaf substitutions performed, across all
	// branches. At least one key leaf always matches.
	NumReplaced int
}

// EmbedCommit embeds msg into the container's script. The script's key
// surface is validated first, so a failing container never produces a
// partially rewritten result; only then is the tweak computed and every
// matching key and key-hash leaf rewritten in a single traversal.
func (c *LockscriptContainer) EmbedCommit(
	msg []byte) (*LockscriptCommitment, error) {

	keys, hashes, err := lockscript.ExtractKeyHashSet(c.Script)
	if err != nil {
		return nil, fmt.Errorf("unable to extract script key "+
			"surface: %w", err)
	}

	// Check order is part of the wire-level standard: an empty key set
	// reports ErrContainsNoKeys even though the target key is then
	// trivially absent as well.
	if keys.Len() == 0 {
		return nil, ErrContainsNoKeys
	}
	if !keys.Contains(c.Pubkey) {
		return nil, ErrKeyNotFound
	}

	known := make(map[[lockscript.HashSize]byte]struct{}, keys.Len())
	for _, key := range keys.Keys() {
		known[lockscript.HashKey(key)] = struct{}{}
	}
	for _, hash := range hashes {
		if _, ok := known[hash]; !ok {
			return nil, ErrContainsUnknownHashes
		}
	}

	keysetCommit, err := (&KeysetContainer{
		Pubkey: c.Pubkey,
		Keyset: keys,
		Tag:    c.Tag,
	}).EmbedCommit(msg)
	if err != nil {
		return nil, fmt.Errorf("keyset tweak failed: %w", err)
	}

	var (
		targetHash  = lockscript.HashKey(c.Pubkey)
		tweakedKey  = keysetCommit.Key
		tweakedHash = lockscript.HashKey(tweakedKey)
		numReplaced int
	)

	// The same key may appear in multiple disjoint branches, so every
	// matching leaf is rewritten, not just the first.
	rewritten, err := lockscript.Replace(
		c.Script,
		func(key *btcec.PublicKey) (*btcec.PublicKey, error) {
			if key.IsEqual(c.Pubkey) {
				numReplaced++
				return tweakedKey, nil
			}
			return key, nil
		},
		func(hash [lockscript.HashSize]byte) ([lockscript.HashSize]byte,
			error) {

			if hash == targetHash {
				numReplaced++
				return tweakedHash, nil
			}
			return hash, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("script rewrite failed: %w", err)
	}

	return &LockscriptCommitment{
		Script:      rewritten,
		TweakedKey:  tweakedKey,
		NumReplaced: numReplaced,
	}, nil
}

// Verify checks the commitment against a container and message by
// replaying EmbedCommit and comparing the resulting scripts for exact
// structural equality. There is no separate verification algorithm.
func (lc *LockscriptCommitment) Verify(container *LockscriptContainer,
	msg []byte) (bool, error) {

	other, err := container.EmbedCommit(msg)
	if err != nil {
		return false, err
	}
	return lockscript.Equal(lc.Script, other.Script), nil
}
