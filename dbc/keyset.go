package dbc

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lightninglabs/lockcommit/lockscript"
	"golang.org/x/crypto/hkdf"
)

// infoKeysetTweak domain-separates the tweak expansion from any other
// HKDF use of the same key material.
var infoKeysetTweak = []byte("lockcommit/keyset/v0")

// KeysetContainer is the commitment context of the base single-key tweak
// protocol: a target key, the full set of keys it is tweaked relative
// to, and the hashed protocol tag.
type KeysetContainer struct {
	// Pubkey is the key the tweak is applied to. It must be a member
	// of Keyset.
	Pubkey *btcec.PublicKey

	// Keyset is the complete set of keys the commitment covers.
	Keyset *lockscript.KeySet

	// Tag is the single SHA256 hash of the protocol-specific tag
	// string.
	Tag chainhash.Hash
}

// KeysetCommitment is a public key carrying a deterministic commitment
// to a message: the target key with the tweak scalar's generator
// multiple added to it.
type KeysetCommitment struct {
	// Key is the tweaked public key.
	Key *btcec.PublicKey
}

// EmbedCommit derives the tweaked key committing to msg. The result is a
// pure function of (target key, keyset, tag, msg): the tweak scalar is
// expanded with HKDF-SHA256 from the aggregated keyset, salted with the
// tag, and added to the target key on the curve.
func (c *KeysetContainer) EmbedCommit(msg []byte) (*KeysetCommitment,
	error) {

	if c.Keyset == nil || !c.Keyset.Contains(c.Pubkey) {
		return nil, ErrKeyNotFound
	}

	tweak, err := tweakScalar(c.Keyset, c.Tag, msg)
	if err != nil {
		return nil, err
	}

	// T = P + t*G.
	var keyJ, tweakJ, resultJ btcec.JacobianPoint
	c.Pubkey.AsJacobian(&keyJ)
	btcec.ScalarBaseMultNonConst(tweak, &tweakJ)
	btcec.AddNonConst(&keyJ, &tweakJ, &resultJ)

	// Infinity if Z == 0 in Jacobian coords.
	if resultJ.Z.IsZero() {
		return nil, fmt.Errorf("tweaked key is the point at infinity")
	}
	resultJ.ToAffine()

	return &KeysetCommitment{
		Key: btcec.NewPublicKey(&resultJ.X, &resultJ.Y),
	}, nil
}

// Verify recomputes the commitment over the given container and message
// and compares the tweaked keys by point identity.
func (k *KeysetCommitment) Verify(container *KeysetContainer,
	msg []byte) (bool, error) {

	other, err := container.EmbedCommit(msg)
	if err != nil {
		return false, err
	}
	return k.Key.IsEqual(other.Key), nil
}

// tweakScalar expands the deterministic tweak for the given keyset, tag
// and message. The aggregated keyset binds the tweak to every key in the
// script, so no subset of holders can claim the commitment was made to a
// different key surface.
func tweakScalar(keyset *lockscript.KeySet, tag chainhash.Hash,
	msg []byte) (*secp256k1.ModNScalar, error) {

	sum, err := aggregateKeys(keyset.Sorted())
	if err != nil {
		return nil, err
	}

	msgHash := sha256.Sum256(msg)
	ikm := make([]byte, 0, 33+sha256.Size)
	ikm = append(ikm, sum.SerializeCompressed()...)
	ikm = append(ikm, msgHash[:]...)

	expander := hkdf.New(sha256.New, ikm, tag[:], infoKeysetTweak)

	// Re-expand on an out-of-range or zero scalar instead of failing;
	// the odds of even one retry are below 2^-128.
	var scalarBytes [32]byte
	for {
		if _, err := expander.Read(scalarBytes[:]); err != nil {
			return nil, fmt.Errorf("tweak expansion failed: %w",
				err)
		}

		var scalar secp256k1.ModNScalar
		overflow := scalar.SetBytes(&scalarBytes)
		if overflow == 0 && !scalar.IsZero() {
			return &scalar, nil
		}
	}
}

// aggregateKeys sums the given keys on the curve.
func aggregateKeys(keys []*btcec.PublicKey) (*btcec.PublicKey, error) {
	var sum btcec.JacobianPoint
	for _, key := range keys {
		var point btcec.JacobianPoint
		key.AsJacobian(&point)
		btcec.AddNonConst(&sum, &point, &sum)
	}

	if sum.Z.IsZero() {
		return nil, fmt.Errorf("keyset sums to the point at infinity")
	}

	sum.ToAffine()
	return btcec.NewPublicKey(&sum.X, &sum.Y), nil
}
