package dbc

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/lockcommit/lockscript"
	"github.com/stretchr/testify/require"
)

func testKeyset(keys ...*btcec.PublicKey) *lockscript.KeySet {
	set := lockscript.NewKeySet()
	for _, key := range keys {
		set.Add(key)
	}
	return set
}

func TestKeysetEmbedCommit(t *testing.T) {
	keys := testPubKeys(t, 3)

	container := &KeysetContainer{
		Pubkey: keys[0],
		Keyset: testKeyset(keys...),
		Tag:    testTag,
	}

	commitment, err := container.EmbedCommit(testMsg)
	require.NoError(t, err)
	require.False(t, commitment.Key.IsEqual(keys[0]))

	// Deterministic: a second run yields the identical point.
	again, err := container.EmbedCommit(testMsg)
	require.NoError(t, err)
	require.True(t, commitment.Key.IsEqual(again.Key))

	ok, err := commitment.Verify(container, testMsg)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = commitment.Verify(container, []byte("Other message"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKeysetTargetNotMember(t *testing.T) {
	keys := testPubKeys(t, 3)

	container := &KeysetContainer{
		Pubkey: keys[2],
		Keyset: testKeyset(keys[0], keys[1]),
		Tag:    testTag,
	}
	_, err := container.EmbedCommit(testMsg)
	require.ErrorIs(t, err, ErrKeyNotFound)

	container.Keyset = nil
	_, err = container.EmbedCommit(testMsg)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeysetOrderIndependent(t *testing.T) {
	keys := testPubKeys(t, 4)

	forward := &KeysetContainer{
		Pubkey: keys[0],
		Keyset: testKeyset(keys[0], keys[1], keys[2], keys[3]),
		Tag:    testTag,
	}
	backward := &KeysetContainer{
		Pubkey: keys[0],
		Keyset: testKeyset(keys[3], keys[2], keys[1], keys[0]),
		Tag:    testTag,
	}

	// The tweak aggregates the keyset in sorted order, so insertion
	// order cannot change the commitment.
	a, err := forward.EmbedCommit(testMsg)
	require.NoError(t, err)
	b, err := backward.EmbedCommit(testMsg)
	require.NoError(t, err)
	require.True(t, a.Key.IsEqual(b.Key))
}

func TestKeysetTagSeparation(t *testing.T) {
	keys := testPubKeys(t, 2)

	container := &KeysetContainer{
		Pubkey: keys[0],
		Keyset: testKeyset(keys...),
		Tag:    testTag,
	}
	other := &KeysetContainer{
		Pubkey: keys[0],
		Keyset: testKeyset(keys...),
		Tag:    chainhash.HashH([]byte("OTHER_TAG")),
	}

	a, err := container.EmbedCommit(testMsg)
	require.NoError(t, err)
	b, err := other.EmbedCommit(testMsg)
	require.NoError(t, err)

	// Same keys, same message, different protocol tag: unrelated
	// commitments.
	require.False(t, a.Key.IsEqual(b.Key))
}

func TestKeysetDependsOnFullKeyset(t *testing.T) {
	keys := testPubKeys(t, 3)

	small := &KeysetContainer{
		Pubkey: keys[0],
		Keyset: testKeyset(keys[0], keys[1]),
		Tag:    testTag,
	}
	large := &KeysetContainer{
		Pubkey: keys[0],
		Keyset: testKeyset(keys[0], keys[1], keys[2]),
		Tag:    testTag,
	}

	a, err := small.EmbedCommit(testMsg)
	require.NoError(t, err)
	b, err := large.EmbedCommit(testMsg)
	require.NoError(t, err)
	require.False(t, a.Key.IsEqual(b.Key))
}
