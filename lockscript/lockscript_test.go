package lockscript

import (
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

// testPubKeys derives n deterministic public keys from tiny secret keys.
func testPubKeys(t *testing.T, n int) []*btcec.PublicKey {
	t.Helper()

	keys := make([]*btcec.PublicKey, n)
	for i := 1; i <= n; i++ {
		var sk [32]byte
		sk[0] = byte(i)
		sk[1] = byte(i >> 8)
		sk[2] = byte(i >> 16)

		_, keys[i-1] = btcec.PrivKeyFromBytes(sk[:])
	}
	return keys
}

func TestParseRoundTrip(t *testing.T) {
	keys := testPubKeys(t, 3)
	keyHex := func(i int) string {
		return fmt.Sprintf("%x", keys[i].SerializeCompressed())
	}

	policies := []string{
		fmt.Sprintf("pk(%s)", keyHex(0)),
		"pkh(0101010101010101010101010101010101010101)",
		"older(921)",
		"after(800000)",
		"hash160(0202020202020202020202020202020202020202)",
		fmt.Sprintf(
			"thresh(2,pk(%s),pk(%s),pk(%s))",
			keyHex(0), keyHex(1), keyHex(2),
		),
		fmt.Sprintf(
			"and(pk(%s),older(144))", keyHex(0),
		),
		fmt.Sprintf(
			"or(pk(%s),and(thresh(2,pk(%s),pk(%s)),after(900)))",
			keyHex(0), keyHex(1), keyHex(2),
		),
		"sha256(1f6a8f4f40c9b1cb54dbe3a3fc9c5325a21089e6dbc8ff4f" +
			"7b44d9424f85a44c)",
	}

	for _, policy := range policies {
		node, err := Parse(policy)
		require.NoError(t, err, policy)
		require.Equal(t, policy, node.String())

		// A reparse of the rendering must be structurally equal.
		reparsed, err := Parse(node.String())
		require.NoError(t, err)
		require.True(t, Equal(node, reparsed), policy)
	}
}

func TestParseUncompressedKey(t *testing.T) {
	keys := testPubKeys(t, 1)

	compressed, err := Parse(fmt.Sprintf(
		"pk(%x)", keys[0].SerializeCompressed(),
	))
	require.NoError(t, err)

	uncompressed, err := Parse(fmt.Sprintf(
		"pk(%x)", keys[0].SerializeUncompressed(),
	))
	require.NoError(t, err)

	// Both encodings are the same point, so the trees are equal and
	// the rendering always picks the compressed form.
	require.True(t, Equal(compressed, uncompressed))
	require.Equal(t, compressed.String(), uncompressed.String())
}

func TestParseErrors(t *testing.T) {
	policies := []string{
		"",
		"pk()",
		"pk(zz)",
		"pk(0101)",
		"pkh(01)",
		"nope(123)",
		"older(abc)",
		"thresh(3,older(1),older(2))",
		"thresh(0,older(1))",
		"and(older(1))",
		"or(older(1),older(2),older(3))",
		"older(1))",
		"older(1) trailing",
	}

	for _, policy := range policies {
		_, err := Parse(policy)
		require.Error(t, err, policy)
	}
}

func TestEqual(t *testing.T) {
	keys := testPubKeys(t, 2)

	a := &And{
		Left:  &Key{Key: keys[0]},
		Right: &Older{Blocks: 10},
	}
	b := &And{
		Left:  &Key{Key: keys[0]},
		Right: &Older{Blocks: 10},
	}
	c := &And{
		Left:  &Key{Key: keys[1]},
		Right: &Older{Blocks: 10},
	}
	d := &Or{
		Left:  &Key{Key: keys[0]},
		Right: &Older{Blocks: 10},
	}

	require.True(t, Equal(a, b))
	require.False(t, Equal(a, c))
	require.False(t, Equal(a, d))
}

func TestExtractKeyHashSet(t *testing.T) {
	keys := testPubKeys(t, 3)
	hash0 := HashKey(keys[0])

	// keys[0] appears twice as a key leaf and once as a hash leaf;
	// keys[1] and keys[2] once each.
	script := &Or{
		Left: &Threshold{
			K: 2,
			Subs: []Node{
				&Key{Key: keys[0]},
				&Key{Key: keys[1]},
				&Key{Key: keys[2]},
			},
		},
		Right: &And{
			Left:  &Key{Key: keys[0]},
			Right: &KeyHash{Hash: hash0},
		},
	}

	keySet, hashes, err := ExtractKeyHashSet(script)
	require.NoError(t, err)
	require.Equal(t, 3, keySet.Len())
	require.True(t, keySet.Contains(keys[0]))
	require.True(t, keySet.Contains(keys[1]))
	require.True(t, keySet.Contains(keys[2]))
	require.Equal(t, [][HashSize]byte{hash0}, hashes)

	// Preimage leaves contribute nothing to either set.
	keySet, hashes, err = ExtractKeyHashSet(&Hash160{
		Hash: [HashSize]byte{1, 2, 3},
	})
	require.NoError(t, err)
	require.Equal(t, 0, keySet.Len())
	require.Empty(t, hashes)
}

func TestKeySetDedupEncodings(t *testing.T) {
	keys := testPubKeys(t, 1)

	reparsed, err := btcec.ParsePubKey(keys[0].SerializeUncompressed())
	require.NoError(t, err)

	set := NewKeySet()
	require.True(t, set.Add(keys[0]))
	require.False(t, set.Add(reparsed))
	require.Equal(t, 1, set.Len())
	require.True(t, set.Contains(reparsed))
}

func TestKeySetSorted(t *testing.T) {
	keys := testPubKeys(t, 4)

	forward := NewKeySet()
	backward := NewKeySet()
	for i := range keys {
		forward.Add(keys[i])
		backward.Add(keys[len(keys)-1-i])
	}

	require.Equal(t, forward.Sorted(), backward.Sorted())
}

func TestReplaceAllOccurrences(t *testing.T) {
	keys := testPubKeys(t, 3)

	script := &Or{
		Left: &Key{Key: keys[0]},
		Right: &And{
			Left:  &Key{Key: keys[0]},
			Right: &Key{Key: keys[1]},
		},
	}

	matched := 0
	rewritten, err := Replace(
		script,
		func(key *btcec.PublicKey) (*btcec.PublicKey, error) {
			if key.IsEqual(keys[0]) {
				matched++
				return keys[2], nil
			}
			return key, nil
		},
		func(hash [HashSize]byte) ([HashSize]byte, error) {
			return hash, nil
		},
	)
	require.NoError(t, err)
	require.Equal(t, 2, matched)

	expected := &Or{
		Left: &Key{Key: keys[2]},
		Right: &And{
			Left:  &Key{Key: keys[2]},
			Right: &Key{Key: keys[1]},
		},
	}
	require.True(t, Equal(rewritten, expected))

	// The input tree is left untouched.
	require.True(t, Equal(script.Left, &Key{Key: keys[0]}))
}

func TestReplaceError(t *testing.T) {
	keys := testPubKeys(t, 1)

	_, err := Replace(
		&Key{Key: keys[0]},
		func(*btcec.PublicKey) (*btcec.PublicKey, error) {
			return nil, fmt.Errorf("structural failure")
		},
		func(hash [HashSize]byte) ([HashSize]byte, error) {
			return hash, nil
		},
	)
	require.ErrorContains(t, err, "structural failure")
}

func TestCompile(t *testing.T) {
	keys := testPubKeys(t, 3)
	hash := HashKey(keys[0])

	var pkExpected []byte
	pkExpected = append(pkExpected, txscript.OP_DATA_33)
	pkExpected = append(pkExpected, keys[0].SerializeCompressed()...)
	pkExpected = append(pkExpected, txscript.OP_CHECKSIG)

	var pkhExpected []byte
	pkhExpected = append(
		pkhExpected, txscript.OP_DUP, txscript.OP_HASH160,
		txscript.OP_DATA_20,
	)
	pkhExpected = append(pkhExpected, hash[:]...)
	pkhExpected = append(
		pkhExpected, txscript.OP_EQUALVERIFY, txscript.OP_CHECKSIG,
	)

	var multisigExpected []byte
	multisigExpected = append(multisigExpected, txscript.OP_2)
	for _, key := range keys {
		multisigExpected = append(
			multisigExpected, txscript.OP_DATA_33,
		)
		multisigExpected = append(
			multisigExpected, key.SerializeCompressed()...,
		)
	}
	multisigExpected = append(
		multisigExpected, txscript.OP_3, txscript.OP_CHECKMULTISIG,
	)

	testCases := []struct {
		node     Node
		expected []byte
	}{{
		node:     &Key{Key: keys[0]},
		expected: pkExpected,
	}, {
		node:     &KeyHash{Hash: hash},
		expected: pkhExpected,
	}, {
		node: &Threshold{
			K: 2,
			Subs: []Node{
				&Key{Key: keys[0]},
				&Key{Key: keys[1]},
				&Key{Key: keys[2]},
			},
		},
		expected: multisigExpected,
	}}

	for _, tc := range testCases {
		script, err := Compile(tc.node)
		require.NoError(t, err)
		require.Equal(t, tc.expected, script)
	}
}

func TestCompileGeneralThreshold(t *testing.T) {
	keys := testPubKeys(t, 2)

	// Mixed children cannot use CHECKMULTISIG, so the counting chain
	// is emitted instead.
	script, err := Compile(&Threshold{
		K: 1,
		Subs: []Node{
			&Key{Key: keys[0]},
			&And{
				Left:  &Key{Key: keys[1]},
				Right: &Older{Blocks: 10},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, uint8(txscript.OP_EQUAL), script[len(script)-1])
	require.Equal(t, uint8(txscript.OP_ADD), script[len(script)-3])
}

func TestCompileInvalidThreshold(t *testing.T) {
	keys := testPubKeys(t, 1)

	_, err := Compile(&Threshold{
		K:    2,
		Subs: []Node{&Key{Key: keys[0]}},
	})
	require.Error(t, err)
}
