package dbc

import "errors"

var (
	// ErrInvalidProofStructure is returned when a proof's script kind
	// does not match the container being reconstructed from it.
	ErrInvalidProofStructure = errors.New("proof structure does not " +
		"match expected container kind")

	// ErrContainsNoKeys is returned for scripts without a single key
	// leaf; such a script can never validate against any target key.
	// It takes precedence over all other validation errors.
	ErrContainsNoKeys = errors.New("lockscript contains no public keys")

	// ErrKeyNotFound is returned when the target public key does not
	// appear as a key leaf anywhere in the script.
	ErrKeyNotFound = errors.New("target public key not found in " +
		"lockscript")

	// ErrContainsUnknownHashes is returned when a key-hash leaf cannot
	// be resolved against any key present in the script. Such a leaf
	// could silently diverge from a tweaked key, so it must reject.
	ErrContainsUnknownHashes = errors.New("lockscript contains key " +
		"hashes not derived from any of its keys")
)
