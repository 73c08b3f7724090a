package dbc

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightninglabs/lockcommit/lockscript"
)

// ScriptKind tags the script variant a proof was produced for. The set
// is closed; reconstruction switches over it exhaustively and new script
// kinds extend the enum rather than subclassing anything.
type ScriptKind uint8

const (
	// ScriptKindLockscript marks a proof over a lockscript policy
	// tree.
	ScriptKindLockscript ScriptKind = 0
)

// Proof is the minimal public witness of a commitment: enough for any
// verifier to rebuild the full container, given the protocol-specific
// supplement that is published out of band.
type Proof struct {
	// Kind selects which script field below is populated.
	Kind ScriptKind

	// Lockscript is the committed-to script, set for
	// ScriptKindLockscript.
	Lockscript lockscript.Node

	// Pubkey is the key targeted by the tweak.
	Pubkey *btcec.PublicKey
}

// Container is the contract implemented once per script kind: the full
// context a commitment is rederived from, projectable onto its minimal
// public witness. Sup is the protocol-specific supplement that travels
// next to the proof without being part of it. Reconstruction is a
// per-kind constructor (e.g. ReconstructLockscript) so that a kind
// mismatch fails before a container value ever exists.
type Container[Sup any] interface {
	// Deconstruct projects the container into its public witness and
	// the supplement needed to rebuild it.
	Deconstruct() (Proof, Sup)

	// Proof projects the public witness alone.
	Proof() Proof
}
