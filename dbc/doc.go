// Package dbc implements deterministic bitcoin commitments: binding an
// arbitrary message to an output-locking script by tweaking one of the
// public keys the script references. The rewritten script spends exactly
// like the original but carries a commitment any verifier can replay
// from the public proof, the protocol tag and the message.
//
// All operations are synchronous, pure computations over immutable
// inputs and safe for concurrent use without coordination.
package dbc
