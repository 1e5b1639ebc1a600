// Package keys implements the public key cryptography used throughout Lattice.
//
// Every account of the ledger is identified by a public key. The holder of the
// matching private key signs the content hash of every block that updates the
// account, and peers verify those signatures before accepting the block.
//
// Lattice uses elliptic curve cryptography (ECDSA) with the secp256k1 curve.
// Public keys travel in uncompressed form (65 bytes) and signatures as the
// fixed-width concatenation of R and S (64 bytes), so that blocks can be
// encoded in a fixed binary layout.
package keys
