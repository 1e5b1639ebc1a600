// Package wire implements the binary encoding of the messages exchanged by
// lattice peers.
//
// Every message starts with a one-byte type tag. KeepaliveReq, KeepaliveAck,
// PublishAck and PublishNak carry nothing else; PublishReq is followed by a
// block payload:
//
//	count   uint16 (big-endian)
//	entries count * {
//		account   [65]byte  uncompressed secp256k1 point
//		balance   uint64    big-endian
//		sequence  uint64    big-endian
//		signature [64]byte  R || S
//	}
//
// Decoding is the first validation gate of a node: every account must be a
// valid curve point, and the first bad entry aborts the whole message. No
// partially decoded message is ever returned.
package wire
