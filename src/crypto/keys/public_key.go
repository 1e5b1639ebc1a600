package keys

import (
	"crypto/ecdsa"
	"errors"

	"github.com/btcsuite/btcd/btcec"
	"github.com/mosaicnetworks/lattice/src/common"
)

// PublicKeySize is the size of a public key in uncompressed form.
const PublicKeySize = 65

const pubKeyUncompressed byte = 0x04

// ErrInvalidPoint is returned when bytes do not encode a point of the curve.
var ErrInvalidPoint = errors.New("invalid curve point")

// PublicKey is the uncompressed encoding of a secp256k1 point. The zero value
// is not a valid point. A PublicKey doubles as an account identifier.
type PublicKey [PublicKeySize]byte

// IsValidPoint reports whether b is the uncompressed encoding of a point on
// the curve. Hybrid and compressed encodings are refused so that every account
// has exactly one byte representation.
func IsValidPoint(b []byte) bool {
	if len(b) != PublicKeySize || b[0] != pubKeyUncompressed {
		return false
	}
	_, err := btcec.ParsePubKey(b, btcec.S256())
	return err == nil
}

// ParsePublicKey checks that b is a valid point and copies it into a
// PublicKey.
func ParsePublicKey(b []byte) (PublicKey, error) {
	var pub PublicKey
	if !IsValidPoint(b) {
		return pub, ErrInvalidPoint
	}
	copy(pub[:], b)
	return pub, nil
}

// ToPublicKey converts the uncompressed point into an ecdsa.PublicKey on the
// curve returned by Curve().
func ToPublicKey(pub PublicKey) (*ecdsa.PublicKey, error) {
	if !IsValidPoint(pub[:]) {
		return nil, ErrInvalidPoint
	}
	key, err := btcec.ParsePubKey(pub[:], btcec.S256())
	if err != nil {
		return nil, err
	}
	return key.ToECDSA(), nil
}

// FromPublicKey outputs the point in uncompressed form.
func FromPublicKey(pub *ecdsa.PublicKey) PublicKey {
	var res PublicKey
	if pub == nil || pub.X == nil || pub.Y == nil {
		return res
	}
	copy(res[:], (*btcec.PublicKey)(pub).SerializeUncompressed())
	return res
}

// Bytes returns a copy of the key as a slice.
func (p PublicKey) Bytes() []byte {
	b := make([]byte, PublicKeySize)
	copy(b, p[:])
	return b
}

// Hex returns the hexadecimal representation of the uncompressed form of the
// public key.
func (p PublicKey) Hex() string {
	return common.EncodeToString(p[:])
}

// String implements fmt.Stringer with a shortened hex form.
func (p PublicKey) String() string {
	return common.ShortHex(p[1:])
}

// PublicKeyFromHex parses the output of PublicKey.Hex.
func PublicKeyFromHex(s string) (PublicKey, error) {
	b, err := common.DecodeFromString(s)
	if err != nil {
		return PublicKey{}, err
	}
	return ParsePublicKey(b)
}
