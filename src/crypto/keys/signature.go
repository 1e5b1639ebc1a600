package keys

import (
	"crypto/ecdsa"
	"crypto/rand"
	"math/big"
)

const (
	scalarSize = 32
	// SignatureSize is the size of an encoded signature: R and S, each
	// left-padded to 32 bytes.
	SignatureSize = 2 * scalarSize
)

// Signature is the fixed-width encoding of an ECDSA signature.
type Signature [SignatureSize]byte

// Sign signs the data with the private key and the built-in pseudo-random
// generator rand.Reader.
func Sign(priv *ecdsa.PrivateKey, data []byte) (r, s *big.Int, err error) {
	return ecdsa.Sign(rand.Reader, priv, data)
}

// Verify verifies that a signature represented by r and s values, is a valid
// signature of the data by an owner of the private key associated with the
// provided public key.
func Verify(pub *ecdsa.PublicKey, data []byte, r, s *big.Int) bool {
	return ecdsa.Verify(pub, data, r, s)
}

// SignHash signs a message hash and returns the fixed-width signature.
// Signatures are normalized to the lower half of the curve order.
func SignHash(priv *ecdsa.PrivateKey, hash []byte) (Signature, error) {
	var sig Signature

	r, s, err := Sign(priv, hash)
	if err != nil {
		return sig, err
	}

	if s.Cmp(secp256k1halfN) > 0 {
		s = new(big.Int).Sub(secp256k1N, s)
	}

	copy(sig[:scalarSize], paddedBigBytes(r, scalarSize))
	copy(sig[scalarSize:], paddedBigBytes(s, scalarSize))

	return sig, nil
}

// VerifyHash reports whether sig is a valid signature of hash by the owner of
// pub. An invalid point never verifies.
func VerifyHash(pub PublicKey, hash []byte, sig Signature) bool {
	key, err := ToPublicKey(pub)
	if err != nil {
		return false
	}
	r := new(big.Int).SetBytes(sig[:scalarSize])
	s := new(big.Int).SetBytes(sig[scalarSize:])
	return Verify(key, hash, r, s)
}
