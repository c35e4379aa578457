// Package vrf implements ECVRF proof verification over the Ristretto
// group: ECVRF-RISTRETTO255-SHA512-ELL2. Verification is not
// allocation-free: Verify builds pk ‖ alpha in a slice sized to alpha, and
// the SHA-512 and point-encoding calls it makes return allocated slices.
// It never branches on secret data — there is no secret in a verify call.
package vrf

import (
	"crypto/sha512"

	"github.com/mangekyou-labs/kamui-sub000/internal/curve"
	"github.com/mangekyou-labs/kamui-sub000/internal/errors"
)

// SuiteID identifies the ECVRF ciphersuite Kamui adopts:
// ECVRF-RISTRETTO255-SHA512-ELL2. Raw Ed25519 signatures are never
// accepted in its place.
const SuiteID byte = 0x04

// Domain-separator bytes mixed into the challenge and proof-to-hash
// computations.
const (
	challengeDomain   = 0x02
	proofToHashDomain = 0x03
)

// ProofSize is the wire length of an encoded proof: Γ(32) ‖ c(16) ‖ s(32).
const ProofSize = 80

const (
	gammaSize = 32
	cSize     = 16
	sSize     = 32
)

// BetaSize is the length of the VRF output.
const BetaSize = 64

// Proof is a decoded ECVRF proof π = (Γ, c, s).
type Proof struct {
	Gamma *curve.Point
	C     *curve.Scalar // the full-width scalar holding the 16-byte challenge, zero-padded
	S     *curve.Scalar
	cRaw  [cSize]byte
}

// DecodeProof parses an 80-byte wire-format proof, rejecting any input of
// the wrong length or any non-canonical point/scalar encoding within it.
func DecodeProof(pi []byte) (*Proof, error) {
	if len(pi) != ProofSize {
		return nil, errors.DecodeError("proof", errors.InvalidParameter("proof must be exactly 80 bytes"))
	}

	gammaBytes := pi[0:gammaSize]
	cBytes := pi[gammaSize : gammaSize+cSize]
	sBytes := pi[gammaSize+cSize : gammaSize+cSize+sSize]

	gamma, err := curve.DecodePoint(gammaBytes)
	if err != nil {
		return nil, err
	}

	var cPadded [curve.ScalarSize]byte
	copy(cPadded[:cSize], cBytes)
	c, err := curve.DecodeScalar(cPadded[:])
	if err != nil {
		return nil, err
	}

	var sArr [sSize]byte
	copy(sArr[:], sBytes)
	s, err := curve.DecodeScalar(sArr[:])
	if err != nil {
		return nil, err
	}

	var cRaw [cSize]byte
	copy(cRaw[:], cBytes)

	return &Proof{Gamma: gamma, C: c, S: s, cRaw: cRaw}, nil
}

// Verify checks a VRF proof: decode pk and Γ, recompute the challenge c'
// from (pk, H, Γ, U, V), and accept iff c' == c. On acceptance it returns
// beta = SHA-512(suite_id ‖ 0x03 ‖ Γ).
//
// Verify is deterministic and idempotent: identical inputs always yield
// the identical verdict and, on success, the identical beta.
func Verify(pkBytes []byte, alpha []byte, piBytes []byte) ([BetaSize]byte, error) {
	var beta [BetaSize]byte

	pk, err := curve.DecodePoint(pkBytes)
	if err != nil {
		return beta, err
	}

	proof, err := DecodeProof(piBytes)
	if err != nil {
		return beta, err
	}

	htcInput := make([]byte, 0, len(pkBytes)+len(alpha))
	htcInput = append(htcInput, pkBytes...)
	htcInput = append(htcInput, alpha...)
	h := curve.HashToCurve(SuiteID, htcInput)

	// U = s·B − c·pk
	negC := proof.C.Negate()
	u := curve.DoubleScalarMult(proof.S, curve.Base(), negC, pk)

	// V = s·H − c·Γ
	v := curve.DoubleScalarMult(proof.S, h, negC, proof.Gamma)

	cPrime := computeChallenge(pkBytes, h, proof.Gamma, u, v)

	if !bytesEqualConstantTime(cPrime[:], proof.cRaw[:]) {
		return beta, errors.BadProof()
	}

	beta = proofToHash(proof.Gamma)
	return beta, nil
}

// computeChallenge computes c' =
// H_c(suite_id ‖ 0x02 ‖ pk ‖ H ‖ Γ ‖ U ‖ V) truncated to 16 bytes.
func computeChallenge(pkBytes []byte, h, gamma, u, v *curve.Point) [cSize]byte {
	hEnc := h.Encode()
	gammaEnc := gamma.Encode()
	uEnc := u.Encode()
	vEnc := v.Encode()

	hash := sha512.New()
	hash.Write([]byte{SuiteID, challengeDomain})
	hash.Write(pkBytes)
	hash.Write(hEnc[:])
	hash.Write(gammaEnc[:])
	hash.Write(uEnc[:])
	hash.Write(vEnc[:])
	digest := hash.Sum(nil)

	var out [cSize]byte
	copy(out[:], digest[:cSize])
	return out
}

// proofToHash computes beta = SHA-512(suite_id ‖ 0x03 ‖ Γ).
func proofToHash(gamma *curve.Point) [BetaSize]byte {
	gammaEnc := gamma.Encode()
	hash := sha512.New()
	hash.Write([]byte{SuiteID, proofToHashDomain})
	hash.Write(gammaEnc[:])
	var out [BetaSize]byte
	copy(out[:], hash.Sum(nil))
	return out
}

// bytesEqualConstantTime compares two equal-length byte slices without
// branching on their contents.
func bytesEqualConstantTime(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
