// Package curve provides the Ristretto group and scalar-field primitives
// the VRF verifier is built on: canonical point/scalar decoding, scalar and
// point arithmetic, constant-time equality, and Elligator-based
// hash-to-curve. It is not allocation-free: encodings and hash digests are
// produced through ristretto255's and crypto/sha512's slice-returning
// calls, which allocate. Every comparison here runs in constant time with
// respect to secret-independent public inputs (verification never
// branches on a secret).
package curve

import (
	"crypto/sha512"

	"github.com/gtank/ristretto255"

	"github.com/mangekyou-labs/kamui-sub000/internal/errors"
)

// PointSize and ScalarSize are the canonical encoded lengths for the
// Ristretto group and its scalar field.
const (
	PointSize  = 32
	ScalarSize = 32
)

// Point is a Ristretto group element.
type Point struct {
	el *ristretto255.Element
}

// Scalar is an element of the scalar field modulo the group order ℓ.
type Scalar struct {
	sc *ristretto255.Scalar
}

// Base returns the Ristretto group generator B.
func Base() *Point {
	return &Point{el: ristretto255.NewElement().Base()}
}

// Identity returns the group identity element.
func Identity() *Point {
	return &Point{el: ristretto255.NewElement().Zero()}
}

// DecodePoint decodes a 32-byte compressed Ristretto point, rejecting any
// non-canonical encoding.
func DecodePoint(b []byte) (*Point, error) {
	if len(b) != PointSize {
		return nil, errors.DecodeError("point", errors.InvalidParameter("point must be 32 bytes"))
	}
	el := ristretto255.NewElement()
	if err := el.Decode(b); err != nil {
		return nil, errors.DecodeError("point", err)
	}
	return &Point{el: el}, nil
}

// Encode returns the 32-byte canonical compressed encoding of p.
func (p *Point) Encode() [PointSize]byte {
	var out [PointSize]byte
	copy(out[:], p.el.Encode(nil))
	return out
}

// DecodeScalar decodes a 32-byte little-endian scalar, rejecting
// non-canonical (unreduced) encodings.
func DecodeScalar(b []byte) (*Scalar, error) {
	if len(b) != ScalarSize {
		return nil, errors.DecodeError("scalar", errors.InvalidParameter("scalar must be 32 bytes"))
	}
	sc := ristretto255.NewScalar()
	if err := sc.Decode(b); err != nil {
		return nil, errors.DecodeError("scalar", err)
	}
	return &Scalar{sc: sc}, nil
}

// ScalarFromWideBytes reduces an arbitrary-length (≤ 64 byte) little-endian
// input modulo ℓ, used to derive scalars from a hash output (HashToScalar,
// and the test provers' secret keys and nonces) without requiring the
// caller to pre-reduce. Bytes beyond the first 64 are ignored.
func ScalarFromWideBytes(b []byte) *Scalar {
	var wide [64]byte
	copy(wide[:], b)
	sc := ristretto255.NewScalar().FromUniformBytes(wide[:])
	return &Scalar{sc: sc}
}

// Encode returns the 32-byte canonical little-endian encoding of s.
func (s *Scalar) Encode() [ScalarSize]byte {
	var out [ScalarSize]byte
	copy(out[:], s.sc.Encode(nil))
	return out
}

// Negate returns -s mod ℓ.
func (s *Scalar) Negate() *Scalar {
	return &Scalar{sc: ristretto255.NewScalar().Negate(s.sc)}
}

// Add returns s + t mod ℓ.
func (s *Scalar) Add(t *Scalar) *Scalar {
	return &Scalar{sc: ristretto255.NewScalar().Add(s.sc, t.sc)}
}

// Multiply returns s * t mod ℓ.
func (s *Scalar) Multiply(t *Scalar) *Scalar {
	return &Scalar{sc: ristretto255.NewScalar().Multiply(s.sc, t.sc)}
}

// Equal reports whether s and t are the same scalar, in constant time.
func (s *Scalar) Equal(t *Scalar) bool {
	return s.sc.Equal(t.sc) == 1
}

// Equal reports whether p and q encode the same group element, in constant
// time.
func (p *Point) Equal(q *Point) bool {
	return p.el.Equal(q.el) == 1
}

// Add returns p + q.
func (p *Point) Add(q *Point) *Point {
	return &Point{el: ristretto255.NewElement().Add(p.el, q.el)}
}

// Subtract returns p - q.
func (p *Point) Subtract(q *Point) *Point {
	return &Point{el: ristretto255.NewElement().Subtract(p.el, q.el)}
}

// Negate returns -p.
func (p *Point) Negate() *Point {
	return &Point{el: ristretto255.NewElement().Negate(p.el)}
}

// ScalarMult returns s·p (variable-base scalar multiplication).
func ScalarMult(s *Scalar, p *Point) *Point {
	return &Point{el: ristretto255.NewElement().ScalarMult(s.sc, p.el)}
}

// ScalarBaseMult returns s·B (fixed-base scalar multiplication).
func ScalarBaseMult(s *Scalar) *Point {
	return &Point{el: ristretto255.NewElement().ScalarBaseMult(s.sc)}
}

// DoubleScalarMult returns a·p + b·q, the combination the VRF verifier
// needs for U = s·B − c·pk and V = s·H − c·Γ.
func DoubleScalarMult(a *Scalar, p *Point, b *Scalar, q *Point) *Point {
	left := ScalarMult(a, p)
	right := ScalarMult(b, q)
	return left.Add(right)
}

// HashToScalar reduces a SHA-512 digest of input modulo ℓ; any domain
// separation must already be mixed into input by the caller. The VRF
// verifier does not use it: its challenge is a 16-byte truncated digest
// (see internal/vrf's computeChallenge).
func HashToScalar(input []byte) *Scalar {
	digest := sha512.Sum512(input)
	return ScalarFromWideBytes(digest[:])
}
