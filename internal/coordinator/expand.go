package coordinator

import (
	"crypto/sha512"
	"encoding/binary"
)

// ExpandRandomness derives numWords independent 32-byte words from a VRF
// output beta:
//
//	expand(beta, num_words)[i] = SHA-512(beta ‖ i)[0:32]  for i = 0 .. num_words-1
//
// i is encoded as a little-endian uint32, consistent with the
// little-endian convention used for every other multi-byte integer field
// on the wire. The result is byte-identical across calls and platforms
// for a fixed (beta, num_words) pair.
func ExpandRandomness(beta [64]byte, numWords uint32) [][32]byte {
	out := make([][32]byte, numWords)
	for i := uint32(0); i < numWords; i++ {
		h := sha512.New()
		h.Write(beta[:])
		var idx [4]byte
		binary.LittleEndian.PutUint32(idx[:], i)
		h.Write(idx[:])
		digest := h.Sum(nil)
		copy(out[i][:], digest[:32])
	}
	return out
}

// PackRandomness concatenates ExpandRandomness's words into the single
// 64-byte buffer FulfillRandomness stores on the request account. Only the
// first min(numWords, 2) words fit the fixed 64-byte Randomness field on
// RandomnessRequest; callers that need the full expansion for larger
// numWords should call ExpandRandomness directly, which is what the
// fulfilment callback invocation does.
func PackRandomness(words [][32]byte) [64]byte {
	var out [64]byte
	for i := 0; i < len(words) && i < 2; i++ {
		copy(out[i*32:(i+1)*32], words[i][:])
	}
	return out
}
