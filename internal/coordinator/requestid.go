package coordinator

import (
	"encoding/binary"
	"crypto/sha256"
)

// deriveRequestID computes a request's identifier:
//
//	request_id = H( seed ‖ requester ‖ subscription_ref ‖ pool_id ‖
//	               request_counter ‖ recent_ledger_hash )
//
// with H = SHA-256. requestCounter must be the post-increment value the
// caller is about to commit, and recentLedgerHash must come from the
// host, so that neither a grinding attacker nor a replayed transaction can
// predict or reuse a request ID.
func deriveRequestID(seed [32]byte, requester Principal, subscriptionRef Principal, poolID uint8, requestCounter uint64, recentLedgerHash [32]byte) RequestID {
	h := sha256.New()
	h.Write(seed[:])
	h.Write(requester[:])
	h.Write(subscriptionRef[:])
	h.Write([]byte{poolID})

	var counterBytes [8]byte
	binary.LittleEndian.PutUint64(counterBytes[:], requestCounter)
	h.Write(counterBytes[:])

	h.Write(recentLedgerHash[:])

	var out RequestID
	copy(out[:], h.Sum(nil))
	return out
}
