// Package wire implements fixed binary encodings for Subscription,
// RequestPool, and RandomnessRequest, so a Kamui-embedding host can
// persist and reload account state byte-for-byte. Every multi-byte
// integer is little-endian.
package wire

import (
	"fmt"

	"github.com/mangekyou-labs/kamui-sub000/internal/coordinator"
	"github.com/mangekyou-labs/kamui-sub000/internal/errors"
)

// Discriminators tag each account's encoding so a decoder can reject a
// buffer of the wrong account type before trying to parse its fields.
var (
	DiscriminatorSubscription     = [8]byte{'K', 'S', 'U', 'B', 0, 0, 0, 1}
	DiscriminatorRequestPool      = [8]byte{'K', 'P', 'O', 'O', 'L', 0, 0, 1}
	DiscriminatorRandomnessRequest = [8]byte{'K', 'R', 'E', 'Q', 0, 0, 0, 1}
)

// EncodeSubscription encodes a Subscription as:
// discriminator(8) ‖ owner(32) ‖ balance(u64 LE) ‖ min_balance(u64 LE) ‖
// confirmations(u8) ‖ active_requests(u16 LE) ‖ max_requests(u16 LE) ‖
// request_counter(u64 LE) ‖ pool_ids(len u32 LE ‖ bytes).
func EncodeSubscription(s *coordinator.Subscription) []byte {
	buf := make([]byte, 0, 8+32+8+8+1+2+2+8+4+len(s.PoolIDs))
	buf = append(buf, DiscriminatorSubscription[:]...)
	buf = append(buf, s.Owner[:]...)
	buf = appendU64(buf, s.Balance)
	buf = appendU64(buf, s.MinBalance)
	buf = append(buf, s.Confirmations)
	buf = appendU16(buf, s.ActiveRequests)
	buf = appendU16(buf, s.MaxRequests)
	buf = appendU64(buf, s.RequestCounter)
	buf = appendU32(buf, uint32(len(s.PoolIDs)))
	buf = append(buf, s.PoolIDs...)
	return buf
}

// DecodeSubscription is the inverse of EncodeSubscription. The returned
// Subscription's ID is not part of the wire layout (it is the account's
// own address in a host that derives accounts by address); callers that
// need it must set it separately.
func DecodeSubscription(b []byte) (*coordinator.Subscription, error) {
	r := newReader(b)
	disc, err := r.fixed(8)
	if err != nil {
		return nil, err
	}
	if !bytesEqual(disc, DiscriminatorSubscription[:]) {
		return nil, errors.DecodeError("subscription", fmt.Errorf("unexpected discriminator"))
	}
	s := &coordinator.Subscription{}
	owner, err := r.fixed(32)
	if err != nil {
		return nil, err
	}
	copy(s.Owner[:], owner)
	if s.Balance, err = r.u64(); err != nil {
		return nil, err
	}
	if s.MinBalance, err = r.u64(); err != nil {
		return nil, err
	}
	if s.Confirmations, err = r.u8(); err != nil {
		return nil, err
	}
	if s.ActiveRequests, err = r.u16(); err != nil {
		return nil, err
	}
	if s.MaxRequests, err = r.u16(); err != nil {
		return nil, err
	}
	if s.RequestCounter, err = r.u64(); err != nil {
		return nil, err
	}
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	poolIDs, err := r.fixed(int(n))
	if err != nil {
		return nil, err
	}
	s.PoolIDs = append([]byte(nil), poolIDs...)
	return s, nil
}

// EncodeRequest encodes a RandomnessRequest in full.
func EncodeRequest(req *coordinator.RandomnessRequest) []byte {
	buf := make([]byte, 0, 8+32+32+32+1+32+4+1+8+1+8+8+64+4+len(req.CallbackData))
	buf = append(buf, DiscriminatorRandomnessRequest[:]...)
	buf = append(buf, req.RequestID[:]...)
	buf = append(buf, req.Requester[:]...)
	buf = append(buf, req.SubscriptionRef[:]...)
	buf = append(buf, req.PoolID)
	buf = append(buf, req.Seed[:]...)
	buf = appendU32(buf, req.NumWords)
	buf = append(buf, req.Confirmations)
	buf = appendU64(buf, req.CallbackGasLimit)
	buf = append(buf, byte(req.Status))
	buf = appendI64(buf, req.CreatedAt)

	var fulfilledAt int64
	if req.FulfilledAt != nil {
		fulfilledAt = *req.FulfilledAt
	}
	buf = appendI64(buf, fulfilledAt)

	var randomness [64]byte
	if req.Randomness != nil {
		randomness = *req.Randomness
	}
	buf = append(buf, randomness[:]...)

	buf = appendU32(buf, uint32(len(req.CallbackData)))
	buf = append(buf, req.CallbackData...)
	return buf
}

// DecodeRequest is the inverse of EncodeRequest.
func DecodeRequest(b []byte) (*coordinator.RandomnessRequest, error) {
	r := newReader(b)
	disc, err := r.fixed(8)
	if err != nil {
		return nil, err
	}
	if !bytesEqual(disc, DiscriminatorRandomnessRequest[:]) {
		return nil, errors.DecodeError("request", fmt.Errorf("unexpected discriminator"))
	}

	req := &coordinator.RandomnessRequest{}
	if v, err := r.fixed(32); err != nil {
		return nil, err
	} else {
		copy(req.RequestID[:], v)
	}
	if v, err := r.fixed(32); err != nil {
		return nil, err
	} else {
		copy(req.Requester[:], v)
	}
	if v, err := r.fixed(32); err != nil {
		return nil, err
	} else {
		copy(req.SubscriptionRef[:], v)
	}
	if req.PoolID, err = r.u8(); err != nil {
		return nil, err
	}
	if v, err := r.fixed(32); err != nil {
		return nil, err
	} else {
		copy(req.Seed[:], v)
	}
	if req.NumWords, err = r.u32(); err != nil {
		return nil, err
	}
	if req.Confirmations, err = r.u8(); err != nil {
		return nil, err
	}
	if req.CallbackGasLimit, err = r.u64(); err != nil {
		return nil, err
	}
	statusByte, err := r.u8()
	if err != nil {
		return nil, err
	}
	req.Status = coordinator.RequestStatus(statusByte)
	if req.CreatedAt, err = r.i64(); err != nil {
		return nil, err
	}
	fulfilledAt, err := r.i64()
	if err != nil {
		return nil, err
	}
	if fulfilledAt != 0 {
		v := fulfilledAt
		req.FulfilledAt = &v
	}
	randBytes, err := r.fixed(64)
	if err != nil {
		return nil, err
	}
	var isZero = true
	for _, b := range randBytes {
		if b != 0 {
			isZero = false
			break
		}
	}
	if !isZero {
		var rnd [64]byte
		copy(rnd[:], randBytes)
		req.Randomness = &rnd
	}
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	cb, err := r.fixed(int(n))
	if err != nil {
		return nil, err
	}
	req.CallbackData = append([]byte(nil), cb...)
	return req, nil
}

// EncodeRequestPool encodes a RequestPool as:
// discriminator(8) ‖ subscription_ref(32) ‖ pool_id(u8) ‖ capacity(u16 LE)
// ‖ size(u16 LE) ‖ entries(len u32 LE ‖ RequestEntry*). A pool owns its
// requests outright, so each RequestEntry is the entry's byte length
// (u32 LE) followed by the full RandomnessRequest encoding, rather than a
// separate reference record.
func EncodeRequestPool(p *coordinator.RequestPool) []byte {
	requests := p.Requests()
	buf := make([]byte, 0, 8+32+1+2+2+4)
	buf = append(buf, DiscriminatorRequestPool[:]...)
	buf = append(buf, p.SubscriptionRef[:]...)
	buf = append(buf, p.PoolID)
	buf = appendU16(buf, p.Capacity)
	buf = appendU16(buf, p.Size())
	buf = appendU32(buf, uint32(len(requests)))
	for _, req := range requests {
		entry := EncodeRequest(req)
		buf = appendU32(buf, uint32(len(entry)))
		buf = append(buf, entry...)
	}
	return buf
}

// DecodeRequestPool is the inverse of EncodeRequestPool.
func DecodeRequestPool(b []byte) (*coordinator.RequestPool, error) {
	r := newReader(b)
	disc, err := r.fixed(8)
	if err != nil {
		return nil, err
	}
	if !bytesEqual(disc, DiscriminatorRequestPool[:]) {
		return nil, errors.DecodeError("request_pool", fmt.Errorf("unexpected discriminator"))
	}

	var subRef coordinator.Principal
	v, err := r.fixed(32)
	if err != nil {
		return nil, err
	}
	copy(subRef[:], v)

	poolID, err := r.u8()
	if err != nil {
		return nil, err
	}
	capacity, err := r.u16()
	if err != nil {
		return nil, err
	}
	if _, err := r.u16(); err != nil { // size, recomputed from entries below
		return nil, err
	}
	count, err := r.u32()
	if err != nil {
		return nil, err
	}

	pool, err := coordinator.NewRequestPool(subRef, poolID, capacity)
	if err != nil {
		return nil, err
	}

	requests := make([]*coordinator.RandomnessRequest, 0, count)
	for i := uint32(0); i < count; i++ {
		entryLen, err := r.u32()
		if err != nil {
			return nil, err
		}
		entryBytes, err := r.fixed(int(entryLen))
		if err != nil {
			return nil, err
		}
		req, err := DecodeRequest(entryBytes)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	pool.Restore(requests)
	return pool, nil
}
