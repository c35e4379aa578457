// Package coordinator implements the subscription and request-pool state
// machine: account lifecycle, balance and concurrency invariants,
// request-ID derivation, pool capacity and expiry management, and the
// fulfilment entry point that drives the VRF verifier.
//
// The host ledger owns accounts one at a time, so every operation here is
// a plain function over pointers to in-memory account structs: there is
// no package-level mutable state, and callers are expected to hold
// whatever write lock their host runtime uses on the accounts passed in.
package coordinator

import "github.com/mangekyou-labs/kamui-sub000/internal/errors"

// Principal identifies an account-holding entity (owner, requester,
// subscription, oracle) by its 32-byte address.
type Principal [32]byte

// RequestID is the 32-byte identifier derived by deriveRequestID.
type RequestID [32]byte

// RequestStatus is the lifecycle state of a RandomnessRequest. Pending is
// the zero value; Pending -> {Fulfilled, Cancelled, Expired} are the only
// legal transitions.
type RequestStatus uint8

const (
	StatusPending RequestStatus = iota
	StatusFulfilled
	StatusCancelled
	StatusExpired
)

func (s RequestStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFulfilled:
		return "fulfilled"
	case StatusCancelled:
		return "cancelled"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Subscription is a funding account that owns one or more request pools
// and pays the fulfilment fee for every randomness request made against
// it.
type Subscription struct {
	ID             Principal
	Owner          Principal
	Balance        uint64
	MinBalance     uint64
	Confirmations  uint8
	ActiveRequests uint16
	MaxRequests    uint16
	RequestCounter uint64
	PoolIDs        []uint8
}

// RequestPool is a bounded collection of in-flight requests keyed by
// (subscription, pool_id). The order slice keeps requests in submission
// order and the backing map indexes them by ID, so fulfilment ordering and
// batch processing stay deterministic.
type RequestPool struct {
	SubscriptionRef Principal
	PoolID          uint8
	Capacity        uint16

	order    []RequestID
	requests map[RequestID]*RandomnessRequest

	// AssignedOracle is the oracle charged with servicing this pool, if
	// any has been designated; CleanExpiredRequests applies the expiry
	// reputation penalty to it.
	AssignedOracle *[32]byte
}

// NewRequestPool constructs an empty pool. capacity must be <= 512.
func NewRequestPool(subscriptionRef Principal, poolID uint8, capacity uint16) (*RequestPool, error) {
	if capacity > 512 {
		return nil, errors.InvalidParameter("pool capacity must be <= 512")
	}
	return &RequestPool{
		SubscriptionRef: subscriptionRef,
		PoolID:          poolID,
		Capacity:        capacity,
		requests:        make(map[RequestID]*RandomnessRequest),
	}, nil
}

// Size reports the number of requests currently tracked by the pool.
func (p *RequestPool) Size() uint16 {
	return uint16(len(p.order))
}

// Get looks up a request by ID.
func (p *RequestPool) Get(id RequestID) (*RandomnessRequest, bool) {
	r, ok := p.requests[id]
	return r, ok
}

// Requests returns the pool's requests in submission order. The returned
// slice must not be mutated by callers.
func (p *RequestPool) Requests() []*RandomnessRequest {
	out := make([]*RandomnessRequest, len(p.order))
	for i, id := range p.order {
		out[i] = p.requests[id]
	}
	return out
}

func (p *RequestPool) insert(r *RandomnessRequest) {
	p.order = append(p.order, r.RequestID)
	p.requests[r.RequestID] = r
}

// Restore rebuilds a pool's request set from a previously-decoded,
// order-preserving slice (internal/wire uses this to reload a pool from
// its wire encoding; the order/requests fields stay unexported so every
// other mutation path goes through insert and keeps the two in sync).
func (p *RequestPool) Restore(requests []*RandomnessRequest) {
	p.order = make([]RequestID, 0, len(requests))
	p.requests = make(map[RequestID]*RandomnessRequest, len(requests))
	for _, r := range requests {
		p.insert(r)
	}
}

// ActivePendingCount returns the number of Pending requests in the pool,
// the per-pool contribution to a subscription's active_requests count.
func (p *RequestPool) ActivePendingCount() uint16 {
	var n uint16
	for _, id := range p.order {
		if p.requests[id].Status == StatusPending {
			n++
		}
	}
	return n
}

// RandomnessRequest is a single request for randomness, tracked from
// submission through fulfilment, cancellation, or expiry.
type RandomnessRequest struct {
	RequestID        RequestID
	Requester        Principal
	SubscriptionRef  Principal
	PoolID           uint8
	Seed             [32]byte
	CallbackData     []byte
	NumWords         uint32
	Confirmations    uint8
	CallbackGasLimit uint64
	Status           RequestStatus
	CreatedAt        int64
	FulfilledAt      *int64
	Randomness       *[64]byte
}

// HostContext carries the environment inputs the host runtime provides:
// the current time and a recent ledger hash binding used in request-ID
// derivation to prevent grinding and replay.
type HostContext struct {
	Now              int64
	RecentLedgerHash [32]byte
}

// OracleLedger is the subset of the oracle registry the coordinator needs
// during fulfilment and expiry, kept as an interface here so this package
// never imports internal/registry (and registry does not import this
// package either).
type OracleLedger interface {
	// IsActiveOracle reports whether pubkey is registered and currently in
	// the active rotation set.
	IsActiveOracle(pubkey [32]byte) bool
	// RecordOutcome applies the fulfilment reputation delta: +1 on
	// success, -5 on a verifiable bad-proof failure.
	RecordOutcome(pubkey [32]byte, success bool) error
	// RecordExpiryPenalty applies the reputation delta charged to an
	// assigned oracle when a request it was meant to service expires
	// unfulfilled. This is a distinct, smaller penalty from RecordOutcome's
	// failure delta: a timeout is not the same as a proof that failed
	// verification.
	RecordExpiryPenalty(pubkey [32]byte) error
}

// Callback is the consumer callback invoked on fulfilment. Its business
// logic is the caller's concern; Kamui only guarantees it is invoked with
// the correct arguments, within callbackGasLimit, and that its failure
// cannot roll back fulfilment accounting.
type Callback interface {
	Fulfill(requestID RequestID, randomness [][32]byte, callbackData []byte, gasLimit uint64) error
}
