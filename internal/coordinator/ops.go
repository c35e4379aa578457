package coordinator

import (
	"github.com/mangekyou-labs/kamui-sub000/internal/config"
	"github.com/mangekyou-labs/kamui-sub000/internal/errors"
	"github.com/mangekyou-labs/kamui-sub000/internal/hexutil"
	"github.com/mangekyou-labs/kamui-sub000/internal/vrf"
)

// CreateSubscription allocates a new, unfunded subscription account.
func CreateSubscription(id, owner Principal, minBalance uint64, confirmations uint8, maxRequests uint16) (*Subscription, error) {
	if confirmations == 0 {
		return nil, errors.ZeroConfirmations()
	}
	if maxRequests == 0 {
		return nil, errors.InvalidParameter("max_requests must be > 0")
	}
	return &Subscription{
		ID:            id,
		Owner:         owner,
		MinBalance:    minBalance,
		Confirmations: confirmations,
		MaxRequests:   maxRequests,
	}, nil
}

// FundSubscription credits amount to a subscription's balance. Any
// principal may fund a subscription; the deposit itself is enforced by the
// host runtime, so this call only performs the checked-arithmetic balance
// update.
func FundSubscription(sub *Subscription, amount uint64) error {
	newBalance := sub.Balance + amount
	if newBalance < sub.Balance {
		return errors.BalanceOverflow()
	}
	sub.Balance = newBalance
	return nil
}

// CreateRequestPool adds a new, empty request pool to sub. Callers must
// already have authenticated caller == sub.Owner; that check is a
// host/signer concern and is out of scope for this pure state-transition
// function — principals are checked by whoever holds the host's signer
// authentication, not hard-coded here.
func CreateRequestPool(sub *Subscription, poolID uint8, capacity uint16) (*RequestPool, error) {
	for _, existing := range sub.PoolIDs {
		if existing == poolID {
			return nil, errors.AlreadyExists("pool")
		}
	}
	pool, err := NewRequestPool(sub.ID, poolID, capacity)
	if err != nil {
		return nil, err
	}
	sub.PoolIDs = append(sub.PoolIDs, poolID)
	return pool, nil
}

// RequestRandomness validates and admits a new randomness request. On
// success it returns the derived request ID and has already inserted the
// Pending request into pool and updated sub/pool counters.
func RequestRandomness(
	sub *Subscription,
	pool *RequestPool,
	policy config.Policy,
	host HostContext,
	requester Principal,
	seed [32]byte,
	callbackData []byte,
	numWords uint32,
	confirmations uint8,
	callbackGasLimit uint64,
) (RequestID, error) {
	var zero RequestID

	if sub.Balance < sub.MinBalance {
		return zero, errors.InsufficientBalance(sub.MinBalance, sub.Balance)
	}
	if sub.ActiveRequests >= sub.MaxRequests {
		return zero, errors.SubscriptionAtCapacity()
	}
	if pool.Size() >= pool.Capacity {
		return zero, errors.PoolFull(pool.PoolID)
	}
	if numWords == 0 {
		return zero, errors.InvalidParameter("num_words must be at least 1")
	}
	if numWords > policy.MaxWords {
		return zero, errors.TooManyWords(numWords, policy.MaxWords)
	}
	if len(callbackData) > policy.MaxCallbackData {
		return zero, errors.CallbackDataTooLarge(len(callbackData), policy.MaxCallbackData)
	}
	if confirmations == 0 {
		return zero, errors.ZeroConfirmations()
	}

	nextCounter := sub.RequestCounter + 1
	if nextCounter < sub.RequestCounter {
		return zero, errors.CounterOverflow()
	}

	requestID := deriveRequestID(seed, requester, sub.ID, pool.PoolID, nextCounter, host.RecentLedgerHash)

	cbCopy := make([]byte, len(callbackData))
	copy(cbCopy, callbackData)

	req := &RandomnessRequest{
		RequestID:        requestID,
		Requester:        requester,
		SubscriptionRef:  sub.ID,
		PoolID:           pool.PoolID,
		Seed:             seed,
		CallbackData:     cbCopy,
		NumWords:         numWords,
		Confirmations:    confirmations,
		CallbackGasLimit: callbackGasLimit,
		Status:           StatusPending,
		CreatedAt:        host.Now,
	}

	sub.RequestCounter = nextCounter
	pool.insert(req)
	sub.ActiveRequests++

	return requestID, nil
}

// FulfillRandomness verifies an oracle's VRF proof for a pending request
// and, on success, expands the VRF output into randomness words, settles
// the fulfilment fee, and invokes the consumer callback. VRF verification
// failure records the oracle's failed outcome and aborts before the
// request or subscription is mutated; callback failure is observable to
// the caller via the returned error but never reverses the accounting
// already committed.
func FulfillRandomness(
	sub *Subscription,
	pool *RequestPool,
	oracles OracleLedger,
	cb Callback,
	policy config.Policy,
	now int64,
	requestID RequestID,
	proof []byte,
	oraclePK [32]byte,
) (callbackErr error, opErr error) {
	req, ok := pool.Get(requestID)
	if !ok {
		return nil, errors.NotFound("request")
	}
	if req.Status != StatusPending {
		return nil, errors.NotPending(hexRequestID(requestID))
	}
	if !oracles.IsActiveOracle(oraclePK) {
		return nil, errors.UnregisteredOracle(hexRequestID(RequestID(oraclePK)))
	}

	fee := policy.Fee(req.NumWords)
	if sub.Balance < fee {
		return nil, errors.InsufficientBalance(fee, sub.Balance)
	}

	seedBinding := make([]byte, 0, 64)
	seedBinding = append(seedBinding, req.Seed[:]...)
	seedBinding = append(seedBinding, requestID[:]...)

	beta, err := vrf.Verify(oraclePK[:], seedBinding, proof)
	if err != nil {
		_ = oracles.RecordOutcome(oraclePK, false)
		return nil, err
	}

	words := ExpandRandomness(beta, req.NumWords)
	packed := PackRandomness(words)

	req.Status = StatusFulfilled
	fulfilledAt := now
	req.FulfilledAt = &fulfilledAt
	req.Randomness = &packed

	sub.ActiveRequests--
	sub.Balance -= fee

	if err := oracles.RecordOutcome(oraclePK, true); err != nil {
		return nil, err
	}

	if cb != nil {
		if err := cb.Fulfill(requestID, words, req.CallbackData, req.CallbackGasLimit); err != nil {
			// Callback failures are observable but are not coordinator
			// errors: the request is already Fulfilled and accounting
			// already committed above.
			return err, nil
		}
	}

	return nil, nil
}

// CleanExpiredRequests sweeps pool for Pending requests whose expiry
// window has elapsed and marks them Expired. It is permissionless,
// best-effort, and idempotent: per-request errors are treated as warnings
// and do not abort the sweep.
func CleanExpiredRequests(sub *Subscription, pool *RequestPool, oracles OracleLedger, policy config.Policy, now int64) []RequestID {
	var expired []RequestID
	for _, req := range pool.Requests() {
		if req.Status != StatusPending {
			continue
		}
		if now-req.CreatedAt <= int64(policy.ExpiryWindow.Seconds()) {
			continue
		}
		req.Status = StatusExpired
		if sub.ActiveRequests > 0 {
			sub.ActiveRequests--
		}
		if pool.AssignedOracle != nil {
			_ = oracles.RecordExpiryPenalty(*pool.AssignedOracle)
		}
		expired = append(expired, req.RequestID)
	}
	return expired
}

// CancelRequest transitions a Pending request to Cancelled. Only the
// subscription owner may cancel a request.
func CancelRequest(sub *Subscription, pool *RequestPool, requestID RequestID, caller Principal) error {
	if caller != sub.Owner {
		return errors.Unauthorised("only the subscription owner may cancel a request")
	}
	req, ok := pool.Get(requestID)
	if !ok {
		return errors.NotFound("request")
	}
	if req.Status != StatusPending {
		return errors.NotPending(hexRequestID(requestID))
	}
	req.Status = StatusCancelled
	if sub.ActiveRequests > 0 {
		sub.ActiveRequests--
	}
	return nil
}

func hexRequestID(id RequestID) string {
	return hexutil.Encode(id[:])
}
