// Package batch implements ordered verification of multiple fulfilments
// within one atomic host transaction boundary, with per-item
// continue-on-failure semantics.
package batch

import (
	"github.com/google/uuid"

	"github.com/mangekyou-labs/kamui-sub000/internal/config"
	"github.com/mangekyou-labs/kamui-sub000/internal/coordinator"
	"github.com/mangekyou-labs/kamui-sub000/internal/errors"
	"github.com/mangekyou-labs/kamui-sub000/internal/logging"
)

// Entry is one fulfilment submitted as part of a batch.
type Entry struct {
	RequestID coordinator.RequestID
	Proof     []byte
	OraclePK  [32]byte
}

// Outcome records what happened to one batch entry. Err is nil for a
// successful fulfilment.
type Outcome struct {
	RequestID   coordinator.RequestID
	Err         error
	CallbackErr error
}

// MaxBatchSize is the transaction-size-derived ceiling on a single batch,
// taken from policy so it stays consistent with Kamui's other documented
// constants.
func MaxBatchSize(policy config.Policy) int {
	return policy.MaxBatchSize
}

// ProcessBatch verifies and applies a batch of fulfilments in order. A
// failure on entry i does not abort entries j > i: that request remains
// Pending and an Outcome carrying the error is recorded for it. The
// coordinator.FulfillRandomness calls inside this loop are exactly what a
// host would replay one at a time within the same transaction boundary,
// so the post-state after a partial-failure batch equals sequentially
// applying only the successful entries in the same order.
func ProcessBatch(
	sub *coordinator.Subscription,
	pool *coordinator.RequestPool,
	oracles coordinator.OracleLedger,
	cb coordinator.Callback,
	policy config.Policy,
	now int64,
	entries []Entry,
	log *logging.Logger,
) ([]Outcome, error) {
	if len(entries) > MaxBatchSize(policy) {
		return nil, errors.InvalidParameter("batch exceeds maximum size")
	}

	correlationID := uuid.NewString()
	outcomes := make([]Outcome, 0, len(entries))

	for _, e := range entries {
		cbErr, opErr := coordinator.FulfillRandomness(sub, pool, oracles, cb, policy, now, e.RequestID, e.Proof, e.OraclePK)
		outcome := Outcome{RequestID: e.RequestID, Err: opErr, CallbackErr: cbErr}
		outcomes = append(outcomes, outcome)

		if log != nil {
			entry := log.WithField("correlation_id", correlationID).
				WithField("request_id", e.RequestID)
			if opErr != nil {
				entry.WithError(opErr).Warn("batch entry failed")
			} else {
				entry.Info("batch entry fulfilled")
			}
		}
	}

	return outcomes, nil
}

// Successes filters outcomes down to the request IDs that fulfilled
// without error.
func Successes(outcomes []Outcome) []coordinator.RequestID {
	var out []coordinator.RequestID
	for _, o := range outcomes {
		if o.Err == nil {
			out = append(out, o.RequestID)
		}
	}
	return out
}
