// Package registry implements the oracle registry and rotation policy:
// stake-weighted registration, reputation tracking, and deterministic
// rotation. It satisfies internal/coordinator's OracleLedger interface so
// the coordinator never imports this package directly.
package registry

import (
	"bytes"
	"sort"

	"github.com/mangekyou-labs/kamui-sub000/internal/errors"
)

const (
	// reputationMin and reputationMax bound OracleEntry.Reputation.
	reputationMin = -1000
	reputationMax = 1000

	reputationDeltaSuccess = 1
	reputationDeltaFailure = -5
	reputationDeltaExpiry  = -1
)

// OracleEntry is a single registered oracle's stake, reputation, and
// service history.
type OracleEntry struct {
	PubKey         [32]byte
	Stake          uint64
	Reputation     int32
	LastActiveSlot uint64
	Successful     uint64
	Failed         uint64
	// Active marks membership in the current rotation set. Being
	// registered and being in the active rotation set are distinct
	// states: an oracle must be both to fulfil requests.
	Active bool
}

// Registry tracks the set of registered oracles and runs the rotation
// that selects which of them are currently eligible to fulfil requests.
type Registry struct {
	Admin             [32]byte
	MinStake          uint64
	RotationFrequency uint64
	RotationCounter   uint64
	RotationSize      int
	lastRotationSlot  uint64

	order   [][32]byte
	oracles map[[32]byte]*OracleEntry
}

// InitRegistry implements init_registry.
func InitRegistry(admin [32]byte, minStake, rotationFrequency uint64, rotationSize int) *Registry {
	return &Registry{
		Admin:             admin,
		MinStake:          minStake,
		RotationFrequency: rotationFrequency,
		RotationSize:      rotationSize,
		oracles:           make(map[[32]byte]*OracleEntry),
	}
}

// RegisterOracle implements register_oracle.
func (r *Registry) RegisterOracle(pubkey [32]byte, stake uint64) error {
	if stake < r.MinStake {
		return errors.InvalidParameter("stake below registry minimum")
	}
	if _, exists := r.oracles[pubkey]; exists {
		return errors.AlreadyExists("oracle")
	}
	if len(r.order) >= 64 {
		return errors.InvalidParameter("oracle registry is at capacity")
	}
	r.oracles[pubkey] = &OracleEntry{PubKey: pubkey, Stake: stake}
	r.order = append(r.order, pubkey)
	return nil
}

// DeregisterOracle implements deregister_oracle. caller must be the
// registry admin or the oracle itself; it returns the oracle's stake for
// the host to refund.
func (r *Registry) DeregisterOracle(pubkey [32]byte, caller [32]byte) (uint64, error) {
	entry, ok := r.oracles[pubkey]
	if !ok {
		return 0, errors.NotFound("oracle")
	}
	if caller != r.Admin && caller != pubkey {
		return 0, errors.Unauthorised("deregistration requires admin or self authority")
	}
	delete(r.oracles, pubkey)
	for i, p := range r.order {
		if p == pubkey {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return entry.Stake, nil
}

// Get returns the entry for pubkey, if registered.
func (r *Registry) Get(pubkey [32]byte) (*OracleEntry, bool) {
	e, ok := r.oracles[pubkey]
	return e, ok
}

// Entries returns all registered oracles in registration order. The
// returned slice must not be mutated.
func (r *Registry) Entries() []*OracleEntry {
	out := make([]*OracleEntry, len(r.order))
	for i, p := range r.order {
		out[i] = r.oracles[p]
	}
	return out
}

// RotateOracles recomputes the active rotation set. It is permissionless
// and idempotent within a rotation window: the first call always rotates,
// and later calls rotate only once RotationFrequency slots have passed
// since the last rotation. It selects the top-K oracles ordered by
// (reputation desc, failed asc, stake desc), ties broken by ascending
// pubkey byte order, and marks exactly that set Active.
func (r *Registry) RotateOracles(currentSlot uint64) bool {
	if r.RotationCounter > 0 && currentSlot-r.lastRotationSlot < r.RotationFrequency {
		return false
	}

	entries := r.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Reputation != b.Reputation {
			return a.Reputation > b.Reputation
		}
		if a.Failed != b.Failed {
			return a.Failed < b.Failed
		}
		if a.Stake != b.Stake {
			return a.Stake > b.Stake
		}
		return bytes.Compare(a.PubKey[:], b.PubKey[:]) < 0
	})

	k := r.RotationSize
	if k > len(entries) {
		k = len(entries)
	}
	active := make(map[[32]byte]bool, k)
	for i := 0; i < k; i++ {
		active[entries[i].PubKey] = true
	}
	for _, e := range entries {
		e.Active = active[e.PubKey]
		if e.Active {
			e.LastActiveSlot = currentSlot
		}
	}

	r.lastRotationSlot = currentSlot
	r.RotationCounter++
	return true
}

// RecordOutcome is called only by the coordinator, during fulfilment, and
// applies the reputation delta and counters for a success/failure
// outcome.
func (r *Registry) RecordOutcome(pubkey [32]byte, success bool) error {
	entry, ok := r.oracles[pubkey]
	if !ok {
		return errors.NotFound("oracle")
	}
	if success {
		entry.Successful++
		entry.Reputation = clampReputation(entry.Reputation + reputationDeltaSuccess)
	} else {
		entry.Failed++
		entry.Reputation = clampReputation(entry.Reputation + reputationDeltaFailure)
	}
	return nil
}

// RecordExpiryPenalty applies the reputation delta charged to an assigned
// oracle when its request expires unfulfilled.
func (r *Registry) RecordExpiryPenalty(pubkey [32]byte) error {
	entry, ok := r.oracles[pubkey]
	if !ok {
		return errors.NotFound("oracle")
	}
	entry.Reputation = clampReputation(entry.Reputation + reputationDeltaExpiry)
	return nil
}

// IsActiveOracle implements the coordinator.OracleLedger contract: a
// pubkey must be both registered and marked Active by the most recent
// rotation.
func (r *Registry) IsActiveOracle(pubkey [32]byte) bool {
	entry, ok := r.oracles[pubkey]
	return ok && entry.Active
}

func clampReputation(v int32) int32 {
	if v < reputationMin {
		return reputationMin
	}
	if v > reputationMax {
		return reputationMax
	}
	return v
}
