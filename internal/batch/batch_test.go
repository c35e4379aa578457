package batch

import (
	"crypto/sha512"
	"testing"

	"github.com/mangekyou-labs/kamui-sub000/internal/config"
	"github.com/mangekyou-labs/kamui-sub000/internal/coordinator"
	"github.com/mangekyou-labs/kamui-sub000/internal/curve"
	"github.com/mangekyou-labs/kamui-sub000/internal/vrf"
)

type fakeOracleLedger struct {
	active map[[32]byte]bool
}

func (f *fakeOracleLedger) IsActiveOracle(pubkey [32]byte) bool               { return f.active[pubkey] }
func (f *fakeOracleLedger) RecordOutcome(pubkey [32]byte, success bool) error { return nil }
func (f *fakeOracleLedger) RecordExpiryPenalty(pubkey [32]byte) error         { return nil }

func hashWide(b []byte) []byte {
	sum := sha512.Sum512(b)
	return sum[:]
}

func prove(t *testing.T, skSeed, alpha []byte) (pk [32]byte, pi []byte) {
	t.Helper()
	x := curve.ScalarFromWideBytes(hashWide(skSeed))
	pkPoint := curve.ScalarBaseMult(x)
	pkEnc := pkPoint.Encode()

	htcInput := append(append([]byte{}, pkEnc[:]...), alpha...)
	h := curve.HashToCurve(vrf.SuiteID, htcInput)
	gamma := curve.ScalarMult(x, h)

	k := curve.ScalarFromWideBytes(hashWide(append(append([]byte{}, skSeed...), alpha...)))
	u := curve.ScalarBaseMult(k)
	v := curve.ScalarMult(k, h)

	hEnc := h.Encode()
	gammaEnc := gamma.Encode()
	uEnc := u.Encode()
	vEnc := v.Encode()
	hash := sha512.New()
	hash.Write([]byte{vrf.SuiteID, 0x02})
	hash.Write(pkEnc[:])
	hash.Write(hEnc[:])
	hash.Write(gammaEnc[:])
	hash.Write(uEnc[:])
	hash.Write(vEnc[:])
	digest := hash.Sum(nil)
	var c [16]byte
	copy(c[:], digest[:16])

	var cFull [curve.ScalarSize]byte
	copy(cFull[:16], c[:])
	cScalar, err := curve.DecodeScalar(cFull[:])
	if err != nil {
		t.Fatalf("decode challenge: %v", err)
	}
	s := k.Add(cScalar.Multiply(x))
	sEnc := s.Encode()

	proof := make([]byte, 0, vrf.ProofSize)
	proof = append(proof, gammaEnc[:]...)
	proof = append(proof, c[:]...)
	proof = append(proof, sEnc[:]...)

	copy(pk[:], pkEnc[:])
	return pk, proof
}

func TestProcessBatchPartialFailure(t *testing.T) {
	policy := config.Default()
	sub, _ := coordinator.CreateSubscription(coordinator.Principal{0xAA}, coordinator.Principal{1}, 0, 1, 10)
	_ = coordinator.FundSubscription(sub, 10_000_000)
	pool, _ := coordinator.CreateRequestPool(sub, 0, 10)
	host := coordinator.HostContext{Now: 1, RecentLedgerHash: [32]byte{0xEE}}

	var seedA, seedB, seedC [32]byte
	seedA[0], seedB[0], seedC[0] = 1, 2, 3

	idA, _ := coordinator.RequestRandomness(sub, pool, policy, host, coordinator.Principal{2}, seedA, nil, 1, 1, 0)
	idB, _ := coordinator.RequestRandomness(sub, pool, policy, host, coordinator.Principal{2}, seedB, nil, 1, 1, 0)
	idC, _ := coordinator.RequestRandomness(sub, pool, policy, host, coordinator.Principal{2}, seedC, nil, 1, 1, 0)

	pkA, proofA := prove(t, []byte("oracle-a"), append(append([]byte{}, seedA[:]...), idA[:]...))
	pkB, proofB := prove(t, []byte("oracle-b"), append(append([]byte{}, seedB[:]...), idB[:]...))
	proofB[len(proofB)-1] ^= 0xFF // corrupt entry B
	pkC, proofC := prove(t, []byte("oracle-c"), append(append([]byte{}, seedC[:]...), idC[:]...))

	ledger := &fakeOracleLedger{active: map[[32]byte]bool{pkA: true, pkB: true, pkC: true}}

	entries := []Entry{
		{RequestID: idA, Proof: proofA, OraclePK: pkA},
		{RequestID: idB, Proof: proofB, OraclePK: pkB},
		{RequestID: idC, Proof: proofC, OraclePK: pkC},
	}

	outcomes, err := ProcessBatch(sub, pool, ledger, nil, policy, 2, entries, nil)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	if outcomes[0].Err != nil {
		t.Fatalf("entry A should have succeeded: %v", outcomes[0].Err)
	}
	if outcomes[1].Err == nil {
		t.Fatal("entry B should have failed")
	}
	if outcomes[2].Err != nil {
		t.Fatalf("entry C should have succeeded: %v", outcomes[2].Err)
	}

	reqA, _ := pool.Get(idA)
	reqB, _ := pool.Get(idB)
	reqC, _ := pool.Get(idC)
	if reqA.Status != coordinator.StatusFulfilled {
		t.Fatal("A should be Fulfilled")
	}
	if reqB.Status != coordinator.StatusPending {
		t.Fatal("B should remain Pending")
	}
	if reqC.Status != coordinator.StatusFulfilled {
		t.Fatal("C should be Fulfilled")
	}
	if sub.ActiveRequests != 1 {
		t.Fatalf("active_requests = %d, want 1 (only B still pending)", sub.ActiveRequests)
	}

	successes := Successes(outcomes)
	if len(successes) != 2 || successes[0] != idA || successes[1] != idC {
		t.Fatalf("Successes() = %v, want [A, C] in submission order", successes)
	}
}

func TestProcessBatchRejectsOversizedBatch(t *testing.T) {
	policy := config.Default()
	sub, _ := coordinator.CreateSubscription(coordinator.Principal{0xAA}, coordinator.Principal{1}, 0, 1, 100)
	pool, _ := coordinator.CreateRequestPool(sub, 0, 100)
	ledger := &fakeOracleLedger{active: map[[32]byte]bool{}}

	entries := make([]Entry, policy.MaxBatchSize+1)
	if _, err := ProcessBatch(sub, pool, ledger, nil, policy, 1, entries, nil); err == nil {
		t.Fatal("expected error for oversized batch")
	}
}
