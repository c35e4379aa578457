package registry

import "testing"

func TestRegisterOracleRequiresMinStake(t *testing.T) {
	r := InitRegistry([32]byte{0xAD}, 1000, 10, 8)
	if err := r.RegisterOracle([32]byte{1}, 999); err == nil {
		t.Fatal("expected error for stake below minimum")
	}
	if err := r.RegisterOracle([32]byte{1}, 1000); err != nil {
		t.Fatalf("RegisterOracle: %v", err)
	}
}

func TestRegisterOracleDuplicateRejected(t *testing.T) {
	r := InitRegistry([32]byte{0xAD}, 0, 10, 8)
	if err := r.RegisterOracle([32]byte{1}, 0); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.RegisterOracle([32]byte{1}, 0); err == nil {
		t.Fatal("expected AlreadyExists for duplicate pubkey")
	}
}

func TestDeregisterOracleAuthority(t *testing.T) {
	admin := [32]byte{0xAD}
	pk := [32]byte{1}
	r := InitRegistry(admin, 0, 10, 8)
	_ = r.RegisterOracle(pk, 500)

	if _, err := r.DeregisterOracle(pk, [32]byte{0xFF}); err == nil {
		t.Fatal("expected Unauthorised for unrelated caller")
	}
	stake, err := r.DeregisterOracle(pk, admin)
	if err != nil {
		t.Fatalf("admin deregister: %v", err)
	}
	if stake != 500 {
		t.Fatalf("returned stake = %d, want 500", stake)
	}
	if _, ok := r.Get(pk); ok {
		t.Fatal("oracle still present after deregistration")
	}
}

func TestRotateOraclesTieBreak(t *testing.T) {
	r := InitRegistry([32]byte{0xAD}, 0, 10, 2)
	pkLow := [32]byte{0x01}
	pkMid := [32]byte{0x02}
	pkHigh := [32]byte{0x03}
	_ = r.RegisterOracle(pkHigh, 100)
	_ = r.RegisterOracle(pkMid, 100)
	_ = r.RegisterOracle(pkLow, 100)
	// All three tied on reputation (0), failed (0), and stake (100); the
	// top-2 by pubkey byte order should be pkLow and pkMid.

	if !r.RotateOracles(10) {
		t.Fatal("expected rotation to occur")
	}
	if !r.IsActiveOracle(pkLow) || !r.IsActiveOracle(pkMid) {
		t.Fatal("expected the two smallest pubkeys to be active")
	}
	if r.IsActiveOracle(pkHigh) {
		t.Fatal("expected the largest pubkey to be excluded from a K=2 rotation")
	}
}

func TestRotateOraclesIdempotentWithinWindow(t *testing.T) {
	r := InitRegistry([32]byte{0xAD}, 0, 100, 8)
	_ = r.RegisterOracle([32]byte{1}, 0)

	if !r.RotateOracles(50) {
		t.Fatal("expected first rotation at slot 50")
	}
	if r.RotateOracles(60) {
		t.Fatal("expected no rotation within the frequency window")
	}
	if !r.RotateOracles(151) {
		t.Fatal("expected rotation once the window elapses")
	}
}

func TestRecordOutcomeReputationClamped(t *testing.T) {
	r := InitRegistry([32]byte{0xAD}, 0, 10, 8)
	pk := [32]byte{1}
	_ = r.RegisterOracle(pk, 0)

	for i := 0; i < 2500; i++ {
		_ = r.RecordOutcome(pk, true)
	}
	entry, _ := r.Get(pk)
	if entry.Reputation != 1000 {
		t.Fatalf("reputation = %d, want clamped at 1000", entry.Reputation)
	}

	for i := 0; i < 500; i++ {
		_ = r.RecordOutcome(pk, false)
	}
	entry, _ = r.Get(pk)
	if entry.Reputation != -1000 {
		t.Fatalf("reputation = %d, want clamped at -1000", entry.Reputation)
	}
}

func TestRecordExpiryPenalty(t *testing.T) {
	r := InitRegistry([32]byte{0xAD}, 0, 10, 8)
	pk := [32]byte{1}
	_ = r.RegisterOracle(pk, 0)
	if err := r.RecordExpiryPenalty(pk); err != nil {
		t.Fatalf("RecordExpiryPenalty: %v", err)
	}
	entry, _ := r.Get(pk)
	if entry.Reputation != -1 {
		t.Fatalf("reputation = %d, want -1", entry.Reputation)
	}
}

func TestIsActiveOracleRequiresRotation(t *testing.T) {
	r := InitRegistry([32]byte{0xAD}, 0, 10, 8)
	pk := [32]byte{1}
	_ = r.RegisterOracle(pk, 0)
	if r.IsActiveOracle(pk) {
		t.Fatal("newly registered oracle should not be active before rotation")
	}
	r.RotateOracles(100)
	if !r.IsActiveOracle(pk) {
		t.Fatal("expected oracle to be active after rotation")
	}
}
