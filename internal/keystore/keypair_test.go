package keystore

import (
	"testing"
	"time"
)

func TestKeyPair_IsParty(t *testing.T) {
	kp := &KeyPair{ClinicianID: "DR001", PatientID: "PT001"}

	for _, id := range []string{"DR001", "dr001", "PT001", "pt001"} {
		if !kp.IsParty(id) {
			t.Errorf("Expected %q to be a party", id)
		}
	}
	for _, id := range []string{"PT002", "", "DR0011"} {
		if kp.IsParty(id) {
			t.Errorf("Expected %q not to be a party", id)
		}
	}
}

func TestKeyPair_CounterpartOf(t *testing.T) {
	kp := &KeyPair{ClinicianID: "DR001", PatientID: "PT001"}

	if got := kp.CounterpartOf("dr001"); got != "PT001" {
		t.Errorf("Expected PT001, got %q", got)
	}
	if got := kp.CounterpartOf("PT001"); got != "DR001" {
		t.Errorf("Expected DR001, got %q", got)
	}
	if got := kp.CounterpartOf("PT002"); got != "" {
		t.Errorf("Expected empty counterpart for a non-party, got %q", got)
	}
}

func TestKeyPair_Usable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name   string
		kp     KeyPair
		usable bool
	}{
		{"active without expiry", KeyPair{State: StateActive}, true},
		{"active before expiry", KeyPair{State: StateActive, ExpiresAt: &future}, true},
		{"active past expiry", KeyPair{State: StateActive, ExpiresAt: &past}, false},
		{"inactive", KeyPair{State: StateInactive}, false},
		{"revoked", KeyPair{State: StateRevoked}, false},
	}

	for _, tc := range cases {
		if got := tc.kp.Usable(now); got != tc.usable {
			t.Errorf("%s: expected usable=%v, got %v", tc.name, tc.usable, got)
		}
	}
}
