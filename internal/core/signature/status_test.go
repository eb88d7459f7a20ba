package signature

import (
	"encoding/json"
	"testing"
)

func TestDerive(t *testing.T) {
	owner := func(done bool) Signer { return Signer{Identifier: OwnerIdentifier, Completed: done} }
	resident := func(id string, done bool) Signer { return Signer{Identifier: id, Completed: done} }

	tests := []struct {
		name    string
		signers []Signer
		want    Status
	}{
		{"no data", nil, StatusPending},
		{"owner completed wins", []Signer{owner(true), resident("r1", false)}, StatusExecuted},
		{"owner completed alone", []Signer{owner(true)}, StatusExecuted},
		{"all residents completed", []Signer{resident("r1", true), resident("r2", true)}, StatusSigned},
		{"some residents completed", []Signer{resident("r1", true), resident("r2", false)}, StatusProcessing},
		{"no resident completed", []Signer{resident("r1", false)}, StatusProcessing},
		{"only owner pending", []Signer{owner(false)}, StatusSigned},
		{"owner pending residents done", []Signer{owner(false), resident("r1", true), resident("r2", true)}, StatusSigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(tt.signers); got != tt.want {
				t.Errorf("Derive = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveIsOrderIndependent(t *testing.T) {
	a := []Signer{{"r1", true}, {OwnerIdentifier, false}, {"r2", false}}
	b := []Signer{{"r2", false}, {"r1", true}, {OwnerIdentifier, false}}

	if Derive(a) != Derive(b) {
		t.Errorf("Derive depends on order: %q vs %q", Derive(a), Derive(b))
	}
}

func TestExtractSigners(t *testing.T) {
	tests := []struct {
		name     string
		snapshot string
		ok       bool
		count    int
	}{
		{"full", `{"esign":{"data":{"signers":{"data":[{"identifier":"owner","completed":false},{"identifier":"r1","completed":true}]}}}}`, true, 2},
		{"empty collection", `{"esign":{"data":{"signers":{"data":[]}}}}`, true, 0},
		{"missing esign", `{"id":5}`, false, 0},
		{"missing signers", `{"esign":{"data":{}}}`, false, 0},
		{"null collection", `{"esign":{"data":{"signers":{"data":null}}}}`, false, 0},
		{"signer missing flag", `{"esign":{"data":{"signers":{"data":[{"identifier":"r1"}]}}}}`, false, 0},
		{"wrong type", `{"esign":{"data":{"signers":{"data":"nope"}}}}`, false, 0},
		{"not an object", `[1,2]`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signers, ok := ExtractSigners(json.RawMessage(tt.snapshot))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if len(signers) != tt.count {
				t.Errorf("signers = %d, want %d", len(signers), tt.count)
			}
		})
	}
}

func TestStatusRank(t *testing.T) {
	order := []Status{StatusPending, StatusProcessing, StatusSigned, StatusExecuted}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%q should rank below %q", order[i-1], order[i])
		}
	}
	if Status("expired").Valid() {
		t.Error("unknown status reported valid")
	}
}
