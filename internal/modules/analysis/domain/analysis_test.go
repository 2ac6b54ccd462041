package domain

import "testing"

func TestManifestValidate(t *testing.T) {
	t.Parallel()
	if err := (Manifest{Binary: "/bin/vision"}).Validate(); err != nil {
		t.Fatalf("expected checksum to be optional: %v", err)
	}
	if err := (Manifest{}).Validate(); err == nil {
		t.Fatalf("expected missing binary to fail")
	}
	if err := (Manifest{Binary: "/bin/vision", SHA256: "ABC"}).Validate(); err == nil {
		t.Fatalf("expected malformed checksum to fail")
	}
}

func TestResultRejectsNegativeCost(t *testing.T) {
	t.Parallel()
	if err := (Result{CostUnits: -1}).Validate(); err == nil {
		t.Fatalf("expected negative cost to fail")
	}
}
