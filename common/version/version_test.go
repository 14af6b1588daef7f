package version

import "testing"

func TestStringIsValidSemver(t *testing.T) {
	if String() != "0.1.0" {
		t.Fatalf("unexpected version string %q", String())
	}
}
