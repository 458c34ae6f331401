package primitives_test

import (
	"strings"
	"testing"

	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
)

func TestSSZUint64_Limit(t *testing.T) {
	sszType := primitives.SSZUint64(0)
	serializedObj := [7]byte{}
	err := sszType.UnmarshalSSZ(serializedObj[:])
	if err == nil || !strings.Contains(err.Error(), "expected buffer of length") {
		t.Errorf("Expected Error = %s, got: %v", "expected buffer of length", err)
	}
}

func TestSSZUint64_RoundTrip(t *testing.T) {
	sszVal := primitives.SSZUint64(129)
	enc, err := sszVal.MarshalSSZ()
	if err != nil {
		t.Fatal(err)
	}
	var got primitives.SSZUint64
	if err := got.UnmarshalSSZ(enc); err != nil {
		t.Fatal(err)
	}
	if got != sszVal {
		t.Errorf("got %d, wanted %d", got, sszVal)
	}
}

func TestSlot_SafeSub(t *testing.T) {
	if _, err := primitives.Slot(3).SafeSub(4); err == nil {
		t.Error("expected underflow error")
	}
	res, err := primitives.Slot(10).SafeSub(4)
	if err != nil {
		t.Fatal(err)
	}
	if res != 6 {
		t.Errorf("got %d, wanted 6", res)
	}
}
