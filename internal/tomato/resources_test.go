package tomato

import (
	"errors"
	"testing"
)

func TestResourceSpec_Validate(t *testing.T) {
	if err := (ResourceSpec{}).Validate(); err != nil {
		t.Errorf("default spec rejected: %v", err)
	}
	if err := (ResourceSpec{Slots: 1}).Validate(); err != nil {
		t.Errorf("single-slot spec rejected: %v", err)
	}

	for _, slots := range []int{-1, 2, 8} {
		err := (ResourceSpec{Slots: slots}).Validate()
		if err == nil {
			t.Errorf("Validate with %d slots did not fail", slots)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("error = %T, want *ValidationError", err)
		}
	}
}

func TestResourceSpec_TotalSlots(t *testing.T) {
	if got := (ResourceSpec{}).TotalSlots(); got != 1 {
		t.Errorf("TotalSlots() = %d, want 1", got)
	}
}
