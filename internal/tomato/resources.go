package tomato

// ResourceSpec describes the resources requested for a job. tomato has
// no notion of CPU, memory or node counts: every job occupies a single
// implicit pipeline slot. The spec exists so submission goes through
// the same validate-or-reject step as richer schedulers.
type ResourceSpec struct {
	// Slots is the number of pipeline slots requested. Zero means the
	// tool default; anything other than 0 or 1 is rejected.
	Slots int
}

// Validate checks the spec against what tomato can honor.
func (r ResourceSpec) Validate() error {
	if r.Slots < 0 {
		return &ValidationError{Field: "slots", Reason: "must not be negative"}
	}
	if r.Slots > 1 {
		return &ValidationError{Field: "slots", Reason: "tomato runs every job on a single pipeline slot"}
	}
	return nil
}

// TotalSlots reports the total capacity a validated spec requests,
// which for tomato is always one slot.
func (r ResourceSpec) TotalSlots() int {
	return 1
}
