package domain

// Payload types mirroring the tomato payload schema (version 0.1).
// These are what a submission carries: the battery sample to cycle and
// the sequence of electrochemical methods to apply to it.

// BatterySample identifies the physical cell a payload runs against.
type BatterySample struct {
	Name        string  `json:"name" yaml:"name"`
	CapacityMAh float64 `json:"capacity_mah,omitempty" yaml:"capacity,omitempty"`
	Chemistry   string  `json:"chemistry,omitempty" yaml:"chemistry,omitempty"`
}

// CyclingMethod is one step of an electrochemical program, e.g. an
// open-circuit hold or a constant-current charge.
type CyclingMethod struct {
	Device     string         `json:"device,omitempty" yaml:"device,omitempty"`
	Technique  string         `json:"technique" yaml:"technique"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// TomatoSettings are the scheduler-facing knobs of a payload.
type TomatoSettings struct {
	Verbosity      string `json:"verbosity,omitempty" yaml:"verbosity,omitempty"`
	UnlockWhenDone bool   `json:"unlock_when_done,omitempty" yaml:"unlock_when_done,omitempty"`
}

// CyclingPayload is the tomato payload schema object serialized into a
// submission script.
type CyclingPayload struct {
	Version string          `json:"version" yaml:"version"`
	Sample  BatterySample   `json:"sample" yaml:"sample"`
	Method  []CyclingMethod `json:"method" yaml:"method"`
	Tomato  *TomatoSettings `json:"tomato,omitempty" yaml:"tomato,omitempty"`
}
