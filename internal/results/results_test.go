package results

import (
	"math"
	"strings"
	"testing"
)

func TestParseRaw_WithCapacities(t *testing.T) {
	doc := `{"Qc": [0.045, 0.044], "Qd": [0.044, 0.043]}`

	data, err := ParseRaw(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseRaw returned error: %v", err)
	}
	if len(data.ChargeCapacity) != 2 || data.ChargeCapacity[0] != 0.045 {
		t.Errorf("ChargeCapacity = %v", data.ChargeCapacity)
	}
	if len(data.DischargeCapacity) != 2 || data.DischargeCapacity[1] != 0.043 {
		t.Errorf("DischargeCapacity = %v", data.DischargeCapacity)
	}
}

func TestParseRaw_IntegratesCapacities(t *testing.T) {
	// One hour at +1 A, then one hour at -1 A, in a single cycle:
	// 1 Ah charged and 1 Ah discharged.
	doc := `{
		"time":  [0, 3600, 3600.001, 7200],
		"Ewe":   [3.0, 4.2, 4.2, 3.0],
		"I":     [1, 1, -1, -1],
		"cycle": [0, 0, 0, 0]
	}`

	data, err := ParseRaw(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseRaw returned error: %v", err)
	}
	if len(data.ChargeCapacity) != 1 {
		t.Fatalf("ChargeCapacity = %v, want one cycle", data.ChargeCapacity)
	}
	if math.Abs(data.ChargeCapacity[0]-1.0) > 1e-6 {
		t.Errorf("charge capacity = %f, want 1.0 Ah", data.ChargeCapacity[0])
	}
	if math.Abs(data.DischargeCapacity[0]-1.0) > 1e-3 {
		t.Errorf("discharge capacity = %f, want ~1.0 Ah", data.DischargeCapacity[0])
	}
}

func TestParseRaw_InconsistentArrays(t *testing.T) {
	doc := `{"time": [0, 1, 2], "I": [1, 1]}`
	if _, err := ParseRaw(strings.NewReader(doc)); err == nil {
		t.Error("ParseRaw accepted mismatched time/current arrays")
	}
}

func TestParseRaw_InvalidJSON(t *testing.T) {
	if _, err := ParseRaw(strings.NewReader("not json")); err == nil {
		t.Error("ParseRaw accepted invalid JSON")
	}
}

func TestAnalyze_HealthyCell(t *testing.T) {
	data := &CyclingData{DischargeCapacity: []float64{1.0, 0.99, 0.98, 0.97}}

	analysis, err := Analyze(data, DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if analysis.Degraded {
		t.Error("healthy cell reported as degraded")
	}
	if analysis.CyclesCompleted != 4 {
		t.Errorf("CyclesCompleted = %d, want 4", analysis.CyclesCompleted)
	}
	if analysis.RelativeCapacities[0] != 1.0 {
		t.Errorf("RelativeCapacities[0] = %f, want 1.0", analysis.RelativeCapacities[0])
	}
}

func TestAnalyze_DegradedCell(t *testing.T) {
	// Three consecutive cycles below 80% of first-cycle capacity.
	data := &CyclingData{DischargeCapacity: []float64{1.0, 0.9, 0.7, 0.6, 0.5}}

	analysis, err := Analyze(data, DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if !analysis.Degraded {
		t.Error("degraded cell not detected")
	}
	if len(analysis.BelowThresholdRuns) != 1 || analysis.BelowThresholdRuns[0] != 3 {
		t.Errorf("BelowThresholdRuns = %v, want [3]", analysis.BelowThresholdRuns)
	}
}

func TestAnalyze_TooFewCycles(t *testing.T) {
	// A short run below threshold is not enough data to call the cell
	// degraded.
	data := &CyclingData{DischargeCapacity: []float64{1.0, 0.5}}

	analysis, err := Analyze(data, DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if analysis.Degraded {
		t.Error("two-cycle run reported as degraded")
	}
}

func TestAnalyze_ChargeCapacities(t *testing.T) {
	data := &CyclingData{
		ChargeCapacity:    []float64{1.0, 0.5, 0.5, 0.5},
		DischargeCapacity: []float64{1.0, 1.0, 1.0, 1.0},
	}
	opts := DefaultAnalysisOptions()
	opts.Discharge = false

	analysis, err := Analyze(data, opts)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if !analysis.Degraded {
		t.Error("charge-capacity fade not detected with Discharge=false")
	}
}

func TestAnalyze_NoData(t *testing.T) {
	if _, err := Analyze(&CyclingData{}, DefaultAnalysisOptions()); err == nil {
		t.Error("Analyze accepted empty data")
	}
}

func TestAnalyze_ZeroFirstCycle(t *testing.T) {
	data := &CyclingData{DischargeCapacity: []float64{0, 1.0}}
	if _, err := Analyze(data, DefaultAnalysisOptions()); err == nil {
		t.Error("Analyze accepted zero first-cycle capacity")
	}
}
