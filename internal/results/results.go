// Package results parses the output artifacts the cycler writes for a
// finished job and runs capacity-fade analysis over them. Job state
// alone cannot distinguish a successful completion from a failed one;
// these artifacts are where the outcome lives.
package results

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// CyclingData holds the measurement series extracted from a job's raw
// output: one entry per data point for the signal arrays, one entry
// per cycle for the capacity arrays.
type CyclingData struct {
	// Time is the measurement timestamp in seconds since job start.
	Time []float64 `json:"time"`
	// Ewe is the working-electrode potential in volts.
	Ewe []float64 `json:"Ewe"`
	// Current is the applied current in amperes; positive while
	// charging, negative while discharging.
	Current []float64 `json:"I"`
	// Cycle is the zero-based cycle index of each data point.
	Cycle []int `json:"cycle"`

	// ChargeCapacity and DischargeCapacity are per-cycle capacities in
	// ampere-hours, either read from the document or integrated from
	// the current series.
	ChargeCapacity    []float64 `json:"Qc"`
	DischargeCapacity []float64 `json:"Qd"`
}

// ParseRaw decodes a raw cycler output document. If the document does
// not carry per-cycle capacities, they are integrated from the current
// series.
func ParseRaw(r io.Reader) (*CyclingData, error) {
	var data CyclingData
	dec := json.NewDecoder(r)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode cycling results: %w", err)
	}

	if len(data.Time) != len(data.Current) {
		return nil, fmt.Errorf("inconsistent cycling results: %d time points vs %d current points",
			len(data.Time), len(data.Current))
	}
	if len(data.Cycle) != 0 && len(data.Cycle) != len(data.Time) {
		return nil, fmt.Errorf("inconsistent cycling results: %d time points vs %d cycle indices",
			len(data.Time), len(data.Cycle))
	}

	if len(data.ChargeCapacity) == 0 && len(data.DischargeCapacity) == 0 && len(data.Time) > 0 {
		data.ChargeCapacity, data.DischargeCapacity = integrateCapacities(&data)
	}

	return &data, nil
}

// ParseFile opens and decodes a raw cycler output file.
func ParseFile(path string) (*CyclingData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()
	return ParseRaw(f)
}

// integrateCapacities computes per-cycle charge and discharge
// capacities by trapezoidal integration of the current series, in
// ampere-hours. Positive current accumulates into the charge capacity,
// negative into the discharge capacity.
func integrateCapacities(data *CyclingData) (qc, qd []float64) {
	cycles := 1
	for _, c := range data.Cycle {
		if c+1 > cycles {
			cycles = c + 1
		}
	}
	qc = make([]float64, cycles)
	qd = make([]float64, cycles)

	cycleOf := func(i int) int {
		if len(data.Cycle) == 0 {
			return 0
		}
		return data.Cycle[i]
	}

	for i := 1; i < len(data.Time); i++ {
		if cycleOf(i) != cycleOf(i-1) {
			// Half-open interval at a cycle boundary.
			continue
		}
		dt := data.Time[i] - data.Time[i-1]
		mean := (data.Current[i] + data.Current[i-1]) / 2
		charge := mean * dt / 3600.0
		c := cycleOf(i)
		if charge >= 0 {
			qc[c] += charge
		} else {
			qd[c] -= charge
		}
	}

	return qc, qd
}
