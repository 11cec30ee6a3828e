package tomato

// StateMapping maps tomato's native status tokens to the canonical
// JobState enum.
//
// tomato defines six statuses:
//
//	q  - queued; jobs should not stay here long, it indicates no
//	     pipeline can process the payload
//	qw - queued with a matching pipeline found, but the pipeline is
//	     busy, not ready, or without the correct sample
//	r  - running
//	c  - completed successfully
//	ce - completed with an error; output data not guaranteed
//	cd - cancelled; output data available as specified in the payload
//
// All three completed-family tokens map to StateDone: the canonical
// model only distinguishes queued/running/done, so success/failure
// discrimination has to come from the job's result artifacts.
type StateMapping struct {
	mappings map[string]JobState
}

// NewTomatoStateMapping creates the state mapper for tomato status
// tokens.
func NewTomatoStateMapping() *StateMapping {
	return &StateMapping{
		mappings: map[string]JobState{
			"q":  StateQueued,
			"qw": StateQueued,
			"r":  StateRunning,
			"c":  StateDone,
			"ce": StateDone,
			"cd": StateDone,
		},
	}
}

// MapState converts a native status token to the canonical JobState.
// The second return value is false for unrecognized tokens.
func (m *StateMapping) MapState(token string) (JobState, bool) {
	if state, ok := m.mappings[token]; ok {
		return state, true
	}
	return StateUndetermined, false
}

// NormalizeState converts a native status token to JobState, degrading
// unrecognized tokens to StateUndetermined. Total: it never fails,
// since one bad token must not invalidate an entire queue snapshot.
func (m *StateMapping) NormalizeState(token string) JobState {
	state, _ := m.MapState(token)
	return state
}
