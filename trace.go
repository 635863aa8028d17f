package states

import "encoding/json"

// Trace records how a registry resolve walked the active scopes.
type Trace struct {
	Type   string  `json:"type"`
	Probes []Probe `json:"probes"`
}

// Probe describes a single scope visited during a traced resolve. Position is
// the scope's index in registration order (0 is the oldest).
type Probe struct {
	ScopeID   string `json:"scope_id"`
	ScopeName string `json:"scope_name,omitempty"`
	Position  int    `json:"position"`
	Found     bool   `json:"found"`
}

// Matched returns the probe that satisfied the resolve.
func (t Trace) Matched() (Probe, bool) {
	for _, probe := range t.Probes {
		if probe.Found {
			return probe, true
		}
	}
	return Probe{}, false
}

// ToJSON serialises the trace into JSON for logging or devtools.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
