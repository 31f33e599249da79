package quarter

import (
	"encoding/json"
	"strings"
)

// Slot is one quarterly maintenance entry of an equipment record.
type Slot struct {
	QuarterDate string `json:"quarter_date,omitempty"`
	Engineer    string `json:"engineer,omitempty"`

	// malformed marks a slot whose stored shape could not be read.
	malformed bool
}

// Performed reports whether an engineer has been recorded for the slot.
func (s Slot) Performed() bool {
	return strings.TrimSpace(s.Engineer) != ""
}

// Malformed reports whether the slot was decoded from an unreadable shape.
func (s Slot) Malformed() bool {
	return s.malformed
}

// UnmarshalJSON never fails: a slot that is not an object, or whose
// quarter_date is not a string, decodes as a malformed empty slot.
func (s *Slot) UnmarshalJSON(data []byte) error {
	*s = Slot{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		s.malformed = true
		return nil
	}

	if raw, ok := fields["quarter_date"]; ok {
		var v *string
		if err := json.Unmarshal(raw, &v); err != nil {
			s.malformed = true
			return nil
		}
		if v != nil {
			s.QuarterDate = *v
		}
	}

	if raw, ok := fields["engineer"]; ok {
		var v *string
		if err := json.Unmarshal(raw, &v); err == nil && v != nil {
			s.Engineer = *v
		}
	}
	return nil
}

// Record maps slot keys to slots. Missing keys are empty slots.
type Record map[Key]Slot

// Slot returns the slot stored under k, or an empty slot.
func (r Record) Slot(k Key) Slot {
	if r == nil {
		return Slot{}
	}
	return r[k]
}

// UnmarshalJSON keeps the four known slot keys and drops everything else.
// A value that is not an object decodes as an empty record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*r = Record{}
		return nil
	}

	rec := make(Record, len(Keys))
	for _, k := range Keys {
		v, ok := raw[string(k)]
		if !ok {
			continue
		}
		var slot Slot
		_ = slot.UnmarshalJSON(v)
		rec[k] = slot
	}
	*r = rec
	return nil
}

// Clone returns an independent copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
