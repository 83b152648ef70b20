package model

// Requirement is one prerequisite row: a job or skill name, a level, or both.
// ID is filled once the named entity resolves to a known id.
type Requirement struct {
	Name  string `json:"name,omitempty"`
	Level *int   `json:"level,omitempty"`
	ID    string `json:"id,omitempty"`
}

// Requirements maps a prerequisite row label ("job", "skill", ...) to its
// parsed requirement.
type Requirements map[string]Requirement

// Clone returns a deep copy.
func (r Requirements) Clone() Requirements {
	if r == nil {
		return nil
	}
	out := make(Requirements, len(r))
	for k, v := range r {
		if v.Level != nil {
			lv := *v.Level
			v.Level = &lv
		}
		out[k] = v
	}
	return out
}
