package model

// DefaultMaxLevel is the rank cap assigned to skills and DNA entries by the
// skeleton extraction when the calculator does not say otherwise.
const DefaultMaxLevel = 10

// Dataset is the canonical store document. Entity collections keyed by parent
// id; list order within a collection is source order.
type Dataset struct {
	Groups []Group               `json:"groups"`
	Jobs   map[string][]Job      `json:"jobs"`
	Skills map[string][]Skill    `json:"skills"`
	DNA    map[string][]DnaEntry `json:"dna"`
}

// Group is a race / faction.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Job is a first-tier class under a group.
type Job struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Specs []Spec `json:"specs"`
}

// Spec is a specialization; it owns skills and DNA entries.
type Spec struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Skill is an active ability belonging to a spec.
type Skill struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	MaxLevel    int                    `json:"maxLevel"`
	Requires    Requirements           `json:"requires,omitempty"`
	LvlReq      []int                  `json:"lvlReq,omitempty"`
	Info        *SkillInfo             `json:"info,omitempty"`
	Progression map[string][]StatValue `json:"progression,omitempty"`
}

// DnaEntry is a passive enhancement belonging to a spec.
type DnaEntry struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	MaxLevel int          `json:"maxLevel"`
	Requires Requirements `json:"requires,omitempty"`
	LvlReq   []int        `json:"lvlReq,omitempty"`
}

// SkillInfo is the flat record read from a wiki skill info table.
type SkillInfo struct {
	Type     string   `json:"type,omitempty"`
	Levels   *int     `json:"levels,omitempty"`
	CastTime string   `json:"cast_time,omitempty"`
	Cooldown string   `json:"cooldown,omitempty"`
	Weapons  []string `json:"weapons,omitempty"`
	Range    string   `json:"range,omitempty"`
	Target   string   `json:"target,omitempty"`
}

// Empty reports whether no mapped key carried a value.
func (i SkillInfo) Empty() bool {
	return i.Type == "" && i.Levels == nil && i.CastTime == "" && i.Cooldown == "" &&
		len(i.Weapons) == 0 && i.Range == "" && i.Target == ""
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{Groups: cloneSlice(d.Groups)}
	if d.Jobs != nil {
		out.Jobs = make(map[string][]Job, len(d.Jobs))
	}
	if d.Skills != nil {
		out.Skills = make(map[string][]Skill, len(d.Skills))
	}
	if d.DNA != nil {
		out.DNA = make(map[string][]DnaEntry, len(d.DNA))
	}
	for gid, jobs := range d.Jobs {
		cp := cloneSlice(jobs)
		for i, j := range jobs {
			cp[i].Specs = cloneSlice(j.Specs)
		}
		out.Jobs[gid] = cp
	}
	for sid, skills := range d.Skills {
		cp := cloneSlice(skills)
		for i, s := range skills {
			cp[i] = s.Clone()
		}
		out.Skills[sid] = cp
	}
	for sid, entries := range d.DNA {
		cp := cloneSlice(entries)
		for i, e := range entries {
			cp[i].Requires = e.Requires.Clone()
			cp[i].LvlReq = cloneSlice(e.LvlReq)
		}
		out.DNA[sid] = cp
	}
	return out
}

// Clone returns a deep copy of the skill.
func (s Skill) Clone() Skill {
	out := s
	out.Requires = s.Requires.Clone()
	out.LvlReq = cloneSlice(s.LvlReq)
	if s.Info != nil {
		info := *s.Info
		if s.Info.Levels != nil {
			lv := *s.Info.Levels
			info.Levels = &lv
		}
		info.Weapons = cloneSlice(s.Info.Weapons)
		out.Info = &info
	}
	if s.Progression != nil {
		out.Progression = make(map[string][]StatValue, len(s.Progression))
		for k, v := range s.Progression {
			out.Progression[k] = cloneSlice(v)
		}
	}
	return out
}

// cloneSlice copies in, keeping the nil / empty distinction so a cloned
// document serializes exactly like its source.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
