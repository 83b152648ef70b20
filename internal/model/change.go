package model

import "time"

// EntityKind names the collection an entity lives in.
type EntityKind string

const (
	EntityJob   EntityKind = "job"
	EntitySpec  EntityKind = "spec"
	EntitySkill EntityKind = "skill"
	EntityDNA   EntityKind = "dna"
)

// Pass names a reconciliation invocation type.
type Pass string

const (
	PassReconcile Pass = "reconcile"
	PassCleanup   Pass = "cleanup"
	PassExtract   Pass = "extract"
)

// Change is one applied field mutation, kept for the audit journal. Old and
// New hold the JSON encoding of the field value.
type Change struct {
	Kind       EntityKind `json:"kind"`
	ParentID   string     `json:"parent_id"`
	EntityID   string     `json:"entity_id"`
	Field      string     `json:"field"`
	Old        string     `json:"old,omitempty"`
	New        string     `json:"new,omitempty"`
	Method     string     `json:"method,omitempty"`
	Confidence float64    `json:"confidence,omitempty"`
	// Source is the reference page a field value was read from.
	Source     string     `json:"source,omitempty"`
}

// Run is the journal record of one pass invocation.
type Run struct {
	ID         string     `json:"id"`
	Pass       Pass       `json:"pass"`
	StorePath  string     `json:"store_path"`
	DryRun     bool       `json:"dry_run"`
	Written    bool       `json:"written"`
	Changes    int        `json:"changes"`
	Summary    string     `json:"summary"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
