package snirf

import (
	"errors"
	"time"
)

// FieldFailure records a probe field whose copy failed.
type FieldFailure struct {
	Key    string `json:"key" yaml:"key" toml:"key"`
	Reason string `json:"reason" yaml:"reason" toml:"reason"`
	Err    error  `json:"-" yaml:"-" toml:"-"`
}

// Report describes the outcome of one reconciliation.
//
// All key lists are sorted. Copied lists keys written to the target (or, in a
// dry run, keys that would be written). Existing lists keys present in both
// stores, which are never touched. TargetOnly lists keys present only in the
// target, which are never deleted. Notes maps a copied key to a remark about
// how the target stores it, such as a scalar kept as a one-element array.
type Report struct {
	RunID        string            `json:"run_id" yaml:"run_id" toml:"run_id"`
	Source       string            `json:"source" yaml:"source" toml:"source"`
	Target       string            `json:"target" yaml:"target" toml:"target"`
	DryRun       bool              `json:"dry_run" yaml:"dry_run" toml:"dry_run"`
	GroupCreated bool              `json:"group_created" yaml:"group_created" toml:"group_created"`
	Copied       []string          `json:"copied" yaml:"copied" toml:"copied"`
	Notes        map[string]string `json:"notes,omitempty" yaml:"notes,omitempty" toml:"notes,omitempty"`
	Existing     []string          `json:"existing" yaml:"existing" toml:"existing"`
	TargetOnly   []string          `json:"target_only" yaml:"target_only" toml:"target_only"`
	Failed       []FieldFailure    `json:"failed" yaml:"failed" toml:"failed"`
	Unrecognized []string          `json:"unrecognized,omitempty" yaml:"unrecognized,omitempty" toml:"unrecognized,omitempty"`
	StartedAt    time.Time         `json:"started_at" yaml:"started_at" toml:"started_at"`
	FinishedAt   time.Time         `json:"finished_at" yaml:"finished_at" toml:"finished_at"`
}

// HasFailures reports whether any field copy failed.
func (r *Report) HasFailures() bool {
	return len(r.Failed) > 0
}

// Changed reports whether the run modified (or in a dry run, would modify)
// the target.
func (r *Report) Changed() bool {
	return len(r.Copied) > 0 || r.GroupCreated
}

// Err joins the per-field copy errors. It returns nil when every copy succeeded.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		if f.Err != nil {
			errs = append(errs, f.Err)
			continue
		}
		errs = append(errs, &CopyError{Key: f.Key, Err: errors.New(f.Reason)})
	}
	return errors.Join(errs...)
}

// note records a remark about a copied key.
func (r *Report) note(key, msg string) {
	if r.Notes == nil {
		r.Notes = make(map[string]string)
	}
	r.Notes[key] = msg
}

// Elapsed returns the wall time of the run.
func (r *Report) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
