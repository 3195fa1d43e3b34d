// Package pipeline runs a complete version check over a manifest.
//
// Both the CLI and the HTTP API go through this package so that they share
// defaults, logging and failure semantics.
//
// # Stages
//
//  1. Check: look up both dependency sections concurrently
//  2. Apply: patch the manifest with every section that succeeded
//
// A failed section never blocks the other one. Its error is kept in the
// [Result] and it contributes nothing to the patched manifest.
//
// # Usage
//
//	runner, err := pipeline.New(ctx, cfg, logger)
//	defer runner.Close()
//
//	decl, _ := manifest.DeclaredSections(doc)
//	result := runner.Check(ctx, decl, pipeline.Options{Concurrency: 10})
//	if opts.Write {
//	    n, err := runner.Apply(ctx, doc, result)
//	}
//	if err := result.Err(); err != nil {
//	    // at least one section failed
//	}
package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bumper/pkg/deps"
	bumperrors "github.com/matzehuels/bumper/pkg/errors"
)

// Sections lists the checked manifest sections in report order.
var Sections = []string{deps.SectionDependencies, deps.SectionDevDependencies}

// Options configures a pipeline run.
type Options struct {
	Concurrency int    `json:"concurrency,omitempty"`
	KeepGoing   bool   `json:"keep_going,omitempty"`
	Refresh     bool   `json:"refresh,omitempty"`
	Only        string `json:"only,omitempty"` // Restrict to one section; empty checks both

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults fills in the default concurrency and rejects
// settings the checker cannot run with. Zero Concurrency means unset; the
// CLI and server reject an explicit zero before calling it.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Concurrency == 0 {
		o.Concurrency = deps.DefaultConcurrency
	}
	if o.Concurrency < 0 {
		return bumperrors.New(bumperrors.ErrCodeInvalidConfig, "concurrency must be positive, got %d", o.Concurrency)
	}
	if o.Only != "" && !slices.Contains(Sections, o.Only) {
		return bumperrors.New(bumperrors.ErrCodeInvalidConfig, "unknown section %q (want %s or %s)",
			o.Only, deps.SectionDependencies, deps.SectionDevDependencies)
	}
	return nil
}

// sections returns the sections selected by Only.
func (o Options) sections() []string {
	if o.Only != "" {
		return []string{o.Only}
	}
	return Sections
}

// SectionResult is the outcome of checking one section.
type SectionResult struct {
	Section   string
	Declared  int            // Entries declared in the section
	ChangeSet deps.ChangeSet // Valid only when Err is nil
	Err       error
	Duration  time.Duration
}

// OK reports whether the section was checked successfully.
func (s SectionResult) OK() bool { return s.Err == nil }

// Result contains the outputs of a pipeline run, one entry per section in
// [Sections] order.
type Result struct {
	Sections []SectionResult
}

// Section returns the result for name.
func (r *Result) Section(name string) (SectionResult, bool) {
	for _, s := range r.Sections {
		if s.Section == name {
			return s, true
		}
	}
	return SectionResult{}, false
}

// Successful returns the change sets of every section that succeeded.
func (r *Result) Successful() []deps.ChangeSet {
	var out []deps.ChangeSet
	for _, s := range r.Sections {
		if s.OK() {
			out = append(out, s.ChangeSet)
		}
	}
	return out
}

// ChangeCount returns the number of changes across successful sections.
func (r *Result) ChangeCount() int {
	n := 0
	for _, cs := range r.Successful() {
		n += len(cs.Changes)
	}
	return n
}

// FailureCount returns the number of individual lookups that failed in
// KeepGoing mode.
func (r *Result) FailureCount() int {
	n := 0
	for _, cs := range r.Successful() {
		n += len(cs.Failures)
	}
	return n
}

// Err joins the errors of every failed section, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, s := range r.Sections {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Section, s.Err))
		}
	}
	return errors.Join(errs...)
}

// Filter returns a copy of r whose successful change sets keep only the
// changes for which keep returns true. Failed sections are copied as is.
func (r *Result) Filter(keep func(section string, c deps.Change) bool) *Result {
	out := &Result{Sections: make([]SectionResult, len(r.Sections))}
	for i, s := range r.Sections {
		if s.OK() {
			s.ChangeSet = s.ChangeSet.Filter(func(c deps.Change) bool {
				return keep(s.Section, c)
			})
		}
		out.Sections[i] = s
	}
	return out
}
