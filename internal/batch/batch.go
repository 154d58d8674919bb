// Package batch drives sequential bulk project creation and aggregates the
// per-project outcomes.
package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gcp-project-forge/internal/diag"
	"gcp-project-forge/internal/models"
	"gcp-project-forge/internal/naming"
	"gcp-project-forge/internal/platform"
)

// Params are the already-parsed batch parameters.
type Params struct {
	// StartNumber is the first project number, 1-12.
	StartNumber int
	// Count is how many projects to create, 1-12.
	Count int
	// BillingAccountID optionally links every created project to a billing
	// account.
	BillingAccountID string
}

// Accepted range for both the start number and the project count.
const (
	MinNumber = 1
	MaxNumber = 12
)

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.StartNumber < MinNumber || p.StartNumber > MaxNumber {
		return fmt.Errorf("start number %d out of range: must be between %d and %d", p.StartNumber, MinNumber, MaxNumber)
	}
	if p.Count < MinNumber || p.Count > MaxNumber {
		return fmt.Errorf("project count %d out of range: must be between %d and %d", p.Count, MinNumber, MaxNumber)
	}
	return nil
}

// Result is the ordered set of outcomes for one batch run.
type Result struct {
	// RunID identifies this batch run in diagnostics.
	RunID string
	// Outcomes holds one entry per requested project, in request order.
	Outcomes []models.Outcome
}

// Created returns the records of all successfully created projects, in
// request order.
func (r Result) Created() []models.ProjectRecord {
	var recs []models.ProjectRecord
	for _, o := range r.Outcomes {
		if o.OK() {
			recs = append(recs, *o.Project)
		}
	}
	return recs
}

// FailureCount returns how many attempts failed.
func (r Result) FailureCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Runner creates projects one at a time: derive a display name, generate a
// random valid project ID, run the creator, record the outcome. A failed
// attempt never aborts the batch.
type Runner struct {
	Creator *platform.Creator
	Names   naming.Generator
	Sink    diag.Sink
}

// Run executes the batch and returns the ordered result. It returns an error
// only for invalid parameters; creation failures are reported inside the
// result.
func (r *Runner) Run(ctx context.Context, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{RunID: uuid.New().String()}
	r.sink().BatchStarted(res.RunID, p.StartNumber, p.Count)

	for i := 0; i < p.Count; i++ {
		number := p.StartNumber + i
		name := fmt.Sprintf("project%02d", number)
		id := r.Names.Generate(name + "-")

		out := r.Creator.Create(ctx, models.CreationRequest{
			ProjectID:        id,
			DisplayName:      name,
			BillingAccountID: p.BillingAccountID,
		})
		res.Outcomes = append(res.Outcomes, out)
	}

	r.sink().Summary(res.RunID, res.Created(), res.FailureCount())
	return res, nil
}

func (r *Runner) sink() diag.Sink {
	if r.Sink != nil {
		return r.Sink
	}
	return diag.Nop{}
}
