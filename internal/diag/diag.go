// Package diag defines the diagnostic events the core emits while creating
// projects. The core has no opinion on where events end up; callers inject a
// Sink and the default implementation renders through charmbracelet/log.
package diag

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"gcp-project-forge/internal/models"
)

// Sink receives structured diagnostic events from the generator, the
// creation orchestrator, and the batch runner.
type Sink interface {
	// BatchStarted announces a batch run before the first submission.
	BatchStarted(runID string, start, count int)
	// CandidateRejected reports a generated project ID that failed validation.
	CandidateRejected(candidate string)
	// SubmitStarted reports that a create request was accepted and an
	// operation is now in flight.
	SubmitStarted(projectID string)
	// StillWaiting reports one not-yet-done poll of the operation.
	StillWaiting(projectID string)
	// Created reports a successfully created project.
	Created(rec models.ProjectRecord)
	// Failed reports a terminal creation failure.
	Failed(projectID string, f models.Failure)
	// Summary reports the final tally after the batch completes.
	Summary(runID string, created []models.ProjectRecord, failed int)
}

// Nop discards all events.
type Nop struct{}

func (Nop) BatchStarted(string, int, int)               {}
func (Nop) CandidateRejected(string)                    {}
func (Nop) SubmitStarted(string)                        {}
func (Nop) StillWaiting(string)                         {}
func (Nop) Created(models.ProjectRecord)                {}
func (Nop) Failed(string, models.Failure)               {}
func (Nop) Summary(string, []models.ProjectRecord, int) {}

// LogSink renders events through a charmbracelet logger.
type LogSink struct {
	Logger *log.Logger
}

// NewLogSink builds a LogSink writing to w (typically an io.MultiWriter over
// stderr and a log file).
func NewLogSink(w io.Writer) LogSink {
	return LogSink{Logger: log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
	})}
}

func (s LogSink) BatchStarted(runID string, start, count int) {
	s.Logger.Info("starting project creation batch", "run", runID, "start_number", start, "count", count)
}

func (s LogSink) CandidateRejected(candidate string) {
	s.Logger.Warn("generated project ID is not valid, retrying", "candidate", candidate)
}

func (s LogSink) SubmitStarted(projectID string) {
	s.Logger.Info("project creation operation started", "project_id", projectID)
}

func (s LogSink) StillWaiting(projectID string) {
	s.Logger.Info("waiting for project creation to complete", "project_id", projectID)
}

func (s LogSink) Created(rec models.ProjectRecord) {
	s.Logger.Info("project created successfully",
		"name", rec.Name, "project_id", rec.ProjectID, "project_number", rec.ProjectNumber)
}

func (s LogSink) Failed(projectID string, f models.Failure) {
	args := []interface{}{"project_id", projectID, "kind", string(f.Kind), "message", f.Message}
	if f.Code != 0 {
		args = append(args, "code", f.Code)
	}
	s.Logger.Error("project creation failed", args...)
	for _, d := range f.Details {
		s.Logger.Error("  detail", "project_id", projectID, "detail", d)
	}
}

func (s LogSink) Summary(runID string, created []models.ProjectRecord, failed int) {
	s.Logger.Info("batch complete", "run", runID, "created", len(created), "failed", failed)
	for _, rec := range created {
		s.Logger.Info(fmt.Sprintf("  created: name=%s id=%s number=%d", rec.Name, rec.ProjectID, rec.ProjectNumber))
	}
	if len(created) == 0 {
		s.Logger.Info("no projects were successfully created")
	}
}

// Event is one recorded diagnostic, used by Capture.
type Event struct {
	Type      string
	ProjectID string
	Failure   *models.Failure
	Record    *models.ProjectRecord
}

// Capture records events in order so tests can assert on emitted diagnostics.
type Capture struct {
	Events []Event
}

func (c *Capture) BatchStarted(runID string, start, count int) {
	c.Events = append(c.Events, Event{Type: "batch_started"})
}

func (c *Capture) CandidateRejected(candidate string) {
	c.Events = append(c.Events, Event{Type: "candidate_rejected", ProjectID: candidate})
}

func (c *Capture) SubmitStarted(projectID string) {
	c.Events = append(c.Events, Event{Type: "submit_started", ProjectID: projectID})
}

func (c *Capture) StillWaiting(projectID string) {
	c.Events = append(c.Events, Event{Type: "still_waiting", ProjectID: projectID})
}

func (c *Capture) Created(rec models.ProjectRecord) {
	c.Events = append(c.Events, Event{Type: "created", ProjectID: rec.ProjectID, Record: &rec})
}

func (c *Capture) Failed(projectID string, f models.Failure) {
	c.Events = append(c.Events, Event{Type: "failed", ProjectID: projectID, Failure: &f})
}

func (c *Capture) Summary(runID string, created []models.ProjectRecord, failed int) {
	c.Events = append(c.Events, Event{Type: "summary"})
}

// Count returns how many recorded events have the given type.
func (c *Capture) Count(eventType string) int {
	n := 0
	for _, e := range c.Events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
