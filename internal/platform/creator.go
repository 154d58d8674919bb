package platform

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"

	"gcp-project-forge/internal/diag"
	"gcp-project-forge/internal/models"
)

// DefaultPollInterval is how long the creator waits between operation polls.
const DefaultPollInterval = 5 * time.Second

const tosMarker = "Terms of Service"

// tosHint is appended to the provider message when project creation is
// blocked on the account's pending terms-of-service acceptance.
const tosHint = "\n\nSOLUTION FOR ERROR:\n\nGo to https://console.cloud.google.com/ of that " +
	"google account, and open cloud shell (top right) or press 'gs', then Click 'Accept'. " +
	"And try again."

var errOperationPending = errors.New("operation still in progress")

// Creator submits one project create request and polls its long-running
// operation to a terminal state. Every error is captured and converted into
// a failure outcome; Create never panics past its own boundary.
type Creator struct {
	Client Client
	Sink   diag.Sink

	// PollInterval between operation status checks. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration

	// MaxWait bounds the total polling time. Zero polls until the operation
	// completes, however long that takes.
	MaxWait time.Duration
}

// Create runs one creation attempt to completion and returns its outcome.
// The attempt blocks the calling goroutine for the duration of the polling
// loop.
func (c *Creator) Create(ctx context.Context, req models.CreationRequest) (out models.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = c.fail(req.ProjectID, models.Failure{
				Kind:    models.UnexpectedError,
				Message: fmt.Sprintf("unexpected error creating project %s: %v", req.ProjectID, r),
			})
		}
	}()

	opName, err := c.Client.CreateProject(ctx, req)
	if err != nil {
		return c.fail(req.ProjectID, models.Failure{
			Kind:    models.TransportError,
			Code:    httpStatus(err),
			Message: fmt.Sprintf("submitting create request: %v", err),
		})
	}
	c.sink().SubmitStarted(req.ProjectID)

	if c.MaxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.MaxWait)
		defer cancel()
	}

	status, err := c.poll(ctx, opName, req.ProjectID)
	if err != nil {
		return c.fail(req.ProjectID, classifyPollError(err))
	}

	if status.Error != nil {
		return c.fail(req.ProjectID, models.Failure{
			Kind:    models.APIError,
			Code:    status.Error.Code,
			Message: annotate(status.Error.Message),
			Details: status.Error.Details,
		})
	}
	if status.Project == nil {
		return c.fail(req.ProjectID, models.Failure{
			Kind:    models.UnexpectedError,
			Message: "operation completed without a project payload",
		})
	}

	c.sink().Created(*status.Project)
	return models.Success(*status.Project)
}

// poll fetches the operation status on a fixed interval until it reports
// done. A missing or false done flag means "keep polling", never an error.
func (c *Creator) poll(ctx context.Context, opName, projectID string) (OperationStatus, error) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	var status OperationStatus
	bo := backoff.WithContext(backoff.NewConstantBackOff(interval), ctx)
	err := backoff.Retry(func() error {
		s, err := c.Client.GetOperation(ctx, opName)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !s.Done {
			c.sink().StillWaiting(projectID)
			return errOperationPending
		}
		status = s
		return nil
	}, bo)
	return status, err
}

func (c *Creator) fail(projectID string, f models.Failure) models.Outcome {
	c.sink().Failed(projectID, f)
	return models.Failed(f)
}

func (c *Creator) sink() diag.Sink {
	if c.Sink != nil {
		return c.Sink
	}
	return diag.Nop{}
}

// annotate appends the remediation hint for the one well-known failure mode.
// The error kind is unchanged; only the message is extended.
func annotate(message string) string {
	if strings.Contains(message, tosMarker) {
		return message + tosHint
	}
	return message
}

// classifyPollError maps a polling failure onto the outcome taxonomy:
// HTTP/network problems are transport errors, everything else (malformed
// responses, an exhausted deadline) is unexpected.
func classifyPollError(err error) models.Failure {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return models.Failure{
			Kind:    models.TransportError,
			Code:    gerr.Code,
			Message: fmt.Sprintf("polling operation: %v", err),
		}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return models.Failure{
			Kind:    models.TransportError,
			Message: fmt.Sprintf("polling operation: %v", err),
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, errOperationPending) {
		return models.Failure{
			Kind:    models.UnexpectedError,
			Message: fmt.Sprintf("polling aborted before the operation completed: %v", err),
		}
	}
	return models.Failure{
		Kind:    models.UnexpectedError,
		Message: fmt.Sprintf("polling operation: %v", err),
	}
}

func httpStatus(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}
