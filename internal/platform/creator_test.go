package platform

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gcp-project-forge/internal/diag"
	"gcp-project-forge/internal/models"
)

type pollResult struct {
	status OperationStatus
	err    error
}

// fakeClient scripts CreateProject and a sequence of GetOperation results.
type fakeClient struct {
	createErr error
	polls     []pollResult

	createCalls int
	getCalls    int
	panicOnGet  bool
}

func (f *fakeClient) CreateProject(ctx context.Context, req models.CreationRequest) (string, error) {
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	return "operations/cp.1234567890", nil
}

func (f *fakeClient) GetOperation(ctx context.Context, name string) (OperationStatus, error) {
	if f.panicOnGet {
		panic("malformed response shape")
	}
	i := f.getCalls
	f.getCalls++
	if i >= len(f.polls) {
		i = len(f.polls) - 1
	}
	return f.polls[i].status, f.polls[i].err
}

func newTestCreator(client *fakeClient, sink diag.Sink) *Creator {
	return &Creator{
		Client:       client,
		Sink:         sink,
		PollInterval: time.Millisecond,
	}
}

func testRequest() models.CreationRequest {
	return models.CreationRequest{
		ProjectID:   "project01-a1b2c3d4e5f6g7h",
		DisplayName: "project01",
	}
}

func TestCreator_SubmitFailure_IsTransportError(t *testing.T) {
	client := &fakeClient{createErr: errors.New("connection refused")}
	cap := &diag.Capture{}
	c := newTestCreator(client, cap)

	out := c.Create(context.Background(), testRequest())

	if out.OK() {
		t.Fatal("Create should fail when submission errors")
	}
	if out.Failure.Kind != models.TransportError {
		t.Errorf("Kind = %q, want %q", out.Failure.Kind, models.TransportError)
	}
	if client.getCalls != 0 {
		t.Errorf("GetOperation called %d times, want 0", client.getCalls)
	}
	if cap.Count("failed") != 1 {
		t.Errorf("failed events = %d, want 1", cap.Count("failed"))
	}
}

func TestCreator_APIError_AfterOnePoll(t *testing.T) {
	client := &fakeClient{polls: []pollResult{
		{status: OperationStatus{Done: true, Error: &OperationError{
			Code:    409,
			Message: "Requested entity already exists",
			Details: []string{`{"reason":"ALREADY_EXISTS"}`},
		}}},
	}}
	c := newTestCreator(client, nil)

	out := c.Create(context.Background(), testRequest())

	if out.OK() {
		t.Fatal("Create should fail on a terminal error payload")
	}
	if out.Failure.Kind != models.APIError {
		t.Errorf("Kind = %q, want %q", out.Failure.Kind, models.APIError)
	}
	if out.Failure.Code != 409 {
		t.Errorf("Code = %d, want 409", out.Failure.Code)
	}
	if len(out.Failure.Details) != 1 {
		t.Errorf("Details = %v, want one entry", out.Failure.Details)
	}
	if client.getCalls != 1 {
		t.Errorf("GetOperation called %d times, want 1", client.getCalls)
	}
}

func TestCreator_PendingThenSuccess_PollsTwice(t *testing.T) {
	record := models.ProjectRecord{
		Name:          "project01",
		ProjectID:     "project01-a1b2c3d4e5f6g7h",
		ProjectNumber: 123456789,
	}
	client := &fakeClient{polls: []pollResult{
		{status: OperationStatus{Done: false}},
		{status: OperationStatus{Done: true, Project: &record}},
	}}
	cap := &diag.Capture{}
	c := newTestCreator(client, cap)

	out := c.Create(context.Background(), testRequest())

	if !out.OK() {
		t.Fatalf("Create failed: %+v", out.Failure)
	}
	if *out.Project != record {
		t.Errorf("Project = %+v, want %+v", *out.Project, record)
	}
	if client.getCalls != 2 {
		t.Errorf("GetOperation called %d times, want 2", client.getCalls)
	}
	if cap.Count("still_waiting") != 1 {
		t.Errorf("still_waiting events = %d, want 1", cap.Count("still_waiting"))
	}
	if cap.Count("created") != 1 {
		t.Errorf("created events = %d, want 1", cap.Count("created"))
	}
}

func TestCreator_TermsOfServiceHint(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantHint bool
	}{
		{"tos message gets hint", "Callers must accept the Terms of Service", true},
		{"other message unchanged", "Requested entity already exists", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{polls: []pollResult{
				{status: OperationStatus{Done: true, Error: &OperationError{Code: 403, Message: tc.message}}},
			}}
			c := newTestCreator(client, nil)

			out := c.Create(context.Background(), testRequest())

			if out.OK() {
				t.Fatal("Create should fail")
			}
			gotHint := strings.Contains(out.Failure.Message, "SOLUTION FOR ERROR")
			if gotHint != tc.wantHint {
				t.Errorf("hint present = %v, want %v (message %q)", gotHint, tc.wantHint, out.Failure.Message)
			}
			if !strings.Contains(out.Failure.Message, tc.message) {
				t.Errorf("message %q does not contain provider message %q", out.Failure.Message, tc.message)
			}
			if out.Failure.Kind != models.APIError {
				t.Errorf("Kind = %q, want %q (hint must not change the kind)", out.Failure.Kind, models.APIError)
			}
		})
	}
}

func TestCreator_PollError_NeverPropagates(t *testing.T) {
	client := &fakeClient{polls: []pollResult{
		{err: errors.New("unexpected end of JSON input")},
	}}
	c := newTestCreator(client, nil)

	out := c.Create(context.Background(), testRequest())

	if out.OK() {
		t.Fatal("Create should fail when polling errors")
	}
	if out.Failure.Kind != models.UnexpectedError {
		t.Errorf("Kind = %q, want %q", out.Failure.Kind, models.UnexpectedError)
	}
}

func TestCreator_PanicConvertedToFailure(t *testing.T) {
	client := &fakeClient{panicOnGet: true}
	c := newTestCreator(client, nil)

	out := c.Create(context.Background(), testRequest())

	if out.OK() {
		t.Fatal("Create should fail when the client panics")
	}
	if out.Failure.Kind != models.UnexpectedError {
		t.Errorf("Kind = %q, want %q", out.Failure.Kind, models.UnexpectedError)
	}
}

func TestCreator_MaxWaitBoundsPolling(t *testing.T) {
	client := &fakeClient{polls: []pollResult{
		{status: OperationStatus{Done: false}},
	}}
	c := newTestCreator(client, nil)
	c.MaxWait = 20 * time.Millisecond

	done := make(chan models.Outcome, 1)
	go func() { done <- c.Create(context.Background(), testRequest()) }()

	select {
	case out := <-done:
		if out.OK() {
			t.Fatal("Create should fail when MaxWait expires")
		}
		if out.Failure.Kind != models.UnexpectedError {
			t.Errorf("Kind = %q, want %q", out.Failure.Kind, models.UnexpectedError)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Create did not return after MaxWait expired")
	}
}
