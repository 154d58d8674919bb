// Package platform talks to the Google Cloud Resource Manager API: it
// submits project create requests and drives the resulting long-running
// operations to a terminal outcome.
package platform

import (
	"context"
	"encoding/json"
	"fmt"

	crm "google.golang.org/api/cloudresourcemanager/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"gcp-project-forge/internal/models"
)

// CloudPlatformScope is the OAuth scope required to create projects.
const CloudPlatformScope = crm.CloudPlatformScope

// OperationError is the terminal error payload of a failed operation.
type OperationError struct {
	Code    int
	Message string
	Details []string
}

// OperationStatus is one observation of an in-flight operation. When Done is
// false the operation is still running and both Error and Project are nil.
// When Done is true exactly one of Error or Project is set.
type OperationStatus struct {
	Done    bool
	Error   *OperationError
	Project *models.ProjectRecord
}

// Client is the minimal surface the creation orchestrator needs from an
// already-authorized API handle. Tests substitute fakes.
type Client interface {
	// CreateProject submits a create request and returns the name of the
	// long-running operation tracking it.
	CreateProject(ctx context.Context, req models.CreationRequest) (string, error)

	// GetOperation fetches the current status of an operation by name.
	GetOperation(ctx context.Context, name string) (OperationStatus, error)
}

// ResourceManager implements Client against the Cloud Resource Manager v1
// API.
type ResourceManager struct {
	svc *crm.Service
}

// NewResourceManager builds a ResourceManager from client options (typically
// option.WithTokenSource from the authorization flow).
func NewResourceManager(ctx context.Context, opts ...option.ClientOption) (*ResourceManager, error) {
	svc, err := crm.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating resource manager service: %w", err)
	}
	return &ResourceManager{svc: svc}, nil
}

func (r *ResourceManager) CreateProject(ctx context.Context, req models.CreationRequest) (string, error) {
	project := &crm.Project{
		ProjectId: req.ProjectID,
		Name:      req.EffectiveName(),
	}
	if req.BillingAccountID != "" {
		project.Parent = &crm.ResourceId{
			Type: "billingAccounts",
			Id:   req.BillingAccountID,
		}
	}

	op, err := r.svc.Projects.Create(project).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating project %s: %w", req.ProjectID, err)
	}
	return op.Name, nil
}

func (r *ResourceManager) GetOperation(ctx context.Context, name string) (OperationStatus, error) {
	op, err := r.svc.Operations.Get(name).Context(ctx).Do()
	if err != nil {
		return OperationStatus{}, fmt.Errorf("fetching operation %s: %w", name, err)
	}

	status := OperationStatus{Done: op.Done}
	if !op.Done {
		return status, nil
	}

	if op.Error != nil {
		status.Error = &OperationError{
			Code:    int(op.Error.Code),
			Message: op.Error.Message,
			Details: rawDetails(op.Error.Details),
		}
		return status, nil
	}

	var project crm.Project
	if err := json.Unmarshal(op.Response, &project); err != nil {
		return OperationStatus{}, fmt.Errorf("decoding operation %s response: %w", name, err)
	}
	status.Project = &models.ProjectRecord{
		Name:          project.Name,
		ProjectID:     project.ProjectId,
		ProjectNumber: project.ProjectNumber,
	}
	return status, nil
}

func rawDetails(details []googleapi.RawMessage) []string {
	out := make([]string, 0, len(details))
	for _, d := range details {
		out = append(out, string(d))
	}
	return out
}
