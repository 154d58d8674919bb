package models

// CreationRequest describes one project to be created. It is built once per
// attempt and never mutated.
type CreationRequest struct {
	// ProjectID is the unique, user-assigned project ID (6-30 lowercase
	// letters, digits, or hyphens; starts with a letter, ends with a letter
	// or digit).
	ProjectID string `json:"project_id"`

	// DisplayName is the human-readable project name. Empty means "use the
	// project ID".
	DisplayName string `json:"display_name,omitempty"`

	// BillingAccountID optionally links the project to a billing account.
	// Empty means the default billing account of the credentials, if any.
	BillingAccountID string `json:"billing_account_id,omitempty"`
}

// EffectiveName returns the display name, falling back to the project ID.
func (r CreationRequest) EffectiveName() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.ProjectID
}

// ProjectRecord is the created project as reported by the Resource Manager.
type ProjectRecord struct {
	Name          string `json:"name"`
	ProjectID     string `json:"project_id"`
	ProjectNumber int64  `json:"project_number"`
}

// FailureKind classifies why a creation attempt failed.
type FailureKind string

const (
	// TransportError is a network or HTTP-level failure talking to the API.
	TransportError FailureKind = "transport_error"
	// APIError is a terminal error reported by the API for the operation.
	APIError FailureKind = "api_error"
	// UnexpectedError is anything else, including malformed responses.
	UnexpectedError FailureKind = "unexpected_error"
)

// Failure carries the detail of a failed creation attempt.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Code    int         `json:"code,omitempty"`
	Message string      `json:"message"`
	Details []string    `json:"details,omitempty"`
}

// Outcome is the terminal result of one creation attempt: exactly one of
// Project or Failure is set.
type Outcome struct {
	Project *ProjectRecord `json:"project,omitempty"`
	Failure *Failure       `json:"failure,omitempty"`
}

// OK reports whether the attempt succeeded.
func (o Outcome) OK() bool { return o.Project != nil }

// Success wraps a created project in an Outcome.
func Success(rec ProjectRecord) Outcome {
	return Outcome{Project: &rec}
}

// Failed wraps a failure in an Outcome.
func Failed(f Failure) Outcome {
	return Outcome{Failure: &f}
}
