// Package nberr defines the error taxonomy shared between the instantiation
// workflow and the HTTP boundary. Every failure the user can see is an *Error
// carrying a stable numeric code and an HTTP status; the boundary renders all
// of them through the same view.
package nberr

import "fmt"

type Kind int

const (
	KindUnknown Kind = iota
	KindTemplateNotFound
	KindTokenRejected
	KindMissingParameter
	KindDestinationResolution
	KindCreationFailed
	KindHubURLUnknown
)

// Numeric codes are part of the external surface and must stay stable.
const (
	CodeUnknown               = -1
	CodeTokenRejected         = 2
	CodeCreationFailed        = 11
	CodeTemplateNotFound      = 13
	CodeHubURLUnknown         = 14
	CodeMissingParameter      = 15
	CodeDestinationResolution = 16
)

type Error struct {
	Kind    Kind
	Code    int
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (code %d): %v", e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// External reports whether the failure originated in an external collaborator
// rather than in user input. External failures carry no actionable detail for
// the user and are rendered as generic retryable errors.
func (k Kind) External() bool {
	switch k {
	case KindDestinationResolution, KindCreationFailed, KindHubURLUnknown:
		return true
	}
	return false
}

func TemplateNotFound(path string) *Error {
	return &Error{
		Kind:    KindTemplateNotFound,
		Code:    CodeTemplateNotFound,
		Status:  404,
		Message: "The requested template does not exist.",
		Err:     fmt.Errorf("template %q not in catalog", path),
	}
}

func TokenRejected(cause error) *Error {
	return &Error{
		Kind:    KindTokenRejected,
		Code:    CodeTokenRejected,
		Status:  400,
		Message: "An error occurred while creating the notebook. Please try again in a few minutes.",
		Err:     cause,
	}
}

func MissingParameter(name string) *Error {
	return &Error{
		Kind:    KindMissingParameter,
		Code:    CodeMissingParameter,
		Status:  400,
		Message: fmt.Sprintf("The parameter %q is missing.", name),
		Err:     fmt.Errorf("unresolved placeholder %q", name),
	}
}

func DestinationResolution(cause error) *Error {
	return &Error{
		Kind:    KindDestinationResolution,
		Code:    CodeDestinationResolution,
		Status:  500,
		Message: "Unable to determine notebook destination.",
		Err:     cause,
	}
}

func CreationFailed(cause error) *Error {
	return &Error{
		Kind:    KindCreationFailed,
		Code:    CodeCreationFailed,
		Status:  500,
		Message: "An error occurred while creating the notebook. Please try again in a few minutes.",
		Err:     cause,
	}
}

// HubURLUnknown reports success-with-caveat: the notebook exists but its
// JupyterHub URL could not be computed.
func HubURLUnknown(cause error) *Error {
	return &Error{
		Kind:    KindHubURLUnknown,
		Code:    CodeHubURLUnknown,
		Status:  500,
		Message: "The notebook was created successfully, but there was an error determining its JupyterHub URL.",
		Err:     cause,
	}
}
