package domain

import "fmt"

// Error codes surfaced to callers. These cross the workflow boundary as
// Temporal ApplicationError types, so the strings are part of the contract.
const (
	CodeInvalidInput      = "InvalidInput"
	CodeInvalidTransition = "InvalidTransition"
	CodeStockUnavailable  = "StockUnavailable"
	CodeTermsNotAccepted  = "TermsNotAccepted"
	CodeDispatchRejected  = "DispatchRejected"
	CodeNotFound          = "InstanceNotFound"
)

// PurchaseError carries the failure code plus the instance state at the time
// of rejection, so callers can decide whether to retry or correct course.
type PurchaseError struct {
	Code    string        `json:"code"`
	State   PurchaseState `json:"estado,omitempty"`
	Message string        `json:"message"`
}

func (e *PurchaseError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("%s (estado=%s): %s", e.Code, e.State, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewPurchaseError(code string, state PurchaseState, format string, args ...interface{}) *PurchaseError {
	return &PurchaseError{Code: code, State: state, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the purchase error code, or "" for unclassified errors.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if pe, ok := err.(*PurchaseError); ok {
		return pe.Code
	}
	return ""
}
