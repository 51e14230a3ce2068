package aggregate

import (
	"strings"
)

// Reason identifies the rule a submission violated
type Reason string

const (
	ReasonDateRequired         Reason = "date_required"
	ReasonInvalidDate          Reason = "invalid_date"
	ReasonDateInPast           Reason = "date_in_past"
	ReasonReturnBeforeDelivery Reason = "return_before_delivery"
	ReasonSupermarketRequired  Reason = "supermarket_required"
	ReasonSupermarketNotFound  Reason = "supermarket_not_found"
	ReasonSubchainMismatch     Reason = "subchain_mismatch"
	ReasonProductNotFound      Reason = "product_not_found"
	ReasonEmptyItems           Reason = "empty_items"
	ReasonDuplicateProduct     Reason = "duplicate_product"
	ReasonInvalidQuantity      Reason = "invalid_quantity"
	ReasonInvalidPrice         Reason = "invalid_price"
	ReasonInvalidStatus        Reason = "invalid_status"
)

// Violation is a single failed rule
type Violation struct {
	Reason  Reason `json:"reason"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationError lists every violated rule in rule order
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether reason is among the violations
func (e *ValidationError) Has(reason Reason) bool {
	for _, v := range e.Violations {
		if v.Reason == reason {
			return true
		}
	}
	return false
}

// Reasons returns the reason codes in order
func (e *ValidationError) Reasons() []Reason {
	out := make([]Reason, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Reason)
	}
	return out
}

type violations []Violation

func (vs *violations) add(reason Reason, field, message string) {
	*vs = append(*vs, Violation{Reason: reason, Field: field, Message: message})
}

func (vs violations) err() error {
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Violations: vs}
}
