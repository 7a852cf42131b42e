package domain

import "fmt"

// Valid fields for UpdateTaskParams.
var updateTaskValidFields = map[string]struct{}{
	"title":       {},
	"description": {},
	"priority":    {},
	"category":    {},
	"tags":        {},
	"estimated":   {},
	"actual":      {},
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have non-nil values when included in the mask.
func (p UpdateTaskParams) Validate() error {
	if len(p.UpdateMask) == 0 {
		return ErrEmptyUpdateMask
	}

	maskSet := make(map[string]bool, len(p.UpdateMask))

	for _, field := range p.UpdateMask {
		if _, ok := updateTaskValidFields[field]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		maskSet[field] = true
	}

	if maskSet["title"] && p.Title == nil {
		return ErrTitleRequired
	}
	if maskSet["estimated"] && p.Estimated != nil && *p.Estimated < 0 {
		return ErrInvalidDuration
	}
	if maskSet["actual"] && p.Actual != nil && *p.Actual < 0 {
		return ErrInvalidDuration
	}

	return nil
}

// Has reports whether field is in the update mask.
func (p UpdateTaskParams) Has(field string) bool {
	for _, f := range p.UpdateMask {
		if f == field {
			return true
		}
	}
	return false
}
