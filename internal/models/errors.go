package models

import "errors"

// Error taxonomy shared by the entity model, the rule engine and the
// persistence adapters. Call sites wrap these with context; callers match
// them with errors.Is.
var (
	ErrValidation         = errors.New("invalid input")
	ErrAllocationInvalid  = errors.New("trip allocation invalid")
	ErrMaintenanceInvalid = errors.New("maintenance invalid")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrNotFound           = errors.New("not found")
)
