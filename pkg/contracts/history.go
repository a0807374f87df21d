package contracts

import (
	"context"
	"time"
)

// History persists a record of adapter executions for later inspection.
type History interface {
	Record(ctx context.Context, entry *ExecutionEntry) error
	Recent(ctx context.Context, limit int) ([]ExecutionEntry, error)
}

// ExecutionEntry is one row of execution history.
type ExecutionEntry struct {
	RequestID         string
	Adapter           string
	Method            string
	URL               string
	Success           bool
	StatusCode        int
	Duration          time.Duration
	FieldsMapped      int
	FieldsTransformed int
	Error             string
	CreatedAt         time.Time
}
