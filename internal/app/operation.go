package app

import "clipq/internal/clipq"

// Batch run statuses persisted in the history table.
const (
	StatusRunning   = "running"
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// BatchOperation tracks a CLI operation that may mutate the ledger.
// Operations are created in memory with ID=0. Only ledger-mutating commands
// persist them (giving them an auto-increment ID from the database).
type BatchOperation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string
	Summary    string
}

// NewBatchOperation creates a new in-memory batch operation.
func NewBatchOperation(operation, parameters string) *BatchOperation {
	return &BatchOperation{
		Operation:  operation,
		Parameters: parameters,
		Status:     StatusSuccess,
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *BatchOperation) Persisted() bool {
	return op.ID != 0
}

// Finish derives the final status from a batch outcome.
func (op *BatchOperation) Finish(summary *clipq.Summary, err error) {
	switch {
	case summary != nil && summary.Cancelled && err == nil:
		op.Status = StatusCancelled
	case err != nil || (summary != nil && !summary.OK()):
		op.Status = StatusError
	default:
		op.Status = StatusSuccess
	}

	switch {
	case summary != nil:
		op.Summary = summary.String()
	case err != nil:
		op.Summary = err.Error()
	}
}
