package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values. StatusSkipped marks items that were valid but
// not committed because another item in the same batch failed.
const (
	StatusOK      ItemStatus = "ok"
	StatusError   ItemStatus = "error"
	StatusSkipped ItemStatus = "skipped"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	position int
	id       string
	status   ItemStatus
	err      error
}

// NewOK creates a successful batch result.
func NewOK(position int, id string) Result {
	return Result{position: position, id: id, status: StatusOK}
}

// NewError creates a failed batch result.
func NewError(position int, id string, err error) Result {
	return Result{position: position, id: id, status: StatusError, err: err}
}

// NewSkipped creates a result for an item dropped by an all-or-nothing batch.
func NewSkipped(position int, id string) Result {
	return Result{position: position, id: id, status: StatusSkipped}
}

// Position returns the item's offset in the submitted batch.
func (r Result) Position() int { return r.position }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Failed reports whether any result in rs is an error.
func Failed(rs []Result) bool {
	for _, r := range rs {
		if r.status == StatusError {
			return true
		}
	}
	return false
}
