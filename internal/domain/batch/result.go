package batch

import "fmt"

// Result reports a set-based write that tolerates per-row failures. Rows that
// were written stay written when a sibling fails.
type Result struct {
	Written int
	Failed  int
	Errors  []error
}

func (r *Result) Merge(other Result) {
	r.Written += other.Written
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
}

func (r *Result) Fail(key string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Errorf("%s: %w", key, err))
}

func (r Result) OK() bool {
	return r.Failed == 0
}
