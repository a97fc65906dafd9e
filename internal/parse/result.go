package parse

import "github.com/dvloznov/ledgerchat/internal/domain"

// FailureKind discriminates the ways a parse can fail.
type FailureKind string

const (
	// FailureTransport means no usable response came back from the boundary.
	FailureTransport FailureKind = "transport"

	// FailureValidation means the boundary understood the request but could
	// not extract a usable transaction.
	FailureValidation FailureKind = "validation"

	// FailureMissingCategory is a validation failure caused by the utterance
	// referencing categories absent from the tracker's taxonomy.
	FailureMissingCategory FailureKind = "missing_category"
)

// Failure is the typed failure shape of a parse. It is never conflated with
// success: a Result carries either drafts or a Failure, not both.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`

	// MissingCategories is carried verbatim from the boundary for
	// missing-category failures.
	MissingCategories []string `json:"missing_categories,omitempty"`
}

// Result is the discriminated outcome of ParseUtterance.
type Result struct {
	// Drafts is the extracted batch on success. An empty batch is a valid,
	// if unusual, success.
	Drafts []domain.DraftTransaction

	Failure *Failure
}

// Failed reports whether the result carries a failure.
func (r Result) Failed() bool {
	return r.Failure != nil
}

// success wraps a draft batch. Drafts are never nil on success so callers
// can range without a check.
func success(drafts []domain.DraftTransaction) Result {
	if drafts == nil {
		drafts = []domain.DraftTransaction{}
	}
	return Result{Drafts: drafts}
}

// failed wraps a failure.
func failed(f Failure) Result {
	return Result{Failure: &f}
}
