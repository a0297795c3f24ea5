package domain

import "context"

// ClassificationFailure records one question the classifier could not resolve
// in a batch, with the reason. Failed records are never silently dropped.
type ClassificationFailure struct {
	Question *Question
	Reason   string
}

// BatchClassifier is the port for the external classification service. One
// call covers one batch; the implementation performs no retries of its own
// (retry rounds belong to the domain filler).
//
// A question appears in updated only when the response echoed its identifier
// and resolved both domain and subdomain to taxonomy values. Every other
// outcome (transport error, malformed response, unknown taxonomy value,
// missing correlation) places the question in failed with a reason. The error
// return is reserved for context cancellation.
type BatchClassifier interface {
	Classify(ctx context.Context, batch []*Question, model string) (updated []*Question, failed []ClassificationFailure, err error)
}
