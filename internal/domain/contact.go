package domain

import (
	"errors"
	"fmt"
	"time"
)

// Outcome is the closed set of results recorded for a send attempt.
type Outcome string

const (
	OutcomeSent             Outcome = "SENT"              // Gateway accepted the message
	OutcomeFailedException  Outcome = "FAILED_EXCEPTION"  // Transport error, no HTTP response
	OutcomeSkippedQuota     Outcome = "SKIPPED_QUOTA"     // Daily ceiling reached
	OutcomeSkippedDuplicate Outcome = "SKIPPED_DUPLICATE" // Already sent in this batch
)

// FailedOutcome tags a non-success gateway response with its HTTP status code.
func FailedOutcome(statusCode int) Outcome {
	return Outcome(fmt.Sprintf("FAILED_%d", statusCode))
}

// Contact is one deliverable recipient: a normalized number plus the
// metadata used to render its message.
type Contact struct {
	DisplayName string
	GroupLabel  string
	Number      string // normalized, see NormalizeNumber
}

// SendRecord is one row of the append-only send log. Records are written
// for every attempt, including skips, and are never updated or deleted.
type SendRecord struct {
	Timestamp   time.Time
	BatchID     string
	DisplayName string
	GroupLabel  string
	Recipient   string
	Outcome     Outcome
	Message     string // rendered text for sends/failures, error text for FAILED_EXCEPTION
}

// RunProgress is a snapshot of the currently executing run. It resets to the
// zero state (Running=false) when no run is active.
type RunProgress struct {
	RunID   string
	Running bool
	Total   int
	Sent    int
	Failed  int
	Skipped int
	Current string // normalized number of the contact being processed
	Status  string
	Error   string
}

// Domain errors
var (
	ErrRunActive  = errors.New("a send run is already active")
	ErrEmptyBatch = errors.New("batch contains no sendable contacts")
)
