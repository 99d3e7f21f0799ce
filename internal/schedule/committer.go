package schedule

import (
	"context"
	"fmt"
	"time"

	"clubsched/internal/classes"
)

// MaxBatchSize caps how many classes a single bulk commit may create.
// Larger plans fail fast before any write.
const MaxBatchSize = 100

// The store's write path is rate-limited, so creates run one at a time
// with a short pause after every pauseEvery-th success.
const (
	pauseEvery = 10
	pauseFor   = 500 * time.Millisecond
)

// ConflictSkipReason is recorded on candidates skipped because of a
// detected conflict.
const ConflictSkipReason = "Conflict with existing class"

// SkippedSlot records a candidate excluded from creation.
type SkippedSlot struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Reason string `json:"reason"`
}

// FailedSlot records a candidate whose create failed.
type FailedSlot struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Error string `json:"error"`
}

// CommitResult aggregates per-candidate outcomes of a bulk commit.
type CommitResult struct {
	Created []classes.Record `json:"created"`
	Skipped []SkippedSlot    `json:"skipped"`
	Errors  []FailedSlot     `json:"errors"`
}

// Summary renders the user-facing one-line outcome.
func (r CommitResult) Summary() string {
	return fmt.Sprintf("created %d, skipped %d due to conflicts, %d failed",
		len(r.Created), len(r.Skipped), len(r.Errors))
}

// BatchTooLargeError reports a plan over the batch cap. Nothing was
// written when this is returned.
type BatchTooLargeError struct {
	Count int
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("bulk plan would create %d classes, maximum is %d; narrow the date range or select fewer batch times",
		e.Count, MaxBatchSize)
}

// Committer executes a planned bulk schedule against the store.
type Committer struct {
	classes *classes.Service
	pause   func(time.Duration)
}

// NewCommitter creates a committer over the classes service.
func NewCommitter(svc *classes.Service) *Committer {
	return &Committer{classes: svc, pause: time.Sleep}
}

// Commit creates the plan's candidates one at a time. With skipConflicts
// set, candidates whose (date, time) appears in the plan's conflicts are
// moved to Skipped and never attempted; otherwise every candidate is
// attempted and duplicates may exist side by side. A per-candidate
// failure is recorded and the batch continues; only the batch-size cap
// aborts up front, before any write.
func (c *Committer) Commit(ctx context.Context, plan Plan, skipConflicts bool) (CommitResult, error) {
	conflicted := make(map[string]bool, len(plan.Conflicts))
	for _, conf := range plan.Conflicts {
		conflicted[conf.Date+"|"+conf.Time] = true
	}

	var result CommitResult
	var toCreate []classes.Record
	for _, cand := range plan.Candidates {
		if skipConflicts && conflicted[cand.Date+"|"+cand.Time] {
			result.Skipped = append(result.Skipped, SkippedSlot{
				Date:   cand.Date,
				Time:   cand.Time,
				Reason: ConflictSkipReason,
			})
			continue
		}
		toCreate = append(toCreate, cand)
	}
	if len(toCreate) > MaxBatchSize {
		return CommitResult{}, &BatchTooLargeError{Count: len(toCreate)}
	}

	for _, cand := range toCreate {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rec, err := c.classes.Create(ctx, cand)
		if err != nil {
			result.Errors = append(result.Errors, FailedSlot{
				Date:  cand.Date,
				Time:  cand.Time,
				Error: err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, rec)
		if len(result.Created)%pauseEvery == 0 {
			c.pause(pauseFor)
		}
	}
	return result, nil
}
