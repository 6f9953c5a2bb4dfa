package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar counts the transactions of a run that are in flight and
// those that have completed.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress marks amount more items as started.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	b.InProgress += amount
	b.Unlock()
}

// MoveInProgressToFinished marks amount started items as finished.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	b.InProgress -= amount
	b.Finished += amount
	b.Unlock()
}

// Fraction returns the share of the total that has finished. An empty bar
// counts as done.
func (b *ProgressBar) Fraction() float64 {
	b.Lock()
	defer b.Unlock()

	if b.Total == 0 {
		return 1
	}

	return float64(b.Finished) / float64(b.Total)
}
