package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/partsim/sim"
)

// A ProgressBar tracks how many items of a long job have been processed. It
// is safe for concurrent use.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// NewProgressBar creates a bar that starts now.
func NewProgressBar(name string, total uint64) *ProgressBar {
	return &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

// Fraction returns the finished share of the total, in [0, 1].
func (b *ProgressBar) Fraction() float64 {
	b.Lock()
	defer b.Unlock()

	return b.fraction()
}

func (b *ProgressBar) fraction() float64 {
	if b.Total == 0 {
		return 1
	}

	return float64(b.Finished) / float64(b.Total)
}

// ProgressSnapshot is a copy of a bar that can be encoded without locking.
type ProgressSnapshot struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
	Fraction   float64   `json:"fraction"`
}

// Snapshot copies the bar.
func (b *ProgressBar) Snapshot() ProgressSnapshot {
	b.Lock()
	defer b.Unlock()

	return ProgressSnapshot{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.Finished,
		InProgress: b.InProgress,
		Fraction:   b.fraction(),
	}
}
