// Package arbitration provides policies that decide which of several
// requesters may use a shared resource next.
package arbitration

// An Arbiter picks one requester among those that are requesting.
type Arbiter interface {
	// Arbitrate returns the index of the granted requester, or -1 if no one
	// is requesting.
	Arbitrate(requesting []bool) int
}

// NewRoundRobinArbiter creates an arbiter that rotates priority. The search
// for the next grantee starts right after the last one granted, so a
// requester that keeps asking waits for at most one grant of every other
// requester. Requester 0 has the highest priority before the first grant.
func NewRoundRobinArbiter() Arbiter {
	return &roundRobinArbiter{last: -1}
}

type roundRobinArbiter struct {
	last int
}

func (a *roundRobinArbiter) Arbitrate(requesting []bool) int {
	n := len(requesting)
	if n == 0 {
		return -1
	}

	start := a.last + 1
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if requesting[idx] {
			a.last = idx
			return idx
		}
	}

	return -1
}

// NewFixedPriorityArbiter creates an arbiter that always grants the lowest
// requesting index.
func NewFixedPriorityArbiter() Arbiter {
	return fixedPriorityArbiter{}
}

type fixedPriorityArbiter struct{}

func (fixedPriorityArbiter) Arbitrate(requesting []bool) int {
	for i, r := range requesting {
		if r {
			return i
		}
	}

	return -1
}
