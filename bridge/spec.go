package bridge

import (
	"fmt"

	"github.com/sarchlab/axi2wb/arbitration"
)

// Policy names an arbitration policy between the read and the write path.
type Policy string

// Supported policies.
const (
	PolicyRoundRobin   Policy = "round_robin"
	PolicyReadPriority Policy = "read_priority"
)

// Spec holds immutable configuration values for the bridge.
type Spec struct {
	// Policy decides who gets the downstream bus when both paths ask for it
	// at the same time.
	Policy Policy
}

// Validate checks the policy.
func (s Spec) Validate() error {
	switch s.Policy {
	case PolicyRoundRobin, PolicyReadPriority:
		return nil
	}

	return fmt.Errorf("unknown arbitration policy %q", s.Policy)
}

// Defaults returns a Spec with round-robin arbitration.
func Defaults() Spec {
	return Spec{
		Policy: PolicyRoundRobin,
	}
}

func (s Spec) arbiter() arbitration.Arbiter {
	if s.Policy == PolicyReadPriority {
		return arbitration.NewFixedPriorityArbiter()
	}

	return arbitration.NewRoundRobinArbiter()
}
