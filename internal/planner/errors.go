package planner

import "fmt"

// InvalidEndpointError means one of the snapshots supplied to a
// planner was infeasible at construction time. It is fatal.
type InvalidEndpointError struct {
	Reason error
}

func (e *InvalidEndpointError) Error() string {
	return fmt.Sprintf("invalid endpoint: %v", e.Reason)
}

func (e *InvalidEndpointError) Unwrap() error {
	return e.Reason
}

// PlannerInvariantError signals an internal inconsistency: the goal
// reached with work remaining (or the converse), a candidate that
// turned out to be the on-behalf-of migration itself, or a
// displacement chain exceeding the configured depth bound. It is
// fatal and carries the accumulated debug log for diagnosis.
type PlannerInvariantError struct {
	Reason string
	Debug  string
}

func (e *PlannerInvariantError) Error() string {
	return fmt.Sprintf("planner invariant violated: %s", e.Reason)
}

// ReusedPlannerError is returned by FindPath on a planner instance
// that has already run once; planners are single-shot.
type ReusedPlannerError struct{}

func (e *ReusedPlannerError) Error() string {
	return "planner: FindPath called more than once on the same instance"
}
