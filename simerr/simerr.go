// Package simerr defines the fatal, non-recoverable invariant violation
// used throughout the simulator core. An internal invariant violation
// indicates a simulator bug, not a user input error; it is raised with
// panic at the exact call site and carries enough detail (component,
// address, state) that a diagnostic can name what went wrong without a
// debugger.
package simerr

import "fmt"

// InvariantError reports a broken internal invariant: a state machine
// reached a (state, event) combination the protocol tables rule out, or
// a store operation's precondition was violated.
type InvariantError struct {
	Component string
	Addr      uint64
	State     string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violation in %s at addr=0x%x state=%s: %s",
		e.Component, e.Addr, e.State, e.Detail)
}

// New constructs an InvariantError and is the sole way one should be
// built, so every call site supplies the same four fields.
func New(component string, addr uint64, state, detail string) *InvariantError {
	return &InvariantError{Component: component, Addr: addr, State: state, Detail: detail}
}
