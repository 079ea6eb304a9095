package core

import "fmt"

// EngineError wraps a rejection from the conferencing engine. It is surfaced
// to the caller of the operation that failed and never alters roster state.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string { return fmt.Sprintf("engine: %s: %v", e.Op, e.Err) }
func (e *EngineError) Unwrap() error { return e.Err }
