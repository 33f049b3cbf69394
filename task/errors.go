package task

import "fmt"

// DecodeError means the input is not a valid document or image.
type DecodeError struct {
	Subject string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Subject, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TransformError is a failure while remapping pixels or mutating a shape.
type TransformError struct {
	Op  string
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// UnexpectedWorkerError wraps a panic that escaped a job.
type UnexpectedWorkerError struct {
	Filename string
	Panic    interface{}
}

func (e *UnexpectedWorkerError) Error() string {
	return fmt.Sprintf("panic at runtime: %v", e.Panic)
}
