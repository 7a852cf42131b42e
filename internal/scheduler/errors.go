package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Tick steps, used in logs and metric attributes.
const (
	StepSession    = "session"
	StepReminders  = "reminders"
	StepWorkTimers = "work_timers"
	StepDeliver    = "deliver"
	StepMarkFired  = "mark_fired"
)

// StepError records which part of a tick failed. The remaining steps still run.
type StepError struct {
	Step string
	Err  error
}

func (e StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }
func (e StepError) Unwrap() error { return e.Err }

// PanicError indicates a tick panicked. The loop recovers and continues with the next tick.
type PanicError struct {
	Value      any
	StackTrace string
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// IsPanic returns true if the error indicates a panic occurred.
func IsPanic(err error) bool {
	var panicErr PanicError
	return errors.As(err, &panicErr)
}

// ErrorHandler observes tick failures for telemetry/alerting.
type ErrorHandler interface {
	// HandleError is called once per failed step.
	HandleError(ctx context.Context, step string, err error)

	// HandlePanic is called when a tick panics.
	HandlePanic(ctx context.Context, panicVal any, stackTrace string)
}

// DefaultErrorHandler logs errors and panics with structured logging.
type DefaultErrorHandler struct{}

func (h *DefaultErrorHandler) HandleError(ctx context.Context, step string, err error) {
	slog.ErrorContext(ctx, "Scheduler step failed",
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
}

func (h *DefaultErrorHandler) HandlePanic(ctx context.Context, panicVal any, stackTrace string) {
	slog.ErrorContext(ctx, "Scheduler tick panicked",
		slog.Any("panic_value", panicVal),
		slog.String("stack_trace", stackTrace),
	)
}
