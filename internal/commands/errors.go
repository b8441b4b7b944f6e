package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"
)

// ErrorRule tags execution errors that match Target with a category and text
// code. Rules are checked in order and the first match wins.
type ErrorRule struct {
	Target   error
	Category goerrors.Category
	TextCode string
	Message  string
}

func wrapValidationError(command string, err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode).
		WithMetadata(commandMetadata(command))
}

// wrapContextError classifies cancellation and deadline errors, including
// ones the wrapped function returned inside its own error chain.
func wrapContextError(command string, err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	var wrapped *goerrors.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		wrapped = goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	case errors.Is(err, context.Canceled):
		wrapped = goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	default:
		wrapped = goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
	return wrapped.WithMetadata(commandMetadata(command))
}

func wrapExecuteError(command string, err error, rules []ErrorRule) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	for _, rule := range rules {
		if rule.Target == nil || !errors.Is(err, rule.Target) {
			continue
		}
		message := rule.Message
		if message == "" {
			message = "command execution failed"
		}
		return goerrors.Wrap(err, rule.Category, message).
			WithTextCode(rule.TextCode).
			WithMetadata(commandMetadata(command))
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(commandExecuteFailed).
		WithMetadata(commandMetadata(command))
}

func commandMetadata(command string) map[string]any {
	return map[string]any{"command": command}
}
