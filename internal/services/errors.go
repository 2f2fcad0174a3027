package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks network or API failures that are worth retrying
	// on a later run.
	ErrTransient = errors.New("transient failure")
	// ErrValidation marks bad input: unknown pattern values, malformed
	// timestamps, missing required fields.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or unusable credentials and settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks missing local files or unmatched lookups.
	ErrNotFound = errors.New("not found")
	// ErrIntegration marks a nonconforming response from an external
	// service, such as a generator reply without an image payload.
	ErrIntegration = errors.New("integration error")
	// ErrExhausted marks a retry budget that has been spent.
	ErrExhausted = errors.New("retry budget exhausted")
)

// Wrap builds an error message that includes step context while tagging it
// with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, step, operation, message string, err error) error {
	detail := buildDetail(step, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classification helpers for the sentinel markers.

func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsIntegration(err error) bool { return errors.Is(err, ErrIntegration) }

func IsExhausted(err error) bool { return errors.Is(err, ErrExhausted) }

func buildDetail(step, operation, message string) string {
	parts := make([]string, 0, 3)
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
