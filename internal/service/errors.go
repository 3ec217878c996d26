package service

import (
	"errors"
	"fmt"
	"strconv"

	"project-planner/internal/repository"
)

// NotFoundError is returned when a requested id does not resolve.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no entity for id %s", e.ID)
}

// ValidationError is returned for requests that cannot succeed as given.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// translate maps graph errors onto resolver errors and passes anything
// else through.
func translate(err error) error {
	var refErr *repository.ReferenceError
	if errors.As(err, &refErr) {
		return &NotFoundError{ID: strconv.FormatUint(uint64(refErr.ID), 10)}
	}
	var violation *repository.InvariantViolation
	if errors.As(err, &violation) {
		return &ValidationError{Message: violation.Error()}
	}
	return err
}
