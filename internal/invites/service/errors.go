package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/clubhouse/internal/invites/store"
)

var (
	ErrValidation       = errors.New("invalid request")
	ErrUnauthorized     = errors.New("not allowed to perform this action")
	ErrNotFound         = errors.New("invite not found")
	ErrExpired          = errors.New("invite has expired")
	ErrAlreadyConsumed  = errors.New("invite has already been used")
	ErrAccountExists    = errors.New("an account with this email already exists")
	ErrTransientStorage = errors.New("storage temporarily unavailable, try again")

	// ErrEmailMismatch is a validation failure: the redeemer's email differs
	// from the address the invite was sent to.
	ErrEmailMismatch = fmt.Errorf("%w: email does not match the invite", ErrValidation)

	ErrAlreadyBootstrapped = errors.New("system already bootstrapped")
)

// storageErr separates retryable storage failures from definitive outcomes.
// A caller cancelling its own context is not transient and passes through.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, store.ErrUnavailable) {
		return fmt.Errorf("%w: %w", ErrTransientStorage, err)
	}
	return err
}
