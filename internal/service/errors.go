package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/greenmark/notes-service/pkg/util/errorutil"
)

// mapStoreError converts store-level failures to typed conditions. Driver
// details never reach the caller.
func mapStoreError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeout(resource+" store timed out", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewRequestCanceled(err)
	default:
		return apperrors.NewStoreUnavailable(err)
	}
}
