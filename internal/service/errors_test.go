package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/greenmark/notes-service/pkg/util/errorutil"
)

func TestMapStoreError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"no rows", pgx.ErrNoRows, apperrors.CodeNotFound},
		{"deadline", context.DeadlineExceeded, apperrors.CodeTimeout},
		{"canceled", context.Canceled, apperrors.CodeCanceled},
		{"driver failure", errors.New("connection refused"), apperrors.CodeStoreUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := mapStoreError(tc.err, "note")
			require.Error(t, mapped)
			assert.True(t, apperrors.HasCode(mapped, tc.code), "got %v", mapped)
		})
	}
}

func TestMapStoreErrorNil(t *testing.T) {
	assert.NoError(t, mapStoreError(nil, "note"))
}

func TestMapStoreErrorCanceledStaysBelowServerError(t *testing.T) {
	mapped := apperrors.ToDomainError(mapStoreError(context.Canceled, "note"))
	assert.Less(t, mapped.HTTPStatus, 500)
}
