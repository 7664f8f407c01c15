// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gibiteca/internal/platform/apperr"
	"github.com/taibuivan/gibiteca/internal/platform/dberr"
)

/*
TestWrap verifies the classification of storage errors.
*/
func TestWrap(t *testing.T) {
	t.Run("nil_passthrough", func(t *testing.T) {
		assert.NoError(t, dberr.Wrap(nil, "get_collection"))
	})

	t.Run("no_rows_is_not_found", func(t *testing.T) {
		err := dberr.Wrap(fmt.Errorf("scan: %w", pgx.ErrNoRows), "get_collection")
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusNotFound, ae.HTTPStatus)
	})

	t.Run("unique_violation_is_conflict", func(t *testing.T) {
		err := dberr.Wrap(&pgconn.PgError{Code: "23505"}, "create_user")
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "CONFLICT", ae.Code)
	})

	t.Run("other_errors_are_persistence", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := dberr.Wrap(cause, "create_issue")
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "PERSISTENCE_ERROR", ae.Code)
		assert.Equal(t, "Could not create issue", ae.Message)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("app_errors_untouched", func(t *testing.T) {
		original := apperr.Forbidden("nope")
		assert.Same(t, original, dberr.Wrap(original, "x"))
	})
}
