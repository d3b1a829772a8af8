package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassesThroughDomainErrors(t *testing.T) {
	original := NewNotFoundInTrash("c1")
	wrapped := fmt.Errorf("restore: %w", original)

	mapped := ToDomainError(wrapped)
	assert.Equal(t, "NOT_FOUND_IN_TRASH", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
	assert.Equal(t, "c1", mapped.Details["customer_id"])
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	mapped := ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	assert.Equal(t, "NOT_FOUND", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainErrorMapsDeadline(t *testing.T) {
	mapped := ToDomainError(context.DeadlineExceeded)
	assert.Equal(t, "TRANSIENT_STORE_ERROR", mapped.Code)
	assert.Equal(t, http.StatusServiceUnavailable, mapped.HTTPStatus)
}

func TestToDomainErrorDefaultsToInternal(t *testing.T) {
	mapped := ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
}

func TestDependentDeletionFailedCarriesKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewDependentDeletionFailed("tasks", cause)

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "DEPENDENT_DELETION_FAILED", domainErr.Code)
	assert.Equal(t, "tasks", domainErr.Details["kind"])
	assert.ErrorIs(t, err, cause)
}
