package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"mini-planner/apperr"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.InvalidIdentifier, http.StatusBadRequest},
		{apperr.DuplicateKey, http.StatusBadRequest},
		{apperr.MissingField, http.StatusBadRequest},
		{apperr.InvalidCredentials, http.StatusBadRequest},
		{apperr.Unauthenticated, http.StatusUnauthorized},
		{apperr.AccessDenied, http.StatusForbidden},
		{apperr.EntityNotFound, http.StatusUnprocessableEntity},
		{apperr.RelatedEntityMissing, http.StatusUnprocessableEntity},
		{apperr.EntityNotUpdated, http.StatusUnprocessableEntity},
		{apperr.EntityNotDeleted, http.StatusUnprocessableEntity},
		{apperr.ValidationFailed, http.StatusUnprocessableEntity},
		{apperr.Internal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := apperr.HTTPStatus(tt.kind); got != tt.want {
				t.Errorf("HTTPStatus(%v) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Run("Wrapped kind is found", func(t *testing.T) {
		err := fmt.Errorf("delete list: %w", apperr.New(apperr.EntityNotDeleted))
		if got := apperr.KindOf(err); got != apperr.EntityNotDeleted {
			t.Errorf("KindOf() = %v, want %v", got, apperr.EntityNotDeleted)
		}
	})

	t.Run("Plain error is internal", func(t *testing.T) {
		if got := apperr.KindOf(errors.New("boom")); got != apperr.Internal {
			t.Errorf("KindOf() = %v, want %v", got, apperr.Internal)
		}
	})

	t.Run("Nil is never a kind", func(t *testing.T) {
		if apperr.Is(nil, apperr.Internal) {
			t.Error("Is(nil, Internal) = true, want false")
		}
	})
}

func TestMessages(t *testing.T) {
	if got := apperr.MissingRelation("listID").Error(); got != "The provided listID is not exists" {
		t.Errorf("MissingRelation message = %q", got)
	}
	if got := apperr.Duplicate("email", "userName").Error(); got != "The fields [email,userName] are already in use." {
		t.Errorf("Duplicate message = %q", got)
	}
	if got := apperr.New(apperr.InvalidIdentifier).Error(); got != "Invalid ID" {
		t.Errorf("InvalidIdentifier message = %q", got)
	}

	cause := errors.New("connection refused")
	wrapped := apperr.Wrap(apperr.Internal, cause)
	if !errors.Is(wrapped, cause) {
		t.Error("Wrap should keep the cause reachable with errors.Is")
	}
}
