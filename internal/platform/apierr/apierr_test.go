package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("bad url: %w", perrors.ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{fmt.Errorf("x: %w", fmt.Errorf("commit: %w", perrors.ErrNotFound)), http.StatusNotFound, "not_found"},
		{fmt.Errorf("dup: %w", perrors.ErrConflict), http.StatusConflict, "already_exists"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
		{fmt.Errorf("wrapped: %w", Conflict("custom", errors.New("c"))), http.StatusConflict, "custom"},
	}
	for _, tc := range cases {
		got := FromError(tc.err)
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("FromError(%v): want=%d/%s got=%d/%s", tc.err, tc.status, tc.code, got.Status, got.Code)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	e := NotFound("not_found", errors.New("tutorial t1 missing"))
	if e.Error() != "tutorial t1 missing" {
		t.Fatalf("Error: got=%q", e.Error())
	}
	if (&Error{Code: "c"}).Error() != "c" {
		t.Fatalf("code fallback failed")
	}
	if (&Error{Status: 418}).Error() != "api error (418)" {
		t.Fatalf("status fallback failed")
	}
}
