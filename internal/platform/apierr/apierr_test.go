package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMessagePrecedence(t *testing.T) {
	cause := errors.New("utterance is empty")
	cases := []struct {
		name string
		err  *Error
		want string
	}{
		{"nil receiver", nil, ""},
		{"cause wins", New(http.StatusBadRequest, "invalid_request", cause), "utterance is empty"},
		{"code when no cause", New(http.StatusBadRequest, "invalid_request", nil), "invalid_request"},
		{"status only", New(http.StatusBadGateway, "", nil), "http 502"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUnwrapThroughWrapping(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("pipeline: %w", New(http.StatusBadRequest, "invalid_request", cause))

	var apiErr *Error
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As failed to find *Error")
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", apiErr.Status)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}
	if (*Error)(nil).Unwrap() != nil {
		t.Error("nil receiver Unwrap should return nil")
	}
}
