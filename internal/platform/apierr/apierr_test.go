package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", Unauthorized("no token"), http.StatusUnauthorized},
		{"wrapped_forbidden", fmt.Errorf("outer: %w", Forbidden("not yours")), http.StatusForbidden},
		{"conflict", Conflict("dup"), http.StatusConflict},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"internal", Internal("db", errors.New("down")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusOf(tc.err); got != tc.want {
				t.Fatalf("StatusOf=%d want %d", got, tc.want)
			}
		})
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("insert target", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be unwrappable")
	}
}

func TestWithDetailsCopies(t *testing.T) {
	base := BadRequest("invalid body")
	withD := base.WithDetails("phrase is required")
	if base.Details != "" {
		t.Fatal("base mutated")
	}
	if withD.Details != "phrase is required" || withD.Status != http.StatusBadRequest {
		t.Fatalf("unexpected copy: %+v", withD)
	}
}

func TestMessageHidesInternalCause(t *testing.T) {
	err := Internal("failed to create session", errors.New("pq: deadlock detected"))
	if got := err.Message(); got != "failed to create session" {
		t.Fatalf("Message=%q", got)
	}
	if got := New(http.StatusBadGateway, "upstream", errors.New("secret host")).Message(); got != "internal server error" {
		t.Fatalf("untyped 5xx Message=%q", got)
	}
	if got := NotFound("profile not found").Message(); got != "profile not found" {
		t.Fatalf("4xx Message=%q", got)
	}
}
