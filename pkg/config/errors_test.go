package config

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Classification(t *testing.T) {
	cause := errors.New("boom")
	err := NewLoadFailure("failed to execute configuration script", cause).WithPath("app.lua")

	if !errors.Is(err, ErrLoadFailure) {
		t.Error("expected errors.Is to match the load failure sentinel")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("kinds must not match across classes")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable")
	}

	wrapped := fmt.Errorf("loading: %w", err)
	if !IsLoadFailure(wrapped) {
		t.Error("classification must survive wrapping")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors have no kind")
	}
}

func TestError_Message(t *testing.T) {
	err := NewNotFound("key not present in configuration").WithPath("app.lua").WithKey("name")

	msg := err.Error()
	for _, part := range []string{"[not_found]", "path=app.lua", "key=name"} {
		if !strings.Contains(msg, part) {
			t.Errorf("expected %q in %q", part, msg)
		}
	}
}
