package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorWrapper(t *testing.T) {
	wrapper := NewWrapper("learned", "save_answer")

	t.Run("Wrap returns nil for nil error", func(t *testing.T) {
		if got := wrapper.Wrap(nil, "No pude guardar la respuesta"); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
		if got := wrapper.Wrapf(nil, "x %d", 1); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("Wrap keeps context and cause", func(t *testing.T) {
		base := errors.New("disk full")
		err := wrapper.Wrap(base, "No pude guardar la respuesta")

		var wrapped *WrappedError
		if !errors.As(err, &wrapped) {
			t.Fatal("expected WrappedError")
		}
		if wrapped.Module != "learned" || wrapped.Operation != "save_answer" {
			t.Errorf("context = %s:%s", wrapped.Module, wrapped.Operation)
		}
		if !errors.Is(err, base) {
			t.Error("cause not reachable through Unwrap")
		}
		want := "[learned:save_answer] No pude guardar la respuesta: disk full"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("Wrapf formats", func(t *testing.T) {
		err := wrapper.Wrapf(errors.New("x"), "Semestre %d no disponible", 3)
		if GetUserMessage(err) != "Semestre 3 no disponible" {
			t.Errorf("GetUserMessage() = %q", GetUserMessage(err))
		}
	})
}

func TestGetUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error hides text", errors.New("sql: connection refused"), DefaultUserMessage},
		{"wrapped", NewWrapper("bot", "turn").Wrap(errors.New("x"), "Intenta de nuevo"), "Intenta de nuevo"},
		{"wrapped deeper", fmt.Errorf("outer: %w", NewWrapper("bot", "turn").Wrap(errors.New("x"), "Hola")), "Hola"},
		{"empty user message", NewWrapper("bot", "turn").Wrap(errors.New("x"), ""), DefaultUserMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetUserMessage(tt.err); got != tt.want {
				t.Errorf("GetUserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
