package service

import (
	"errors"
	"fmt"
	"testing"

	"procurement/internal/repository"
)

func TestTranslateStoreErr(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"not found", repository.ErrNotFound, ErrNotFound},
		{"lost version race", repository.ErrVersionConflict, ErrConflict},
		{"wrapped version race", fmt.Errorf("persist: %w", repository.ErrVersionConflict), ErrConflict},
		{"passthrough", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateStoreErr(tt.err, "quotation q-1")
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
