package domain

import (
	"errors"
	"math"
	"testing"
)

func TestNodeValidate(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		wantErr error
	}{
		{"valid", NewNode("a", 1.5, -2), nil},
		{"empty id", NewNode("", 0, 0), ErrEmptyNodeID},
		{"nan x", NewNode("a", math.NaN(), 0), ErrInvalidPosition},
		{"infinite y", NewNode("a", 0, math.Inf(1)), ErrInvalidPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
