package core

import (
	"errors"
	"testing"
)

func TestValidateTalk(t *testing.T) {
	tests := []struct {
		name    string
		talk    *Talk
		wantErr error
	}{
		{name: "valid talk", talk: &Talk{ID: "1"}, wantErr: nil},
		{name: "valid talk without transcript", talk: &Talk{ID: "1", Transcript: ""}, wantErr: nil},
		{name: "nil talk", talk: nil, wantErr: ErrInvalidTalk},
		{name: "empty id", talk: &Talk{Title: "x"}, wantErr: ErrEmptyID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTalk(tt.talk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateTalk() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTalk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateVector(t *testing.T) {
	tests := []struct {
		name      string
		vector    *Vector
		dimension int
		wantErr   error
	}{
		{name: "valid", vector: &Vector{ID: "1_chunk_0", Values: []float32{0.1, 0.2}}, dimension: 2},
		{name: "dimension check disabled", vector: &Vector{ID: "1_chunk_0", Values: []float32{0.1}}, dimension: 0},
		{name: "nil vector", vector: nil, dimension: 2, wantErr: ErrInvalidVector},
		{name: "empty id", vector: &Vector{Values: []float32{0.1}}, dimension: 1, wantErr: ErrEmptyID},
		{name: "empty values", vector: &Vector{ID: "x"}, dimension: 1, wantErr: ErrEmptyValues},
		{name: "wrong dimension", vector: &Vector{ID: "x", Values: []float32{0.1, 0.2, 0.3}}, dimension: 2, wantErr: ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVector(tt.vector, tt.dimension)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateVector() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateVector() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidVector) {
				t.Errorf("ValidateVector() error = %v, want wrapped %v", err, ErrInvalidVector)
			}
		})
	}
}
