package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValueCoercion(t *testing.T) {
	tests := []struct {
		name string
		in   any
		i    int
		f    float64
		s    string
		b    bool
	}{
		{name: "int", in: 7, i: 7, f: 7},
		{name: "toml int64", in: int64(25), i: 25, f: 25},
		{name: "json float", in: 80.5, i: 80, f: 80.5},
		{name: "string", in: "fifty", s: "fifty"},
		{name: "bool", in: true, b: true},
		{name: "nil", in: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.i, IntValue(tt.in))
			assert.InDelta(t, tt.f, FloatValue(tt.in), 1e-9)
			assert.Equal(t, tt.s, StringValue(tt.in))
			assert.Equal(t, tt.b, BoolValue(tt.in))
		})
	}
}
