package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_DefaultPage(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"vacía", PageRequest{}, PageRequest{Limit: DefaultPageLimit}},
		{"negativos", PageRequest{Limit: -3, Offset: -1}, PageRequest{Limit: DefaultPageLimit}},
		{"dentro de rango", PageRequest{Limit: 20, Offset: 40}, PageRequest{Limit: 20, Offset: 40}},
		{"sobre el máximo", PageRequest{Limit: 10_000}, PageRequest{Limit: MaxPageLimit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.DefaultPage()
			assert.Equal(t, tt.want, p)
		})
	}
}
