package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPixKeyType(t *testing.T) {
	cases := []struct {
		key  string
		want string
	}{
		{"123.456.789-01", PixKeyTypeCPF},
		{"12345678901", PixKeyTypeCPF},
		{"ana.souza@example.com", PixKeyTypeEmail},
		{"+55 (11) 98765-4321", PixKeyTypePhone},
		{"551133334444", PixKeyTypePhone},
		{"123e4567-e89b-12d3-a456-426614174000", PixKeyTypeEVP},
		{"123E4567-E89B-12D3-A456-426614174000", PixKeyTypeEVP},
		{"something-else", PixKeyTypeEVP},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PixKeyType(c.key), c.key)
	}
}
