package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickLargestSrcset(t *testing.T) {
	tests := []struct {
		name   string
		srcset string
		want   string
	}{
		{"empty", "", ""},
		{"single", "https://media.tacdn.com/a.jpg", "https://media.tacdn.com/a.jpg"},
		{"width descriptors", "https://m/a.jpg 200w, https://m/b.jpg 800w, https://m/c.jpg 400w", "https://m/b.jpg"},
		{"density descriptors", "https://m/a.jpg 2x, https://m/b.jpg 1x", "https://m/a.jpg"},
		{"no descriptors takes last", "https://m/a.jpg, https://m/b.jpg", "https://m/b.jpg"},
		{"equal descriptors takes later", "https://m/a.jpg 1x, https://m/b.jpg 1x", "https://m/b.jpg"},
		{"stray commas", " , https://m/a.jpg 100w ,", "https://m/a.jpg"},
		{"query strings", "https://m/p.jpg?w=100&h=-1&s=1 100w, https://m/p.jpg?w=1200&h=-1&s=1 1200w", "https://m/p.jpg?w=1200&h=-1&s=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PickLargestSrcset(tt.srcset))
		})
	}
}

func TestBoxCenter(t *testing.T) {
	assert.Equal(t, Point{X: 60, Y: 45}, Box{X: 10, Y: 20, Width: 100, Height: 50}.Center())
}
