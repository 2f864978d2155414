package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		filter string
		name   string
		want   bool
	}{
		{"", "anything.txt", true},
		{"   ", "anything.txt", true},
		{"*.img", "a.img", true},
		{"*.img", "A.IMG", true},
		{"*.img", "a.imgx", false},
		{"*.img", "aimg", false},
		{"mic?.mrc", "mic1.mrc", true},
		{"mic?.mrc", "mic.mrc", false},
		{"mic?.mrc", "mic12.mrc", false},
		{"mic", "mic.mrc", false},
		{"mic*", "mic.mrc", true},
		{"a b", "a", true},
		{"a b", "b", true},
		{"a b", "c", false},
		{"*.sel  *.xmd", "images.xmd", true},
		{"[ab].png", "[ab].png", true},
		{"[ab].png", "a.png", false},
		{"{x,y}", "{x,y}", true},
		{"{x,y}", "x", false},
		{`back\slash`, `back\slash`, true},
	}

	for _, tt := range tests {
		t.Run(tt.filter+"/"+tt.name, func(t *testing.T) {
			f, err := CompileFilter(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Match(tt.name))
		})
	}
}

func TestFilterText(t *testing.T) {
	f, err := CompileFilter("*.png *.jpg")
	require.NoError(t, err)
	assert.Equal(t, "*.png *.jpg", f.Text())
	assert.False(t, f.Empty())

	f, err = CompileFilter("")
	require.NoError(t, err)
	assert.True(t, f.Empty())
}
