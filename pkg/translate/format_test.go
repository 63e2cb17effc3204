package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSuggestion(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"punctuation and duplicates", "the a quick, quick fox!", []string{"the", "quick", "fox"}},
		{"case-insensitive dedup keeps first form", "Camera camera CAMERA lens", []string{"Camera", "lens"}},
		{"cjk punctuation", "照相机；camera，lens。", []string{"camera", "lens"}},
		{"plus splits", "web+camera", []string{"web", "camera"}},
		{"single chars dropped", "a b c de", []string{"de"}},
		{"source language dropped", "n. 照相机 camera", []string{"camera"}},
		{"hyphen kept", "web-cam", []string{"web-cam"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSuggestion(tt.in))
		})
	}
}

func TestFormatTranslation(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"nil", nil, ""},
		{"articles and duplicates", []string{"the quick quick fox"}, "quick fox"},
		{"joins fragments", []string{"The camera", "a lens."}, "camera lens"},
		{"punctuation removed", []string{"user's (name)"}, "users name"},
		{"underscores removed", []string{"file_name"}, "filename"},
		{"duplicates are case-sensitive", []string{"Camera camera"}, "Camera camera"},
		{"extra spaces collapse", []string{"camera  ", " lens"}, "camera lens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTranslation(tt.in))
		})
	}
}
