package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"arkive/pkg/apierror"
)

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "keeps plain names", input: "beach.png", want: "beach.png"},
		{name: "replaces unsafe characters", input: ` report<2026>?.pdf `, want: "report_2026__.pdf"},
		{name: "replaces key separators", input: "trip/photo#1.jpg", want: "trip_photo_1.jpg"},
		{name: "strips zero width characters", input: "pho\u200bto\ufeff.jpg", want: "photo.jpg"},
		{name: "strips control characters", input: "line\nbreak\t.txt", want: "linebreak.txt"},
		{name: "keeps unicode letters", input: "ảnh cưới.jpg", want: "ảnh cưới.jpg"},
		{name: "allows device-like prefixes", input: "CONTRACT.pdf", want: "CONTRACT.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			actual, err := SanitizeFilename(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, actual)
		})
	}
}

func TestSanitizeFilenameRejects(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"   ", "\u200b\u200c", ".env", "CON.txt", "nul", "LPT9.log"} {
		_, err := SanitizeFilename(input)
		require.ErrorIs(t, err, apierror.BadRequest, input)
	}
}

func TestSanitizeFilenameTruncatesByRune(t *testing.T) {
	t.Parallel()

	actual, err := SanitizeFilename(strings.Repeat("界", 300) + ".png")
	require.NoError(t, err)
	require.Equal(t, maxFilenameRunes, utf8.RuneCountInString(actual))
	require.True(t, utf8.ValidString(actual))
}
