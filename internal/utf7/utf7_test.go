package utf7_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jefferyq2/go-imap-core/internal/utf7"
)

var asciiCases = []struct {
	decoded string
	encoded string
}{
	{"", ""},
	{"abc", "abc"},
	{"&", "&-"},
	{"a&b", "a&-b"},
	{"INBOX/Sent", "INBOX/Sent"},
}

func TestEncodeASCII(t *testing.T) {
	for _, tc := range asciiCases {
		got, err := utf7.Encoding.NewEncoder().String(tc.decoded)
		require.NoError(t, err)
		assert.Equalf(t, tc.encoded, got, "encoding %q", tc.decoded)
	}
}

func TestDecodeASCII(t *testing.T) {
	for _, tc := range asciiCases {
		got, err := utf7.Encoding.NewDecoder().String(tc.encoded)
		require.NoError(t, err)
		assert.Equalf(t, tc.decoded, got, "decoding %q", tc.encoded)
	}
}

func TestRoundTripNonASCII(t *testing.T) {
	for _, s := range []string{"été", "日本語", "a😀b"} {
		encoded, err := utf7.Encoding.NewEncoder().String(s)
		require.NoError(t, err)
		decoded, err := utf7.Encoding.NewDecoder().String(encoded)
		require.NoError(t, err)
		assert.Equalf(t, s, decoded, "round-trip of %q via %q", s, encoded)
	}
}
