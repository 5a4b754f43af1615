package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderPlainUtterance(t *testing.T) {
	t.Parallel()

	msg := Message{Speaker: "alice", Original: "hola mundo"}
	require.Equal(t, "🗣️ **alice**: hola mundo", msg.Render())
}

func TestRenderTranslatedUtterance(t *testing.T) {
	t.Parallel()

	msg := Message{
		Speaker:      "alice",
		LanguageName: "Spanish",
		Original:     "hola mundo",
		Translation:  "hello world",
	}
	require.Equal(t, "**alice** (Spanish)\nOriginal: hola mundo\nTranslated: hello world", msg.Render())
}

func TestRenderTranslatedWithoutLanguageName(t *testing.T) {
	t.Parallel()

	msg := Message{Speaker: "bob", Original: "hola", Translation: "hello"}
	require.Equal(t, "**bob**\nOriginal: hola\nTranslated: hello", msg.Render())
}

func TestRenderStaysWithinMessageLimit(t *testing.T) {
	t.Parallel()

	msg := Message{Speaker: "alice", Original: strings.Repeat("palabra ", 400)}
	out := msg.Render()
	require.LessOrEqual(t, len(out), 2000)
	require.True(t, strings.HasSuffix(out, "…"))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{name: "under limit unchanged", text: "short", limit: 10, want: "short"},
		{name: "exact limit unchanged", text: "12345", limit: 5, want: "12345"},
		{name: "over limit gets ellipsis", text: "abcdefghij", limit: 8, want: "abcde…"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Truncate(tc.text, tc.limit))
		})
	}
}

func TestTruncateDoesNotSplitRunes(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("ñ", 100) // 2 bytes each
	out := Truncate(text, 21)
	require.LessOrEqual(t, len(out), 21)
	require.True(t, strings.HasSuffix(out, "…"))
	for _, r := range out {
		require.NotEqual(t, '�', r)
	}
}
