package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleJoinsSegments(t *testing.T) {
	t.Parallel()

	got := Assemble([]string{"hola a todos", "qué tal"}, Options{})
	require.Equal(t, "hola a todos qué tal", got)
}

func TestAssembleMergesContinuations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		segments []string
		want     string
	}{
		{
			name:     "growing prefix replaces previous",
			segments: []string{"buenos", "buenos días", "buenos días a todos"},
			want:     "buenos días a todos",
		},
		{
			name:     "exact duplicate dropped",
			segments: []string{"hello there", "hello there"},
			want:     "hello there",
		},
		{
			name:     "shrunk repeat dropped",
			segments: []string{"hello there friend", "hello there"},
			want:     "hello there friend",
		},
		{
			name:     "unrelated segments both kept",
			segments: []string{"first thought", "second thought"},
			want:     "first thought second thought",
		},
		{
			name:     "empty and whitespace segments skipped",
			segments: []string{"", "   ", "real words"},
			want:     "real words",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Assemble(tc.segments, Options{}))
		})
	}
}

func TestAssembleNormalizesWhitespace(t *testing.T) {
	t.Parallel()

	got := Assemble([]string{"  hola \t mundo  "}, Options{})
	require.Equal(t, "hola mundo", got)
}

func TestAssembleEmpty(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Assemble(nil, Options{}))
	require.Equal(t, "", Assemble([]string{"", "  "}, Options{}))
}

func TestAssembleCapitalizeSentences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		segments []string
		want     string
	}{
		{
			name:     "first letter capitalized",
			segments: []string{"hola mundo"},
			want:     "Hola mundo",
		},
		{
			name:     "after period",
			segments: []string{"hola. qué tal? bien! gracias"},
			want:     "Hola. Qué tal? Bien! Gracias",
		},
		{
			name:     "inverted punctuation passes through",
			segments: []string{"¿qué hora es?"},
			want:     "¿Qué hora es?",
		},
		{
			name:     "leading digit ends sentence start",
			segments: []string{"42 is the answer. really"},
			want:     "42 is the answer. Really",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Assemble(tc.segments, Options{CapitalizeSentences: true}))
		})
	}
}
