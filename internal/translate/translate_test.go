package translate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imartinez/glosa/internal/config"
)

func TestTranslateWithoutTargetMapping(t *testing.T) {
	t.Parallel()

	tr := &Translator{targets: map[string]config.TranslateTarget{
		"es": {Target: "en", Name: "Spanish"},
	}}

	// Unmapped language bypasses the API call entirely.
	_, ok, err := tr.Translate(context.Background(), "bonjour", "fr")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = tr.Translate(context.Background(), "hello", "")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTranslateNormalizesDetectedLanguage(t *testing.T) {
	t.Parallel()

	tr := &Translator{targets: map[string]config.TranslateTarget{
		"es": {Target: "!!", Name: "Spanish"},
	}}

	// Lookup matches case-insensitively; the bad target then fails parsing,
	// proving the mapping was found.
	_, _, err := tr.Translate(context.Background(), "hola", " ES ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse target language")
}
