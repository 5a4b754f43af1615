// Package translate routes recognized transcripts to Google Cloud Translate.
package translate

import (
	"context"
	"fmt"
	"strings"

	gtranslate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/imartinez/glosa/internal/config"
)

// Result carries one translated transcript and its routing metadata.
type Result struct {
	Text         string
	Target       string
	LanguageName string // display name of the detected language
}

// Translator maps detected languages to configured targets.
type Translator struct {
	client  *gtranslate.Client
	targets map[string]config.TranslateTarget
}

// New dials the Translate API with the service-account key file.
func New(ctx context.Context, credentialsFile string, targets map[string]config.TranslateTarget) (*Translator, error) {
	opts := []option.ClientOption{}
	if strings.TrimSpace(credentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gtranslate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translate client: %w", err)
	}
	return &Translator{client: client, targets: targets}, nil
}

// Translate converts text out of the detected language. The second return
// reports whether a target mapping existed for that language.
func (t *Translator) Translate(ctx context.Context, text string, detectedLang string) (Result, bool, error) {
	target, ok := t.targets[strings.ToLower(strings.TrimSpace(detectedLang))]
	if !ok {
		return Result{}, false, nil
	}

	tag, err := language.Parse(target.Target)
	if err != nil {
		return Result{}, false, fmt.Errorf("parse target language %q: %w", target.Target, err)
	}

	translations, err := t.client.Translate(ctx, []string{text}, tag, &gtranslate.Options{
		Format: gtranslate.Text,
	})
	if err != nil {
		return Result{}, false, fmt.Errorf("translate transcript: %w", err)
	}
	if len(translations) == 0 {
		return Result{}, false, fmt.Errorf("translate returned no results")
	}

	return Result{
		Text:         translations[0].Text,
		Target:       target.Target,
		LanguageName: target.Name,
	}, true, nil
}

// Close releases the underlying API connection.
func (t *Translator) Close() error {
	return t.client.Close()
}
