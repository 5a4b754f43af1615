// Package speech wraps Google Cloud Speech-to-Text recognition for utterances.
package speech

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	speechapi "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/imartinez/glosa/internal/config"
)

// Segment is one recognized alternative with its detected language.
type Segment struct {
	Transcript string
	Confidence float32
}

// Result is the per-utterance recognition output.
type Result struct {
	Segments []Segment
	Language string // detected BCP-47 code, lowercased base form (e.g. "es")
}

// ClientConfig controls recognition hints sent with every request.
type ClientConfig struct {
	CredentialsFile      string
	Language             string
	Alternatives         []string
	SampleRate           int
	AutomaticPunctuation bool
	Model                string
	Phrases              []config.SpeechPhrase
	DebugResponseSink    io.Writer
}

// Client owns one Speech-to-Text API client and its request template.
type Client struct {
	api *speechapi.Client
	cfg ClientConfig

	mu sync.Mutex // guards the debug sink
}

// NewClient dials the Speech-to-Text API using the service-account key file.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "es-ES"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}

	opts := []option.ClientOption{}
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	api, err := speechapi.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &Client{api: api, cfg: cfg}, nil
}

// Recognize transcribes one LINEAR16 utterance.
func (c *Client) Recognize(ctx context.Context, pcm []byte) (Result, error) {
	if len(pcm) == 0 {
		return Result{}, nil
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(c.cfg.SampleRate),
			LanguageCode:               c.cfg.Language,
			AlternativeLanguageCodes:   c.cfg.Alternatives,
			EnableAutomaticPunctuation: c.cfg.AutomaticPunctuation,
			Model:                      strings.TrimSpace(c.cfg.Model),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	}

	for _, phrase := range c.cfg.Phrases {
		phraseText := strings.TrimSpace(phrase.Phrase)
		if phraseText == "" {
			continue
		}
		req.Config.SpeechContexts = append(req.Config.SpeechContexts,
			&speechpb.SpeechContext{Phrases: []string{phraseText}, Boost: phrase.Boost},
		)
	}

	resp, err := c.api.Recognize(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("recognize utterance: %w", err)
	}
	c.dumpResponse(resp)

	return collectResult(resp), nil
}

// collectResult flattens recognition results into transcript segments.
func collectResult(resp *speechpb.RecognizeResponse) Result {
	result := Result{}
	for _, r := range resp.GetResults() {
		alternatives := r.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		transcript := strings.TrimSpace(alternatives[0].GetTranscript())
		if transcript == "" {
			continue
		}
		result.Segments = append(result.Segments, Segment{
			Transcript: transcript,
			Confidence: alternatives[0].GetConfidence(),
		})
		if result.Language == "" {
			result.Language = baseLanguage(r.GetLanguageCode())
		}
	}
	return result
}

// baseLanguage lowers "es-ES" to "es" for translation target lookup.
func baseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if idx := strings.IndexByte(code, '-'); idx > 0 {
		return code[:idx]
	}
	return code
}

// dumpResponse appends one JSON line per raw API response when debugging.
func (c *Client) dumpResponse(resp *speechpb.RecognizeResponse) {
	sink := c.cfg.DebugResponseSink
	if sink == nil {
		return
	}
	b, err := protojson.Marshal(resp)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = sink.Write(append(b, '\n'))
}

// Close releases the underlying API connection.
func (c *Client) Close() error {
	return c.api.Close()
}
