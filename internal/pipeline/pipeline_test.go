package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imartinez/glosa/internal/speech"
	"github.com/imartinez/glosa/internal/store"
	"github.com/imartinez/glosa/internal/transcript"
	"github.com/imartinez/glosa/internal/translate"
)

type fakeRecognizer struct {
	result speech.Result
	err    error
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []byte) (speech.Result, error) {
	return f.result, f.err
}

type fakeTranslator struct {
	result translate.Result
	ok     bool
	err    error
}

func (f *fakeTranslator) Translate(_ context.Context, _ string, _ string) (translate.Result, bool, error) {
	return f.result, f.ok, f.err
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []transcript.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg transcript.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakePublisher) published() []transcript.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]transcript.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

type fakeArchiver struct {
	mu   sync.Mutex
	rows []store.Transcript
}

func (f *fakeArchiver) Save(_ context.Context, t store.Transcript) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, t)
	return nil
}

func (f *fakeArchiver) saved() []store.Transcript {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Transcript, len(f.rows))
	copy(out, f.rows)
	return out
}

func testConfig() Config {
	return Config{
		SampleRate:     16000,
		FrameMS:        30,
		PaddingMS:      300,
		SilenceMS:      900,
		MaxUtteranceMS: 15000,
		Aggressiveness: 3,
		Workers:        2,
		QueueDepth:     8,
		Capitalize:     true,
		GuildID:        "g1",
		ChannelID:      "c1",
	}
}

func closePipeline(t *testing.T, p *Pipeline) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Close(ctx))
}

func TestNewRequiresRecognizerAndPublisher(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := New(ctx, testConfig(), nil, nil, nil, &fakePublisher{}, nil)
	require.Error(t, err)

	_, err = New(ctx, testConfig(), nil, &fakeRecognizer{}, nil, nil, nil)
	require.Error(t, err)
}

func TestProcessPublishesAndArchives(t *testing.T) {
	t.Parallel()

	recognizer := &fakeRecognizer{result: speech.Result{
		Segments: []speech.Segment{{Transcript: "hola a todos", Confidence: 0.92}},
		Language: "es-es",
	}}
	translator := &fakeTranslator{
		result: translate.Result{Text: "hello everyone", Target: "en", LanguageName: "Spanish"},
		ok:     true,
	}
	publisher := &fakePublisher{}
	archiver := &fakeArchiver{}

	p, err := New(context.Background(), testConfig(), nil, recognizer, translator, publisher, archiver)
	require.NoError(t, err)

	p.submit(Speaker{UserID: "u1", DisplayName: "Alice"}, make([]byte, 960))
	closePipeline(t, p)

	messages := publisher.published()
	require.Len(t, messages, 1)
	require.Equal(t, "Alice", messages[0].Speaker)
	require.Equal(t, "Hola a todos", messages[0].Original)
	require.Equal(t, "hello everyone", messages[0].Translation)
	require.Equal(t, "Spanish", messages[0].LanguageName)

	rows := archiver.saved()
	require.Len(t, rows, 1)
	require.Equal(t, "g1", rows[0].GuildID)
	require.Equal(t, "c1", rows[0].ChannelID)
	require.Equal(t, "u1", rows[0].UserID)
	require.Equal(t, "Alice", rows[0].UserName)
	require.Equal(t, "es-es", rows[0].Language)
	require.Equal(t, "Hola a todos", rows[0].Text)
	require.Equal(t, "hello everyone", rows[0].Translation)
	require.NotEmpty(t, rows[0].UtteranceID)
}

func TestProcessWithoutTranslator(t *testing.T) {
	t.Parallel()

	recognizer := &fakeRecognizer{result: speech.Result{
		Segments: []speech.Segment{{Transcript: "hello there"}},
		Language: "en-us",
	}}
	publisher := &fakePublisher{}

	p, err := New(context.Background(), testConfig(), nil, recognizer, nil, publisher, nil)
	require.NoError(t, err)

	p.submit(Speaker{UserID: "u1"}, make([]byte, 960))
	closePipeline(t, p)

	messages := publisher.published()
	require.Len(t, messages, 1)
	require.Empty(t, messages[0].Translation)
	require.Equal(t, "u1", messages[0].Speaker)
}

func TestProcessTranslatorWithoutMappingPublishesOriginalOnly(t *testing.T) {
	t.Parallel()

	recognizer := &fakeRecognizer{result: speech.Result{
		Segments: []speech.Segment{{Transcript: "bonjour"}},
		Language: "fr-fr",
	}}
	translator := &fakeTranslator{ok: false}
	publisher := &fakePublisher{}

	p, err := New(context.Background(), testConfig(), nil, recognizer, translator, publisher, nil)
	require.NoError(t, err)

	p.submit(Speaker{DisplayName: "Chloé"}, make([]byte, 960))
	closePipeline(t, p)

	messages := publisher.published()
	require.Len(t, messages, 1)
	require.Empty(t, messages[0].Translation)
	require.Equal(t, "Bonjour", messages[0].Original)
}

func TestProcessTranslationErrorStillPublishes(t *testing.T) {
	t.Parallel()

	recognizer := &fakeRecognizer{result: speech.Result{
		Segments: []speech.Segment{{Transcript: "hola"}},
		Language: "es-es",
	}}
	translator := &fakeTranslator{err: errors.New("quota exceeded")}
	publisher := &fakePublisher{}

	p, err := New(context.Background(), testConfig(), nil, recognizer, translator, publisher, nil)
	require.NoError(t, err)

	p.submit(Speaker{UserID: "u1"}, make([]byte, 960))
	closePipeline(t, p)

	messages := publisher.published()
	require.Len(t, messages, 1)
	require.Empty(t, messages[0].Translation)
}

func TestProcessRecognitionFailurePostsNotice(t *testing.T) {
	t.Parallel()

	recognizer := &fakeRecognizer{err: errors.New("deadline exceeded")}
	publisher := &fakePublisher{}
	archiver := &fakeArchiver{}

	p, err := New(context.Background(), testConfig(), nil, recognizer, nil, publisher, archiver)
	require.NoError(t, err)

	p.submit(Speaker{UserID: "u1"}, make([]byte, 960))
	closePipeline(t, p)

	messages := publisher.published()
	require.Len(t, messages, 1)
	require.Contains(t, messages[0].Original, "could not process")
	require.Empty(t, archiver.saved())
}

func TestProcessSkipsEmptyTranscript(t *testing.T) {
	t.Parallel()

	recognizer := &fakeRecognizer{result: speech.Result{Language: "es-es"}}
	publisher := &fakePublisher{}

	p, err := New(context.Background(), testConfig(), nil, recognizer, nil, publisher, nil)
	require.NoError(t, err)

	p.submit(Speaker{UserID: "u1"}, make([]byte, 960))
	closePipeline(t, p)

	require.Empty(t, publisher.published())
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Workers = 1
	cfg.QueueDepth = 1

	block := make(chan struct{})
	recognizer := &blockingRecognizer{release: block}
	publisher := &fakePublisher{}

	p, err := New(context.Background(), cfg, nil, recognizer, nil, publisher, nil)
	require.NoError(t, err)

	// First fills the worker, second fills the queue, third is dropped.
	for i := 0; i < 3; i++ {
		p.submit(Speaker{UserID: "u1"}, make([]byte, 960))
	}
	close(block)
	closePipeline(t, p)

	published := len(publisher.published())
	require.GreaterOrEqual(t, published, 1)
	require.LessOrEqual(t, published, 2)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background(), testConfig(), nil, &fakeRecognizer{}, nil, &fakePublisher{}, nil)
	require.NoError(t, err)

	closePipeline(t, p)
	closePipeline(t, p)
}

func TestSpeakerNameFallbacks(t *testing.T) {
	t.Parallel()

	p := &Pipeline{}
	require.Equal(t, "Alice", p.speakerName(Speaker{UserID: "u1", DisplayName: "Alice"}))
	require.Equal(t, "u1", p.speakerName(Speaker{UserID: "u1"}))
	require.Equal(t, "unknown speaker", p.speakerName(Speaker{}))
}

type blockingRecognizer struct {
	release chan struct{}
}

func (b *blockingRecognizer) Recognize(ctx context.Context, _ []byte) (speech.Result, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return speech.Result{Segments: []speech.Segment{{Transcript: "hola"}}}, nil
}
