// Package pipeline turns per-speaker Opus packets into published transcripts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/imartinez/glosa/internal/audio"
	"github.com/imartinez/glosa/internal/speech"
	"github.com/imartinez/glosa/internal/store"
	"github.com/imartinez/glosa/internal/transcript"
	"github.com/imartinez/glosa/internal/translate"
	"github.com/imartinez/glosa/internal/vad"
)

// Recognizer transcribes one LINEAR16 utterance.
type Recognizer interface {
	Recognize(ctx context.Context, pcm []byte) (speech.Result, error)
}

// Translator converts a transcript out of its detected language.
type Translator interface {
	Translate(ctx context.Context, text string, detectedLang string) (translate.Result, bool, error)
}

// Publisher posts one rendered utterance to the guild text channel.
type Publisher interface {
	Publish(ctx context.Context, msg transcript.Message) error
}

// Archiver persists one completed utterance.
type Archiver interface {
	Save(ctx context.Context, t store.Transcript) error
}

// Speaker identifies the user behind one voice stream.
type Speaker struct {
	UserID      string
	DisplayName string
}

// Config sizes segmentation, concurrency, and debug output for one pipeline.
type Config struct {
	SampleRate     int
	FrameMS        int
	PaddingMS      int
	SilenceMS      int
	MaxUtteranceMS int
	Aggressiveness int

	Workers      int
	QueueDepth   int
	TempAudioDir string
	AudioDump    bool
	Capitalize   bool

	GuildID   string
	ChannelID string
}

// job is one closed utterance awaiting recognition.
type job struct {
	id      string
	speaker Speaker
	pcm     []byte
}

// Pipeline owns per-speaker segmentation state and the recognition workers.
type Pipeline struct {
	cfg       Config
	logger    *slog.Logger
	recognize Recognizer
	translate Translator
	publish   Publisher
	archive   Archiver

	jobs  chan job
	group *errgroup.Group

	mu       sync.Mutex
	streams  map[uint32]*speakerStream
	speakers map[uint32]Speaker
	closed   bool
}

// speakerStream holds one SSRC's decode and segmentation chain.
type speakerStream struct {
	decoder   *audio.OpusDecoder
	splitter  *audio.FrameSplitter
	segmenter *vad.Segmenter
}

// New builds a pipeline and starts its recognition workers.
func New(
	ctx context.Context,
	cfg Config,
	logger *slog.Logger,
	recognizer Recognizer,
	translator Translator,
	publisher Publisher,
	archiver Archiver,
) (*Pipeline, error) {
	if recognizer == nil {
		return nil, fmt.Errorf("pipeline requires a recognizer")
	}
	if publisher == nil {
		return nil, fmt.Errorf("pipeline requires a publisher")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 16
	}

	p := &Pipeline{
		cfg:       cfg,
		logger:    logger,
		recognize: recognizer,
		translate: translator,
		publish:   publisher,
		archive:   archiver,
		jobs:      make(chan job, cfg.QueueDepth),
		streams:   make(map[uint32]*speakerStream),
		speakers:  make(map[uint32]Speaker),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	p.group = group
	for i := 0; i < cfg.Workers; i++ {
		group.Go(func() error {
			p.worker(groupCtx)
			return nil
		})
	}

	return p, nil
}

// SetSpeaker records the user behind an SSRC from a speaking update.
func (p *Pipeline) SetSpeaker(ssrc uint32, speaker Speaker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speakers[ssrc] = speaker
}

// HandleOpus decodes one voice packet and advances that speaker's segmenter.
func (p *Pipeline) HandleOpus(ssrc uint32, packet []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	stream, err := p.streamLocked(ssrc)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	speaker := p.speakers[ssrc]
	p.mu.Unlock()

	pcm, err := stream.decoder.Decode(packet)
	if err != nil {
		return err
	}

	for _, frame := range stream.splitter.Push(pcm) {
		utterance, done, err := stream.segmenter.Push(frame)
		if err != nil {
			return err
		}
		if done {
			p.submit(speaker, utterance)
		}
	}
	return nil
}

// streamLocked lazily builds the decode chain for a new SSRC.
func (p *Pipeline) streamLocked(ssrc uint32) (*speakerStream, error) {
	if stream, ok := p.streams[ssrc]; ok {
		return stream, nil
	}

	decoder, err := audio.NewOpusDecoder()
	if err != nil {
		return nil, err
	}

	frameBytes := audio.FrameBytes(p.cfg.SampleRate, p.cfg.FrameMS)
	detector, err := vad.NewWebRTCDetector(p.cfg.Aggressiveness, p.cfg.SampleRate, p.cfg.FrameMS)
	if err != nil {
		return nil, err
	}
	segmenter, err := vad.NewSegmenter(detector, vad.SegmenterConfig{
		FrameBytes:    frameBytes,
		PaddingFrames: p.cfg.PaddingMS / p.cfg.FrameMS,
		SilenceFrames: p.cfg.SilenceMS / p.cfg.FrameMS,
		MaxFrames:     p.cfg.MaxUtteranceMS / p.cfg.FrameMS,
	})
	if err != nil {
		return nil, err
	}

	stream := &speakerStream{
		decoder:   decoder,
		splitter:  audio.NewFrameSplitter(frameBytes),
		segmenter: segmenter,
	}
	p.streams[ssrc] = stream
	return stream, nil
}

// submit enqueues one utterance, dropping it when workers are saturated.
func (p *Pipeline) submit(speaker Speaker, pcm []byte) {
	j := job{id: uuid.NewString(), speaker: speaker, pcm: pcm}
	select {
	case p.jobs <- j:
	default:
		p.logWarn("utterance dropped: recognition queue full",
			"utterance_id", j.id,
			"user_id", speaker.UserID,
			"pcm_bytes", len(pcm),
		)
	}
}

// worker drains the utterance queue until it is closed or the context ends.
func (p *Pipeline) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			p.process(ctx, j)
		}
	}
}

// process recognizes, translates, publishes, and archives one utterance.
func (p *Pipeline) process(ctx context.Context, j job) {
	started := time.Now()

	if p.cfg.AudioDump {
		if path, err := audio.DumpWAV(p.cfg.TempAudioDir, "utterance-"+j.id, j.pcm, p.cfg.SampleRate); err != nil {
			p.logWarn("unable to dump utterance audio", "utterance_id", j.id, "error", err.Error())
		} else {
			p.logDebug("utterance audio dumped", "utterance_id", j.id, "path", path)
		}
	}

	result, err := p.recognize.Recognize(ctx, j.pcm)
	if err != nil {
		p.logError("recognition failed", j, err)
		_ = p.publish.Publish(ctx, transcript.Message{
			Speaker:  p.speakerName(j.speaker),
			Original: "❌ could not process this utterance",
		})
		return
	}

	segments := make([]string, 0, len(result.Segments))
	for _, segment := range result.Segments {
		segments = append(segments, segment.Transcript)
	}
	text := transcript.Assemble(segments, transcript.Options{CapitalizeSentences: p.cfg.Capitalize})
	if text == "" {
		p.logDebug("utterance produced no speech", "utterance_id", j.id, "user_id", j.speaker.UserID)
		return
	}

	msg := transcript.Message{
		Speaker:  p.speakerName(j.speaker),
		Original: text,
	}

	if p.translate != nil {
		translated, ok, err := p.translate.Translate(ctx, text, result.Language)
		if err != nil {
			p.logError("translation failed", j, err)
		} else if ok {
			msg.Translation = translated.Text
			msg.LanguageName = translated.LanguageName
		}
	}

	if err := p.publish.Publish(ctx, msg); err != nil {
		p.logError("publish failed", j, err)
		return
	}

	if p.archive != nil {
		err := p.archive.Save(ctx, store.Transcript{
			UtteranceID: j.id,
			GuildID:     p.cfg.GuildID,
			ChannelID:   p.cfg.ChannelID,
			UserID:      j.speaker.UserID,
			UserName:    j.speaker.DisplayName,
			Language:    result.Language,
			Text:        text,
			Translation: msg.Translation,
		})
		if err != nil {
			p.logError("archive failed", j, err)
		}
	}

	p.logInfo("utterance complete",
		"utterance_id", j.id,
		"user_id", j.speaker.UserID,
		"language", result.Language,
		"transcript_length", len(text),
		"translated", msg.Translation != "",
		"duration_ms", time.Since(started).Milliseconds(),
	)
}

// Close flushes open segments, drains workers, and stops the pipeline.
func (p *Pipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	for ssrc, stream := range p.streams {
		if utterance, ok := stream.segmenter.Flush(); ok {
			speaker := p.speakers[ssrc]
			p.mu.Unlock()
			p.submit(speaker, utterance)
			p.mu.Lock()
		}
	}
	p.mu.Unlock()

	close(p.jobs)

	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) speakerName(speaker Speaker) string {
	if speaker.DisplayName != "" {
		return speaker.DisplayName
	}
	if speaker.UserID != "" {
		return speaker.UserID
	}
	return "unknown speaker"
}

func (p *Pipeline) logWarn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) logDebug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) logInfo(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) logError(stage string, j job, err error) {
	if p.logger != nil {
		p.logger.Error(stage, "utterance_id", j.id, "user_id", j.speaker.UserID, "error", err.Error())
	}
}
