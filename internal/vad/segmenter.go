package vad

import "fmt"

// SegmenterConfig sizes the trigger window and silence cutoffs in frames.
type SegmenterConfig struct {
	FrameBytes    int
	PaddingFrames int // trigger window size
	SilenceFrames int // consecutive unvoiced frames ending an utterance
	MaxFrames     int // hard utterance length cap
}

// Segmenter collects voiced PCM frames into utterances.
//
// Triggering follows the padded ring-buffer policy: recognition begins
// when more than 90% of the last PaddingFrames frames are voiced, and the
// whole window is prepended so utterance onsets are not clipped. An
// utterance ends after SilenceFrames consecutive unvoiced frames, or
// unconditionally at MaxFrames.
type Segmenter struct {
	detector Detector
	cfg      SegmenterConfig

	triggered bool
	ring      [][]byte
	voiced    []bool
	utterance []byte
	frames    int
	silence   int
}

// NewSegmenter builds a segmenter over the given detector.
func NewSegmenter(detector Detector, cfg SegmenterConfig) (*Segmenter, error) {
	if detector == nil {
		return nil, fmt.Errorf("segmenter requires a detector")
	}
	if cfg.FrameBytes <= 0 {
		return nil, fmt.Errorf("segmenter frame size must be > 0")
	}
	if cfg.PaddingFrames <= 0 || cfg.SilenceFrames <= 0 || cfg.MaxFrames <= 0 {
		return nil, fmt.Errorf("segmenter frame windows must be > 0")
	}
	return &Segmenter{detector: detector, cfg: cfg}, nil
}

// Push feeds one frame and returns a completed utterance when one closed.
func (s *Segmenter) Push(frame []byte) ([]byte, bool, error) {
	if len(frame) != s.cfg.FrameBytes {
		return nil, false, fmt.Errorf("frame size %d does not match configured %d", len(frame), s.cfg.FrameBytes)
	}

	isSpeech, err := s.detector.IsSpeech(frame)
	if err != nil {
		return nil, false, fmt.Errorf("vad classify frame: %w", err)
	}

	if !s.triggered {
		s.pushRing(frame, isSpeech)
		if s.voicedCount()*10 > s.cfg.PaddingFrames*9 {
			s.triggered = true
			for _, buffered := range s.ring {
				s.utterance = append(s.utterance, buffered...)
				s.frames++
			}
			s.clearRing()
			s.silence = 0
		}
		return nil, false, nil
	}

	s.utterance = append(s.utterance, frame...)
	s.frames++
	if isSpeech {
		s.silence = 0
	} else {
		s.silence++
	}

	if s.silence >= s.cfg.SilenceFrames || s.frames >= s.cfg.MaxFrames {
		return s.finish(), true, nil
	}
	return nil, false, nil
}

// Flush returns any in-progress utterance; callers invoke it on stream close.
func (s *Segmenter) Flush() ([]byte, bool) {
	if !s.triggered || len(s.utterance) == 0 {
		s.reset()
		return nil, false
	}
	return s.finish(), true
}

func (s *Segmenter) finish() []byte {
	utterance := s.utterance
	s.reset()
	return utterance
}

func (s *Segmenter) reset() {
	s.triggered = false
	s.utterance = nil
	s.frames = 0
	s.silence = 0
	s.clearRing()
}

func (s *Segmenter) pushRing(frame []byte, isSpeech bool) {
	buffered := make([]byte, len(frame))
	copy(buffered, frame)
	s.ring = append(s.ring, buffered)
	s.voiced = append(s.voiced, isSpeech)
	if len(s.ring) > s.cfg.PaddingFrames {
		s.ring = s.ring[1:]
		s.voiced = s.voiced[1:]
	}
}

func (s *Segmenter) voicedCount() int {
	count := 0
	for _, v := range s.voiced {
		if v {
			count++
		}
	}
	return count
}

func (s *Segmenter) clearRing() {
	s.ring = nil
	s.voiced = nil
}
