// Package vad segments a PCM frame stream into voiced utterances.
package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// Detector reports whether one fixed-size PCM frame contains speech.
type Detector interface {
	IsSpeech(frame []byte) (bool, error)
}

// WebRTCDetector wraps the WebRTC voice-activity detector.
type WebRTCDetector struct {
	vad        *webrtcvad.VAD
	sampleRate int
}

// NewWebRTCDetector creates a detector with the given aggressiveness (0..3).
func NewWebRTCDetector(aggressiveness int, sampleRate int, frameMS int) (*WebRTCDetector, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("create vad: %w", err)
	}
	if err := v.SetMode(aggressiveness); err != nil {
		return nil, fmt.Errorf("set vad aggressiveness %d: %w", aggressiveness, err)
	}

	frameLength := sampleRate * frameMS / 1000
	if !v.ValidRateAndFrameLength(sampleRate, frameLength) {
		return nil, fmt.Errorf("unsupported vad rate/frame combination: %dHz %dms", sampleRate, frameMS)
	}

	return &WebRTCDetector{vad: v, sampleRate: sampleRate}, nil
}

// IsSpeech classifies one PCM frame.
func (d *WebRTCDetector) IsSpeech(frame []byte) (bool, error) {
	return d.vad.Process(d.sampleRate, frame)
}
