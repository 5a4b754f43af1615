// Package audio handles Opus decoding, downmixing, resampling, and PCM framing.
package audio

import (
	"fmt"

	"layeh.com/gopus"
)

const (
	// Discord voice delivers 48kHz stereo Opus in 20ms frames.
	discordSampleRate = 48000
	discordChannels   = 2
	discordFrameSize  = 960 // samples per channel per 20ms frame
)

// OpusDecoder converts one speaker's Opus packets to 16kHz mono PCM bytes.
type OpusDecoder struct {
	dec *gopus.Decoder
}

// NewOpusDecoder creates a decoder for one voice stream (one SSRC).
func NewOpusDecoder() (*OpusDecoder, error) {
	dec, err := gopus.NewDecoder(discordSampleRate, discordChannels)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}
	return &OpusDecoder{dec: dec}, nil
}

// Decode decodes one Opus packet and returns 16kHz mono little-endian PCM.
func (d *OpusDecoder) Decode(packet []byte) ([]byte, error) {
	if len(packet) == 0 {
		return nil, nil
	}
	pcm, err := d.dec.Decode(packet, discordFrameSize, false)
	if err != nil {
		return nil, fmt.Errorf("decode opus packet: %w", err)
	}
	mono := DownmixStereo(pcm)
	return BytesLE(Decimate3(mono)), nil
}
