package audio

// DownmixStereo averages interleaved stereo samples into a mono signal.
func DownmixStereo(samples []int16) []int16 {
	mono := make([]int16, 0, len(samples)/2)
	for i := 0; i+1 < len(samples); i += 2 {
		mono = append(mono, int16((int32(samples[i])+int32(samples[i+1]))/2))
	}
	return mono
}

// Decimate3 reduces the sample rate by a factor of three, averaging each
// group of three samples as a crude anti-aliasing filter. 48kHz input
// becomes the 16kHz rate expected by the detector and recognizer.
func Decimate3(samples []int16) []int16 {
	out := make([]int16, 0, len(samples)/3)
	for i := 0; i+2 < len(samples); i += 3 {
		sum := int32(samples[i]) + int32(samples[i+1]) + int32(samples[i+2])
		out = append(out, int16(sum/3))
	}
	return out
}

// BytesLE converts samples to little-endian s16 bytes.
func BytesLE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[2*i] = byte(uint16(s))
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}

// FrameSplitter re-chunks a PCM byte stream into fixed-size frames.
type FrameSplitter struct {
	frameBytes int
	pending    []byte
}

// NewFrameSplitter creates a splitter emitting frameBytes-sized frames.
func NewFrameSplitter(frameBytes int) *FrameSplitter {
	return &FrameSplitter{frameBytes: frameBytes}
}

// Push appends PCM bytes and returns all complete frames accumulated so far.
func (f *FrameSplitter) Push(pcm []byte) [][]byte {
	if len(pcm) == 0 {
		return nil
	}
	f.pending = append(f.pending, pcm...)

	frames := make([][]byte, 0, len(f.pending)/f.frameBytes)
	for len(f.pending) >= f.frameBytes {
		frame := make([]byte, f.frameBytes)
		copy(frame, f.pending[:f.frameBytes])
		f.pending = f.pending[f.frameBytes:]
		frames = append(frames, frame)
	}
	return frames
}

// FrameBytes returns the byte size of one 16-bit mono frame of frameMS duration.
func FrameBytes(sampleRate int, frameMS int) int {
	return sampleRate * frameMS / 1000 * 2
}
