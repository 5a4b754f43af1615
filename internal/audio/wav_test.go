package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWritePCM16WAVHeader(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	var buf bytes.Buffer
	require.NoError(t, WritePCM16WAV(&buf, pcm, 16000, 1))

	out := buf.Bytes()
	require.Len(t, out, 44+len(pcm))

	require.Equal(t, []byte("RIFF"), out[0:4])
	require.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(out[4:8]))
	require.Equal(t, []byte("WAVE"), out[8:12])
	require.Equal(t, []byte("fmt "), out[12:16])
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(out[20:22]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(out[22:24]))
	require.Equal(t, uint32(16000), binary.LittleEndian.Uint32(out[24:28]))
	require.Equal(t, uint32(32000), binary.LittleEndian.Uint32(out[28:32]))
	require.Equal(t, uint16(2), binary.LittleEndian.Uint16(out[32:34]))
	require.Equal(t, uint16(16), binary.LittleEndian.Uint16(out[34:36]))
	require.Equal(t, []byte("data"), out[36:40])
	require.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(out[40:44]))
	require.Equal(t, pcm, out[44:])
}

func TestDumpWAVWritesFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "dumps")
	pcm := make([]byte, 320)

	path, err := DumpWAV(dir, "utterance-test", pcm, 16000)
	require.NoError(t, err)
	require.Contains(t, filepath.Base(path), "utterance-test")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 44+len(pcm))
	require.Equal(t, []byte("RIFF"), data[0:4])
}
