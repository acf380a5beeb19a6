// Package audio normalizes client-recorded audio containers into the
// canonical waveform the transcription engines expect.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Canonical waveform parameters: mono, 16kHz, 16-bit PCM. This is what speech
// recognition wants regardless of what the browser recorded.
const (
	SampleRate = 16000
	Channels   = 1
)

// Converter decodes arbitrary audio containers to canonical WAV via ffmpeg.
type Converter struct {
	ffmpegPath string
}

// NewConverter creates a converter using the given ffmpeg binary.
func NewConverter(ffmpegPath string) *Converter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Converter{ffmpegPath: ffmpegPath}
}

// NormalizeFormat maps the client's loosely-specified format string to a
// container name ffmpeg understands.
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	switch {
	case strings.Contains(f, "opus"):
		return "ogg"
	case strings.Contains(f, "webm"):
		return "webm"
	case strings.Contains(f, "mp4"), strings.Contains(f, "m4a"):
		return "mp4"
	case strings.Contains(f, "wav"):
		return "wav"
	case strings.Contains(f, "ogg"):
		return "ogg"
	case strings.Contains(f, "mp3"), f == "":
		return "mp3"
	default:
		return f
	}
}

// ToWAV converts audio bytes from any supported container to canonical WAV.
// If decoding with the hinted format fails, it retries once letting ffmpeg
// probe the container itself. The subprocess is bound to ctx so a cancelled
// turn kills the decode.
func (c *Converter) ToWAV(ctx context.Context, data []byte, formatHint string) ([]byte, error) {
	format := NormalizeFormat(formatHint)

	out, err := c.run(ctx, data, format)
	if err == nil {
		return out, nil
	}

	// Format hint was wrong; let ffmpeg auto-detect.
	out, retryErr := c.run(ctx, data, "")
	if retryErr == nil {
		return out, nil
	}

	return nil, fmt.Errorf("audio decode failed (format %q): %w", format, err)
}

func (c *Converter) run(ctx context.Context, data []byte, format string) ([]byte, error) {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if format != "" {
		args = append(args, "-f", format)
	}
	args = append(args,
		"-i", "pipe:0",
		"-ac", fmt.Sprint(Channels),
		"-ar", fmt.Sprint(SampleRate),
		"-sample_fmt", "s16",
		"-f", "wav",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("ffmpeg: %s: %w", msg, err)
		}
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}
	return stdout.Bytes(), nil
}

// PCMFromWAV strips the RIFF header, returning the raw little-endian samples.
// The Google speech endpoint takes bare PCM with an explicit rate.
func PCMFromWAV(wav []byte) ([]byte, error) {
	// Minimal RIFF walk: find the "data" chunk rather than assuming a fixed
	// 44-byte header, since ffmpeg may emit extra chunks (LIST etc).
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE stream")
	}
	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		size := int(uint32(wav[offset+4]) | uint32(wav[offset+5])<<8 |
			uint32(wav[offset+6])<<16 | uint32(wav[offset+7])<<24)
		body := offset + 8
		if chunkID == "data" {
			if body+size > len(wav) {
				size = len(wav) - body
			}
			return wav[body : body+size], nil
		}
		// Chunks are word-aligned
		offset = body + size + (size & 1)
	}
	return nil, fmt.Errorf("no data chunk found")
}
