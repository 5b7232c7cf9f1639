package session

import "time"

// splitAudio slices a PCM16 buffer into frames no larger than maxFrame
// bytes, each cut on a sample boundary so no frame splits a 16-bit
// sample in half.
func splitAudio(data []byte, maxFrame int) [][]byte {
	if maxFrame < 2 {
		maxFrame = 2
	}
	// Keep frames on sample boundaries.
	maxFrame &^= 1

	if len(data) <= maxFrame {
		if len(data) == 0 {
			return nil
		}
		return [][]byte{data}
	}

	frames := make([][]byte, 0, len(data)/maxFrame+1)
	for len(data) > maxFrame {
		frames = append(frames, data[:maxFrame])
		data = data[maxFrame:]
	}
	if len(data) > 0 {
		frames = append(frames, data)
	}
	return frames
}

// silenceBuffer returns d worth of PCM16 silence at the given sample
// rate. Played during specialist handoffs so the guest hears a natural
// pause instead of two voices colliding.
func silenceBuffer(d time.Duration, sampleRate int) []byte {
	samples := int(d.Seconds() * float64(sampleRate))
	return make([]byte, samples*2)
}
