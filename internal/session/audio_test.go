package session

import (
	"bytes"
	"testing"
	"time"
)

func TestSplitAudio(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i)
	}

	frames := splitAudio(data, 300)
	if len(frames) != 4 {
		t.Fatalf("got %d frames, want 4", len(frames))
	}

	var rejoined []byte
	for _, f := range frames {
		if len(f) > 300 {
			t.Errorf("frame of %d bytes exceeds cap", len(f))
		}
		if len(f)%2 != 0 {
			t.Errorf("frame of %d bytes splits a sample", len(f))
		}
		rejoined = append(rejoined, f...)
	}
	if !bytes.Equal(rejoined, data) {
		t.Error("rejoined frames differ from input")
	}
}

func TestSplitAudioOddCap(t *testing.T) {
	data := make([]byte, 100)
	for _, f := range splitAudio(data, 33) {
		if len(f)%2 != 0 {
			t.Fatalf("odd cap produced odd frame of %d bytes", len(f))
		}
	}
}

func TestSplitAudioSmallInput(t *testing.T) {
	if frames := splitAudio(nil, 300); frames != nil {
		t.Errorf("nil input produced %d frames", len(frames))
	}
	frames := splitAudio([]byte{1, 2}, 300)
	if len(frames) != 1 || len(frames[0]) != 2 {
		t.Errorf("small input not passed through: %v", frames)
	}
}

func TestSilenceBuffer(t *testing.T) {
	buf := silenceBuffer(2*time.Second, 24000)
	if len(buf) != 2*24000*2 {
		t.Fatalf("len = %d, want %d", len(buf), 2*24000*2)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatal("silence buffer is not silent")
		}
	}
}
