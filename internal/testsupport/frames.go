package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgadling/ompd/internal/sessiondir"
)

// EncodeFrame produces a real encoded image of the given dimensions so
// header probing behaves exactly as it would on captured frames.
func EncodeFrame(t testing.TB, shotType string, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	switch shotType {
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		t.Fatalf("encode %s frame: %v", shotType, err)
	}
	return buf.Bytes()
}

// WriteFrame writes an encoded frame file with the given number and
// dimensions into a session directory.
func WriteFrame(t testing.TB, dir, shotType string, frame, width, height int) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, sessiondir.FrameFileName(frame, shotType))
	if err := os.WriteFile(path, EncodeFrame(t, shotType, width, height), 0o644); err != nil {
		t.Fatalf("write frame %s: %v", path, err)
	}
	return path
}
