package metadata

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// ProbeDimensions reads just enough of an encoded frame to return its width
// and height. The full pixel data is never decoded.
func ProbeDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open frame %s: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode frame header %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
