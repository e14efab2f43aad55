package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// encodeFiller produces a black frame of the given dimensions in the
// session's frame format. Filler frames carry the same positional contract
// as real frames; only their content marks them as synthetic.
func encodeFiller(shotType string, width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	black := color.RGBA{A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, black)
		}
	}

	var buf bytes.Buffer
	switch shotType {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "jpeg":
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported shot type %q", shotType)
	}
	return buf.Bytes(), nil
}
