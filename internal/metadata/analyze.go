package metadata

import "math"

// Resolution is the derived target output resolution for a session. Both
// dimensions are even, as chroma-subsampled encoders reject odd sizes.
type Resolution struct {
	Width  int
	Height int
}

// Analyze computes the target resolution from a frame table and scale
// factor: per axis, the session-wide maximum dimension multiplied by the
// scale factor, rounded up to even. Using the maximum means no frame's
// content is upscaled beyond necessity or cropped. Deterministic and
// order-independent.
//
// Sessions whose resolutions churn rapidly (monitor hot-plug) still get the
// whole-session maximum; a windowed statistic was considered and deferred.
func Analyze(records []Record, scaleFactor float64) Resolution {
	var maxWidth, maxHeight int
	for _, rec := range records {
		if rec.Width > maxWidth {
			maxWidth = rec.Width
		}
		if rec.Height > maxHeight {
			maxHeight = rec.Height
		}
	}

	return Resolution{
		Width:  roundUpToEven(float64(maxWidth) * scaleFactor),
		Height: roundUpToEven(float64(maxHeight) * scaleFactor),
	}
}

func roundUpToEven(value float64) int {
	scaled := int(math.Ceil(value))
	if scaled < 0 {
		scaled = 0
	}
	if scaled%2 != 0 {
		scaled++
	}
	return scaled
}
