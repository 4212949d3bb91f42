package proctor

// Verdict is the outcome of classifying one frame sample.
type Verdict int

const (
	VerdictFacePresent Verdict = iota
	VerdictNoFace
	VerdictCameraBlocked
)

func (v Verdict) String() string {
	switch v {
	case VerdictFacePresent:
		return "face-present"
	case VerdictNoFace:
		return "no-face"
	case VerdictCameraBlocked:
		return "camera-blocked"
	}
	return "unknown"
}

// Thresholds parameterizes frame classification. Every number here is an
// empirically chosen heuristic with no calibration behind it. They are
// configuration, not constants, and nothing asserts they generalize across
// lighting conditions or skin tones.
type Thresholds struct {
	// MinBrightness: mean region brightness below this means the lens is
	// covered or the room is dark.
	MinBrightness float64
	// MinSkinRatio: fraction of skin-tone pixels at or below this means no
	// face in the region.
	MinSkinRatio float64
	Region       Region
	// Skin-tone pixel rule: red dominant over green and blue by at least
	// the deltas, all channels at or above their minimums.
	MinRed        int
	MinGreen      int
	MinBlue       int
	RedGreenDelta int
	RedBlueDelta  int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinBrightness: 15,
		MinSkinRatio:  0.05,
		Region:        DefaultRegion(),
		MinRed:        95,
		MinGreen:      40,
		MinBlue:       20,
		RedGreenDelta: 15,
		RedBlueDelta:  15,
	}
}

// Classification carries the verdict plus the measurements it was derived
// from, for logging and the debug overlay.
type Classification struct {
	Verdict    Verdict `json:"verdict"`
	Brightness float64 `json:"brightness"`
	SkinRatio  float64 `json:"skinRatio"`
}

// Classify inspects the centered sub-region of a frame and decides whether
// the camera is blocked, no face is visible, or a face is present.
// Priority: blocked beats no-face beats present.
func Classify(f *Frame, th Thresholds) Classification {
	x0, y0, x1, y1 := th.Region.pixelBounds(f.Width, f.Height)

	total := (x1 - x0) * (y1 - y0)
	if total <= 0 {
		// Degenerate frame. Zero brightness reads as blocked, which is the
		// safe interpretation for an empty capture.
		return Classification{Verdict: VerdictCameraBlocked}
	}

	var brightnessSum float64
	skin := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r, g, b := f.at(x, y)
			brightnessSum += (float64(r) + float64(g) + float64(b)) / 3
			if isSkinTone(int(r), int(g), int(b), th) {
				skin++
			}
		}
	}

	c := Classification{
		Brightness: brightnessSum / float64(total),
		SkinRatio:  float64(skin) / float64(total),
	}

	switch {
	case c.Brightness < th.MinBrightness:
		c.Verdict = VerdictCameraBlocked
	case c.SkinRatio <= th.MinSkinRatio:
		c.Verdict = VerdictNoFace
	default:
		c.Verdict = VerdictFacePresent
	}
	return c
}

func isSkinTone(r, g, b int, th Thresholds) bool {
	return r >= th.MinRed && g >= th.MinGreen && b >= th.MinBlue &&
		r-g >= th.RedGreenDelta && r-b >= th.RedBlueDelta
}
