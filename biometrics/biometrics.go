// Package biometrics turns a raw camera frame into a fixed-length numeric
// feature vector and a set of facial landmark estimates using deterministic
// signal processing only. Given byte-identical input and the same layout
// version, the output is bit-identical across runs and platforms.
package biometrics

import (
	"errors"

	"golang.org/x/sync/errgroup"
)

// FeatureLayoutVersion identifies the serialized layout of FeatureVector and
// LandmarkSet. Any change to the sub-feature sizes, their order, or the
// landmark count is a breaking change and must bump this version together
// with the circuit/verifier deployment.
const FeatureLayoutVersion = 2

const (
	// CanonicalSize is the fixed resolution every frame is letterboxed to
	// before feature computation.
	CanonicalSize = 512
	// MaxImageBytes is the hard ceiling on encoded input size, checked
	// before any decoding happens.
	MaxImageBytes = 10 << 20
	// MaxImagePixels is the hard ceiling on decoded width*height, checked
	// against the image header before pixel data is decoded. The encoded
	// ceiling alone does not bound memory: a uniform frame compresses far
	// below its decoded size.
	MaxImagePixels = 4096 * 4096
)

var (
	// ErrImageDecode reports undecodable input bytes.
	ErrImageDecode = errors.New("image decode failed")
	// ErrImageTooLarge reports input above MaxImageBytes, rejected before
	// decoding.
	ErrImageTooLarge = errors.New("image exceeds size ceiling")
	// ErrNoSignal reports a degenerate all-zero feature vector, typically a
	// fully uniform frame.
	ErrNoSignal = errors.New("no signal extracted from image")
)

// FeatureVector is the fixed-size set of sub-feature blocks computed from one
// canonical frame. The field order is the serialization order.
type FeatureVector struct {
	Color     ColorFeatures
	Edges     EdgeFeatures
	Texture   TextureFeatures
	Frequency FrequencyFeatures
	Moments   MomentFeatures
	Gradients GradientFeatures
}

// Floats returns all feature values concatenated in layout order.
func (fv *FeatureVector) Floats() []float64 {
	out := make([]float64, 0, FeatureVectorLen)
	out = append(out, fv.Color.floats()...)
	out = append(out, fv.Edges.floats()...)
	out = append(out, fv.Texture.floats()...)
	out = append(out, fv.Frequency.floats()...)
	out = append(out, fv.Moments.floats()...)
	out = append(out, fv.Gradients.floats()...)
	return out
}

// FeatureVectorLen is the total number of values in a serialized
// FeatureVector for FeatureLayoutVersion.
const FeatureVectorLen = colorFeatureLen + edgeFeatureLen + textureFeatureLen +
	frequencyFeatureLen + momentFeatureLen + gradientFeatureLen

// Extract decodes the image, letterboxes it to the canonical resolution and
// computes the feature vector and landmark set. The sub-feature blocks are
// mutually independent and are computed concurrently; each block iterates
// pixels in a fixed order, so scheduling does not affect the output.
func Extract(image []byte) (*FeatureVector, *LandmarkSet, error) {
	if len(image) > MaxImageBytes {
		return nil, nil, ErrImageTooLarge
	}
	f, err := decodeFrame(image)
	if err != nil {
		return nil, nil, err
	}

	fv := &FeatureVector{}
	lm := &LandmarkSet{}
	g := new(errgroup.Group)
	g.Go(func() error { fv.Color = colorFeatures(f); return nil })
	g.Go(func() error { fv.Edges = edgeFeatures(f); return nil })
	g.Go(func() error { fv.Texture = textureFeatures(f); return nil })
	g.Go(func() error { fv.Frequency = frequencyFeatures(f); return nil })
	g.Go(func() error { fv.Moments = momentFeatures(f); return nil })
	g.Go(func() error { fv.Gradients = gradientFeatures(f); return nil })
	g.Go(func() error { *lm = estimateLandmarks(f); return nil })
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if allZero(fv.Floats()) {
		return nil, nil, ErrNoSignal
	}
	return fv, lm, nil
}

func allZero(vals []float64) bool {
	for _, v := range vals {
		if v != 0 {
			return false
		}
	}
	return true
}

// safeDiv guards every per-pixel or per-region normalization: a blank frame
// must degrade to zeros, never to a division by zero.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
