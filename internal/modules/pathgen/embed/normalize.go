package embed

import (
	"math"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

// Normalize returns v scaled to unit L2 norm. Components are divided by the
// largest magnitude before squaring so tiny and huge vectors neither underflow
// nor overflow. An empty, all-zero or NaN/Inf-bearing vector yields a
// degenerate_embedding error.
func Normalize(v []float64) ([]float64, error) {
	var scale float64
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, degenerate()
		}
		scale = math.Max(scale, math.Abs(x))
	}
	if scale == 0 {
		return nil, degenerate()
	}
	var sum float64
	for _, x := range v {
		r := x / scale
		sum += r * r
	}
	scaledNorm := math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = (x / scale) / scaledNorm
	}
	return out, nil
}

func degenerate() error {
	return learningpath.NewError(
		learningpath.ClassContractViolation,
		learningpath.KindDegenerateEmbedding,
		"embed.normalize",
		"embedding has zero or non-finite norm",
		nil,
	)
}
