package inference

import (
	"fmt"
	"math"

	"github.com/hweber/particletrack/internal/domain"
)

// decideMulti normalizes the score vector with softmax and picks the argmax.
// Ties break toward the lowest index: the comparison is strictly greater, so
// the first occurrence of the maximum wins, deterministically.
func decideMulti(scores []float32, classes domain.Vocabulary) (domain.Decision, error) {
	if len(scores) != len(classes) {
		return domain.Decision{}, fmt.Errorf("model produced %d scores for %d classes: %w",
			len(scores), len(classes), domain.ErrInvariantViolation)
	}

	probs := softmax(scores)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return domain.Classified(classes[best], probs[best]), nil
}

// decideBinary interprets a single sigmoid output p. The threshold is
// strictly greater than 0.5, so p == 0.5 deterministically yields the
// index-0 class. Confidence is max(p, 1-p).
func decideBinary(scores []float32, classes domain.Vocabulary) (domain.Decision, error) {
	if len(scores) != 1 {
		return domain.Decision{}, fmt.Errorf("binary model produced %d outputs: %w",
			len(scores), domain.ErrInvariantViolation)
	}
	if len(classes) != 2 {
		return domain.Decision{}, fmt.Errorf("binary decision over %d classes: %w",
			len(classes), domain.ErrInvariantViolation)
	}

	p := float64(scores[0])
	if p < 0 || p > 1 || math.IsNaN(p) {
		return domain.Decision{}, fmt.Errorf("sigmoid output %v outside [0,1]: %w", p, domain.ErrInvariantViolation)
	}

	if p > 0.5 {
		return domain.Classified(classes[1], p), nil
	}
	return domain.Classified(classes[0], 1-p), nil
}

// softmax over the raw outputs, shifted by the max for numeric stability.
func softmax(scores []float32) []float64 {
	maxv := float64(scores[0])
	for _, s := range scores[1:] {
		if float64(s) > maxv {
			maxv = float64(s)
		}
	}

	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp(float64(s) - maxv)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
