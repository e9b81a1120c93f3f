package domain

// ClassUnavailable is the reserved sentinel label persisted when classification
// was skipped or failed. It is deliberately kept outside every configured class
// vocabulary so downstream readers can never mistake it for a real prediction.
const ClassUnavailable = "unavailable"

// Decision is the outcome of scoring one image. It is a tagged value: either a
// real classification (class drawn from the vocabulary, confidence in [0,1]) or
// the explicit unavailable placeholder.
type Decision struct {
	Class      string
	Confidence float64

	unavailable bool
}

// Classified builds a decision carrying a real model prediction.
func Classified(class string, confidence float64) Decision {
	return Decision{Class: class, Confidence: confidence}
}

// Unavailable builds the placeholder decision used in degraded mode.
func Unavailable() Decision {
	return Decision{Class: ClassUnavailable, Confidence: 0, unavailable: true}
}

// IsUnavailable reports whether this decision is the degraded-mode placeholder.
func (d Decision) IsUnavailable() bool {
	return d.unavailable
}

// Vocabulary is the fixed, ordered set of labels a deployed model can predict,
// index-aligned with the model's output positions. It is defined once at
// startup and never mutated.
type Vocabulary []string

// Contains reports whether label is one of the configured classes.
func (v Vocabulary) Contains(label string) bool {
	for _, c := range v {
		if c == label {
			return true
		}
	}
	return false
}
