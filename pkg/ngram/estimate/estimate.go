package estimate

import (
	"fmt"
	"strings"

	"github.com/cognicore/ngram/pkg/ngram/counts"
	"github.com/cognicore/ngram/pkg/ngram/internalerr"
	"github.com/cognicore/ngram/pkg/ngram/vocab"
)

// Method names accepted by ByName and written into snapshots
const (
	MethodMLE      = "mle"
	MethodAddAlpha = "add-alpha"
)

// Estimator turns prefix counts into a conditional probability
type Estimator interface {
	// Probability returns P(suffix | prefix) given the prefix's suffix counts.
	// row is empty when the prefix was never observed.
	// vocabSize is the total number of n-gram instances in the model.
	Probability(row counts.Row, suffix vocab.Token, vocabSize int64) float64

	// Name returns the method name
	Name() string
}

// ByName builds an estimator from its method name
func ByName(method string, alpha float64) (Estimator, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "", MethodMLE:
		return NewMaximumLikelihood(), nil
	case MethodAddAlpha, "laplace":
		if alpha <= 0 {
			return nil, fmt.Errorf("alpha %v: %w", alpha, internalerr.ErrInvalidAlpha)
		}
		return NewAddAlpha(alpha), nil
	default:
		return nil, fmt.Errorf("unknown smoothing method %q: %w", method, internalerr.ErrInvalidConfig)
	}
}

// AlphaOf returns the smoothing strength of e, or 0 for unsmoothed estimators
func AlphaOf(e Estimator) float64 {
	if a, ok := e.(*AddAlpha); ok {
		return a.Alpha()
	}
	return 0
}

// MaximumLikelihood estimates probabilities from relative frequencies
type MaximumLikelihood struct{}

// NewMaximumLikelihood creates an unsmoothed estimator
func NewMaximumLikelihood() *MaximumLikelihood {
	return &MaximumLikelihood{}
}

// Probability returns count/total, or 0 for a never-seen prefix
func (m *MaximumLikelihood) Probability(row counts.Row, suffix vocab.Token, vocabSize int64) float64 {
	if row.Total() == 0 {
		return 0
	}
	return float64(row.Count(suffix)) / float64(row.Total())
}

func (m *MaximumLikelihood) Name() string {
	return MethodMLE
}

// AddAlpha implements add-alpha (Laplace at alpha=1) smoothing
type AddAlpha struct {
	alpha float64
}

// NewAddAlpha creates an add-alpha estimator; alpha <= 0 falls back to 1
func NewAddAlpha(alpha float64) *AddAlpha {
	if alpha <= 0 {
		alpha = 1.0
	}
	return &AddAlpha{alpha: alpha}
}

// Alpha returns the smoothing strength
func (a *AddAlpha) Alpha() float64 {
	return a.alpha
}

// Probability computes the smoothed estimate
//
//	observed prefix: (C(p,s) + α) / (C(p) + T(p))
//	unseen prefix:   α / (α · V) = 1/V
//
// Where:
//   - C(p,s) = occurrences of suffix s after prefix p
//   - C(p)   = occurrences of prefix p
//   - T(p)   = distinct suffixes observed after p
//   - V      = total n-gram instances in the model
//
// T(p) rather than the vocabulary size keeps the denominator local to the
// prefix, so rows are only normalized when α = 1.
func (a *AddAlpha) Probability(row counts.Row, suffix vocab.Token, vocabSize int64) float64 {
	if row.Total() > 0 {
		return (float64(row.Count(suffix)) + a.alpha) / float64(row.Total()+int64(row.Distinct()))
	}
	if vocabSize <= 0 {
		return 0
	}
	return a.alpha / (a.alpha * float64(vocabSize))
}

func (a *AddAlpha) Name() string {
	return MethodAddAlpha
}
