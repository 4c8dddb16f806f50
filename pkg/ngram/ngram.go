// Package ngram builds n-gram language models from pre-indexed sentences:
// counting, probability estimation, sampling and perplexity scoring.
package ngram

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cognicore/ngram/pkg/ngram/counts"
	"github.com/cognicore/ngram/pkg/ngram/estimate"
	"github.com/cognicore/ngram/pkg/ngram/internalerr"
	"github.com/cognicore/ngram/pkg/ngram/vocab"
)

// Model is an n-gram language model built once from a fixed training set.
// Count and probability tables are never mutated after construction, so
// scoring methods are safe for concurrent use. Generation advances the
// model's random source; give each generating goroutine its own Model
// (or Source) when sampling concurrently.
type Model struct {
	n         int
	reserved  vocab.Reserved
	est       estimate.Estimator
	counts    *counts.Table
	probs     map[counts.Key]map[vocab.Token]float64
	suffixes  []vocab.Token
	vocabSize int64
	src       rand.Source
	log       zerolog.Logger
}

// Options configures a Model
type Options struct {
	// Reserved overrides the UNK/START/END ids; nil uses vocab.Default()
	Reserved *vocab.Reserved
	// Estimator defaults to maximum likelihood
	Estimator estimate.Estimator
	// Source drives sentence generation; nil seeds a PCG from the runtime
	Source rand.Source
	// Logger defaults to a no-op logger
	Logger *zerolog.Logger
}

// NgramCount is a full n-gram with its training count
type NgramCount struct {
	Ngram []vocab.Token
	Count int64
}

// New builds a model of order n from training sentences
func New(n int, train []vocab.Sentence, opts Options) (*Model, error) {
	if n < 1 {
		return nil, fmt.Errorf("order %d: %w", n, internalerr.ErrInvalidOrder)
	}

	m := newModel(n, opts)
	m.buildCounts(train)
	m.finish()

	m.log.Debug().
		Int("order", m.n).
		Int("sentences", len(train)).
		Int("prefixes", m.counts.UniquePrefixes()).
		Int64("instances", m.vocabSize).
		Str("estimator", m.est.Name()).
		Msg("built n-gram model")

	return m, nil
}

// NewSmoothed builds a model that estimates probabilities with add-alpha smoothing
func NewSmoothed(n int, train []vocab.Sentence, alpha float64, opts Options) (*Model, error) {
	if alpha <= 0 {
		return nil, fmt.Errorf("alpha %v: %w", alpha, internalerr.ErrInvalidAlpha)
	}
	opts.Estimator = estimate.NewAddAlpha(alpha)
	return New(n, train, opts)
}

// NewFromCounts builds a model from an existing count table.
// Every prefix in the table must hold exactly n-1 tokens.
func NewFromCounts(n int, table *counts.Table, opts Options) (*Model, error) {
	if n < 1 {
		return nil, fmt.Errorf("order %d: %w", n, internalerr.ErrInvalidOrder)
	}
	if table == nil {
		return nil, fmt.Errorf("nil count table: %w", internalerr.ErrInvalidInput)
	}
	for _, k := range table.Prefixes() {
		prefix, err := k.Tokens()
		if err != nil {
			return nil, err
		}
		if len(prefix) != n-1 {
			return nil, fmt.Errorf("prefix %q has %d tokens, order %d needs %d: %w",
				string(k), len(prefix), n, n-1, internalerr.ErrInvalidInput)
		}
	}

	m := newModel(n, opts)
	m.counts = table
	m.finish()
	return m, nil
}

func newModel(n int, opts Options) *Model {
	m := &Model{
		n:        n,
		reserved: vocab.Default(),
		est:      opts.Estimator,
		counts:   counts.NewTable(),
		probs:    make(map[counts.Key]map[vocab.Token]float64),
		src:      opts.Source,
		log:      zerolog.Nop(),
	}
	if opts.Reserved != nil {
		m.reserved = *opts.Reserved
	}
	if m.est == nil {
		m.est = estimate.NewMaximumLikelihood()
	}
	if m.src == nil {
		m.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if opts.Logger != nil {
		m.log = *opts.Logger
	}
	return m
}

// finish derives the vocabulary size and then the probability table from counts
func (m *Model) finish() {
	m.vocabSize = m.computeVocabSize()
	m.suffixes = m.counts.Suffixes()
	m.buildProbabilities()
}

// Order returns n
func (m *Model) Order() int { return m.n }

// Reserved returns the marker ids the model was built with
func (m *Model) Reserved() vocab.Reserved { return m.reserved }

// Estimator returns the probability estimator
func (m *Model) Estimator() estimate.Estimator { return m.est }

// Counts exposes the count table. Callers must not add to it.
func (m *Model) Counts() *counts.Table { return m.counts }

// PadStart replaces the leading START with n-1 START tokens
func (m *Model) PadStart(s vocab.Sentence) vocab.Sentence {
	return m.reserved.PadStart(s, m.n-1)
}

// TrimStart collapses the n-1 START prefix back to a single START
func (m *Model) TrimStart(s vocab.Sentence) vocab.Sentence {
	return m.reserved.TrimStart(s, m.n-1)
}

func (m *Model) buildCounts(train []vocab.Sentence) {
	for _, sentence := range train {
		padded := m.PadStart(sentence)
		for i := m.n - 1; i < len(padded); i++ {
			m.counts.Add(padded[i-m.n+1:i], padded[i])
		}
	}
}

// VocabSize returns the number of n-gram instances counted during training.
// This is an occurrence total, not the number of distinct tokens.
func (m *Model) VocabSize() int64 {
	return m.vocabSize
}

func (m *Model) computeVocabSize() int64 {
	var v int64
	m.counts.Each(func(_ counts.Key, _ vocab.Token, c int64) {
		v += c
	})
	return v
}

// Count returns how often suffix followed prefix in training
func (m *Model) Count(prefix []vocab.Token, suffix vocab.Token) int64 {
	return m.counts.Count(counts.KeyOf(prefix), suffix)
}

// Probability returns P(last token | first n-1 tokens) for an n-token window
func (m *Model) Probability(ngram []vocab.Token) (float64, error) {
	if len(ngram) != m.n {
		return 0, fmt.Errorf("n-gram of length %d for order %d: %w", len(ngram), m.n, internalerr.ErrInvalidInput)
	}
	return m.probability(counts.KeyOf(ngram[:m.n-1]), ngram[m.n-1]), nil
}

func (m *Model) probability(prefix counts.Key, suffix vocab.Token) float64 {
	return m.est.Probability(m.counts.Row(prefix), suffix, m.vocabSize)
}

func (m *Model) buildProbabilities() {
	m.counts.Each(func(prefix counts.Key, suffix vocab.Token, _ int64) {
		row, ok := m.probs[prefix]
		if !ok {
			row = make(map[vocab.Token]float64)
			m.probs[prefix] = row
		}
		row[suffix] = m.probability(prefix, suffix)
	})
}

// Distribution returns a copy of the stored suffix probabilities for prefix.
// Only suffixes observed after prefix are present.
func (m *Model) Distribution(prefix []vocab.Token) map[vocab.Token]float64 {
	row := m.probs[counts.KeyOf(prefix)]
	out := make(map[vocab.Token]float64, len(row))
	for s, p := range row {
		out[s] = p
	}
	return out
}

// RowSum returns the total stored probability mass for prefix
func (m *Model) RowSum(prefix []vocab.Token) float64 {
	_, weights := m.storedWeights(counts.KeyOf(prefix))
	if len(weights) == 0 {
		return 0
	}
	return floats.Sum(weights)
}

func (m *Model) storedWeights(prefix counts.Key) ([]vocab.Token, []float64) {
	row := m.probs[prefix]
	suffixes := make([]vocab.Token, 0, len(row))
	for s := range row {
		suffixes = append(suffixes, s)
	}
	sort.Slice(suffixes, func(i, j int) bool { return suffixes[i] < suffixes[j] })

	weights := make([]float64, len(suffixes))
	for i, s := range suffixes {
		weights[i] = row[s]
	}
	return suffixes, weights
}

// samplingWeights returns the candidate suffixes for a context. A context with
// no stored row falls back to the estimator's unseen-prefix probabilities over
// every suffix seen in training; under maximum likelihood those are all zero.
func (m *Model) samplingWeights(prefix counts.Key) ([]vocab.Token, []float64) {
	if _, ok := m.probs[prefix]; ok {
		return m.storedWeights(prefix)
	}

	empty := counts.Row{}
	weights := make([]float64, len(m.suffixes))
	for i, s := range m.suffixes {
		weights[i] = m.est.Probability(empty, s, m.vocabSize)
	}
	return m.suffixes, weights
}

func (m *Model) sample(prefix counts.Key) (vocab.Token, error) {
	suffixes, weights := m.samplingWeights(prefix)
	if len(suffixes) == 0 || floats.Sum(weights) <= 0 {
		return 0, fmt.Errorf("context %q: %w", string(prefix), internalerr.ErrEmptyDistribution)
	}
	idx := distuv.NewCategorical(weights, m.src).Rand()
	return suffixes[int(idx)], nil
}

// GenerateSentence samples tokens until END and returns the trimmed sentence.
// There is no length cap; use GenerateSentenceLimit to bound it.
func (m *Model) GenerateSentence() (vocab.Sentence, error) {
	return m.generate(0)
}

// GenerateSentenceLimit is GenerateSentence failing with ErrMaxLength once
// maxTokens tokens were sampled without reaching END
func (m *Model) GenerateSentenceLimit(maxTokens int) (vocab.Sentence, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max tokens %d: %w", maxTokens, internalerr.ErrInvalidInput)
	}
	return m.generate(maxTokens)
}

func (m *Model) generate(limit int) (vocab.Sentence, error) {
	sentence := m.PadStart(nil)
	generated := 0
	for {
		var prefix counts.Key
		if m.n > 1 {
			prefix = counts.KeyOf(sentence[len(sentence)-(m.n-1):])
		}

		next, err := m.sample(prefix)
		if err != nil {
			m.log.Debug().Err(err).Int("generated", generated).Msg("sampling failed")
			return nil, fmt.Errorf("generate after %d tokens: %w", generated, err)
		}
		sentence = append(sentence, next)
		generated++

		if next == m.reserved.End {
			break
		}
		if limit > 0 && generated >= limit {
			return nil, fmt.Errorf("%d tokens without END: %w", generated, internalerr.ErrMaxLength)
		}
	}
	return m.TrimStart(sentence), nil
}

// SentenceLogLikelihood returns the sum of natural-log probabilities of every
// n-gram window in the padded sentence. A zero-probability window yields
// -Inf and ErrZeroProbability.
func (m *Model) SentenceLogLikelihood(s vocab.Sentence) (float64, error) {
	padded := m.PadStart(s)
	total := 0.0
	for i := m.n - 1; i < len(padded); i++ {
		p := m.probability(counts.KeyOf(padded[i-m.n+1:i]), padded[i])
		if p <= 0 {
			return math.Inf(-1), fmt.Errorf("n-gram %v: %w", padded[i-m.n+1:i+1], internalerr.ErrZeroProbability)
		}
		total += math.Log(p)
	}
	return total, nil
}

// CorpusPerplexity returns exp(total negative log-likelihood / scored positions)
// over the test sentences
func (m *Model) CorpusPerplexity(test []vocab.Sentence) (float64, error) {
	var nll float64
	var positions int
	for i, sentence := range test {
		ll, err := m.SentenceLogLikelihood(sentence)
		if err != nil {
			return math.Inf(1), fmt.Errorf("sentence %d: %w", i, err)
		}
		nll += -ll
		positions += len(m.PadStart(sentence)) - (m.n - 1)
	}
	if positions <= 0 {
		return 0, fmt.Errorf("no n-gram positions in test data: %w", internalerr.ErrInvalidInput)
	}
	return math.Exp(nll / float64(positions)), nil
}

// TopN returns the k most frequent n-grams, ties broken by ascending token order
func (m *Model) TopN(k int) []NgramCount {
	if k <= 0 {
		return nil
	}

	merged := make(map[counts.Key]*NgramCount)
	m.counts.Each(func(prefix counts.Key, suffix vocab.Token, c int64) {
		tokens, err := prefix.Tokens()
		if err != nil {
			return // keys are validated at construction
		}
		full := append(tokens, suffix)
		key := counts.KeyOf(full)
		if entry, ok := merged[key]; ok {
			entry.Count += c
			return
		}
		merged[key] = &NgramCount{Ngram: full, Count: c}
	})

	out := make([]NgramCount, 0, len(merged))
	for _, entry := range merged {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return slices.Compare(out[i].Ngram, out[j].Ngram) < 0
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
