package counts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/ngram/pkg/ngram/internalerr"
	"github.com/cognicore/ngram/pkg/ngram/vocab"
)

// Key is the order-preserving encoding of a prefix context.
// The empty prefix (unigram models) encodes as "".
type Key string

// KeyOf encodes a prefix context
func KeyOf(prefix []vocab.Token) Key {
	if len(prefix) == 0 {
		return ""
	}
	var b strings.Builder
	for i, t := range prefix {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(int(t)))
	}
	return Key(b.String())
}

// Tokens decodes the key back into its prefix tokens
func (k Key) Tokens() ([]vocab.Token, error) {
	fields := strings.Fields(string(k))
	out := make([]vocab.Token, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("decode key %q: %w", string(k), internalerr.ErrInvalidInput)
		}
		out[i] = vocab.Token(v)
	}
	return out, nil
}

// Row is a read-only view of the suffix counts stored under one prefix.
// The zero Row is the empty distribution.
type Row struct {
	counts map[vocab.Token]int64
	total  int64
}

// Count returns the occurrences of suffix, zero when never observed
func (r Row) Count(suffix vocab.Token) int64 {
	return r.counts[suffix]
}

// Total returns the sum of suffix counts under the prefix
func (r Row) Total() int64 {
	return r.total
}

// Distinct returns the number of different suffixes observed
func (r Row) Distinct() int {
	return len(r.counts)
}

// Empty reports whether the prefix was never observed
func (r Row) Empty() bool {
	return r.total == 0
}

// Suffixes returns the observed suffixes in ascending order
func (r Row) Suffixes() []vocab.Token {
	out := make([]vocab.Token, 0, len(r.counts))
	for s := range r.counts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Table maintains prefix -> suffix occurrence counts.
// Reads of missing prefixes or suffixes return zero and never insert entries.
type Table struct {
	rows      map[Key]map[vocab.Token]int64
	totals    map[Key]int64
	instances int64
}

// NewTable creates an empty count table
func NewTable() *Table {
	return &Table{
		rows:   make(map[Key]map[vocab.Token]int64),
		totals: make(map[Key]int64),
	}
}

// Add records one occurrence of suffix after prefix
func (t *Table) Add(prefix []vocab.Token, suffix vocab.Token) {
	t.AddCount(KeyOf(prefix), suffix, 1)
}

// AddCount records n occurrences of suffix after the encoded prefix.
// Non-positive n is ignored.
func (t *Table) AddCount(prefix Key, suffix vocab.Token, n int64) {
	if n <= 0 {
		return
	}
	row, ok := t.rows[prefix]
	if !ok {
		row = make(map[vocab.Token]int64)
		t.rows[prefix] = row
	}
	row[suffix] += n
	t.totals[prefix] += n
	t.instances += n
}

// Row returns the suffix counts for prefix
func (t *Table) Row(prefix Key) Row {
	return Row{counts: t.rows[prefix], total: t.totals[prefix]}
}

// Count returns the occurrences of suffix after prefix
func (t *Table) Count(prefix Key, suffix vocab.Token) int64 {
	return t.rows[prefix][suffix]
}

// Instances returns the number of n-gram occurrences recorded
func (t *Table) Instances() int64 {
	return t.instances
}

// UniquePrefixes returns the number of distinct prefixes
func (t *Table) UniquePrefixes() int {
	return len(t.rows)
}

// UniquePairs returns the number of distinct (prefix, suffix) pairs
func (t *Table) UniquePairs() int {
	n := 0
	for _, row := range t.rows {
		n += len(row)
	}
	return n
}

// Prefixes returns every observed prefix in ascending key order
func (t *Table) Prefixes() []Key {
	out := make([]Key, 0, len(t.rows))
	for k := range t.rows {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Suffixes returns every token observed as a suffix under any prefix
func (t *Table) Suffixes() []vocab.Token {
	seen := make(map[vocab.Token]struct{})
	for _, row := range t.rows {
		for s := range row {
			seen[s] = struct{}{}
		}
	}
	out := make([]vocab.Token, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Each visits every (prefix, suffix, count) triple in a deterministic order
func (t *Table) Each(fn func(prefix Key, suffix vocab.Token, count int64)) {
	for _, k := range t.Prefixes() {
		row := t.Row(k)
		for _, s := range row.Suffixes() {
			fn(k, s, row.Count(s))
		}
	}
}
