package vocab

// Token is an integer vocabulary id
type Token int

// Sentence is an ordered token sequence beginning with a single START marker
type Sentence []Token

// Reserved holds the ids of the boundary and out-of-vocabulary markers.
// Models carry their own Reserved value so vocabularies with different
// conventions can coexist.
type Reserved struct {
	Unknown Token `yaml:"unknown"`
	Start   Token `yaml:"start"`
	End     Token `yaml:"end"`
}

// Default returns the conventional reserved ids: UNK=0, START=1, END=2
func Default() Reserved {
	return Reserved{Unknown: 0, Start: 1, End: 2}
}

// Distinct reports whether the three markers use different ids
func (r Reserved) Distinct() bool {
	return r.Unknown != r.Start && r.Unknown != r.End && r.Start != r.End
}

// IsReserved reports whether t is one of the markers
func (r Reserved) IsReserved(t Token) bool {
	return t == r.Unknown || t == r.Start || t == r.End
}

// PadStart replaces the sentence's leading START with width START tokens.
// The first token is dropped unconditionally; callers hand in sentences that
// begin with exactly one START.
func (r Reserved) PadStart(s Sentence, width int) Sentence {
	if width < 0 {
		width = 0
	}
	rest := 0
	if len(s) > 1 {
		rest = len(s) - 1
	}
	out := make(Sentence, 0, width+rest)
	for i := 0; i < width; i++ {
		out = append(out, r.Start)
	}
	if len(s) > 1 {
		out = append(out, s[1:]...)
	}
	return out
}

// TrimStart collapses a width-long START prefix back to a single START
func (r Reserved) TrimStart(s Sentence, width int) Sentence {
	if width < 0 {
		width = 0
	}
	if len(s) <= width {
		return Sentence{r.Start}
	}
	out := make(Sentence, 0, len(s)-width+1)
	out = append(out, r.Start)
	return append(out, s[width:]...)
}
