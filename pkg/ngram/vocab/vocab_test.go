package vocab

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultReserved(t *testing.T) {
	r := Default()
	if r.Unknown != 0 || r.Start != 1 || r.End != 2 {
		t.Errorf("unexpected default ids: %+v", r)
	}
	if !r.Distinct() {
		t.Error("default ids should be distinct")
	}
	if !r.IsReserved(2) || r.IsReserved(7) {
		t.Error("IsReserved mismatch")
	}
}

func TestReservedDistinct(t *testing.T) {
	r := Reserved{Unknown: 0, Start: 1, End: 1}
	if r.Distinct() {
		t.Error("START and END share an id, should not be distinct")
	}
}

func TestPadStart(t *testing.T) {
	r := Default()
	tests := []struct {
		name  string
		in    Sentence
		width int
		want  Sentence
	}{
		{"bigram", Sentence{1, 5, 6, 2}, 1, Sentence{1, 5, 6, 2}},
		{"trigram", Sentence{1, 5, 6, 2}, 2, Sentence{1, 1, 5, 6, 2}},
		{"unigram drops start", Sentence{1, 5, 2}, 0, Sentence{5, 2}},
		{"empty", Sentence{}, 2, Sentence{1, 1}},
		{"start only", Sentence{1}, 3, Sentence{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.PadStart(tt.in, tt.width)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("PadStart mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPadThenTrimIsIdentity(t *testing.T) {
	r := Default()
	s := Sentence{1, 9, 4, 4, 2}
	for width := 0; width < 5; width++ {
		got := r.TrimStart(r.PadStart(s, width), width)
		if diff := cmp.Diff(s, got); diff != "" {
			t.Errorf("width %d: round trip mismatch (-want +got):\n%s", width, diff)
		}
	}
}

func TestTrimStartShortInput(t *testing.T) {
	r := Default()
	got := r.TrimStart(Sentence{1}, 3)
	if diff := cmp.Diff(Sentence{1}, got); diff != "" {
		t.Errorf("TrimStart mismatch (-want +got):\n%s", diff)
	}
}

func TestPadStartCustomReserved(t *testing.T) {
	r := Reserved{Unknown: 10, Start: 11, End: 12}
	got := r.PadStart(Sentence{11, 3, 12}, 2)
	want := Sentence{11, 11, 3, 12}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PadStart mismatch (-want +got):\n%s", diff)
	}
}
