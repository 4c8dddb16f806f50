package counts

import (
	"errors"
	"testing"

	"github.com/cognicore/ngram/pkg/ngram/internalerr"
	"github.com/cognicore/ngram/pkg/ngram/vocab"
)

func TestTableBasic(t *testing.T) {
	table := NewTable()
	table.Add([]vocab.Token{1}, 5)

	if table.Instances() != 1 {
		t.Errorf("Expected 1 instance, got %d", table.Instances())
	}

	if table.Count(KeyOf([]vocab.Token{1}), 5) != 1 {
		t.Error("Pair (1 -> 5) should have count 1")
	}
}

func TestTableRepeatedPair(t *testing.T) {
	table := NewTable()
	table.Add([]vocab.Token{1, 5}, 6)
	table.Add([]vocab.Token{1, 5}, 6)
	table.Add([]vocab.Token{1, 5}, 7)

	row := table.Row(KeyOf([]vocab.Token{1, 5}))
	if row.Total() != 3 {
		t.Errorf("Expected row total 3, got %d", row.Total())
	}
	if row.Distinct() != 2 {
		t.Errorf("Expected 2 distinct suffixes, got %d", row.Distinct())
	}
	if row.Count(6) != 2 {
		t.Errorf("Expected count 2 for suffix 6, got %d", row.Count(6))
	}
	if table.UniquePairs() != 2 {
		t.Errorf("Expected 2 unique pairs, got %d", table.UniquePairs())
	}
}

func TestTableMissingLookupsDoNotInsert(t *testing.T) {
	table := NewTable()
	table.Add([]vocab.Token{1}, 2)

	missing := KeyOf([]vocab.Token{42})
	if table.Count(missing, 7) != 0 {
		t.Error("Unseen pair should have count 0")
	}
	row := table.Row(missing)
	if !row.Empty() || row.Total() != 0 || row.Distinct() != 0 {
		t.Error("Unseen prefix should yield an empty row")
	}
	if len(row.Suffixes()) != 0 {
		t.Error("Empty row should have no suffixes")
	}
	if table.UniquePrefixes() != 1 {
		t.Errorf("Lookups must not create prefixes, got %d", table.UniquePrefixes())
	}
}

func TestTableAddCountIgnoresNonPositive(t *testing.T) {
	table := NewTable()
	table.AddCount("1", 3, 0)
	table.AddCount("1", 3, -4)

	if table.Instances() != 0 {
		t.Errorf("Expected no instances, got %d", table.Instances())
	}
	if table.UniquePrefixes() != 0 {
		t.Error("Non-positive counts should not create rows")
	}
}

func TestTableEachDeterministic(t *testing.T) {
	table := NewTable()
	table.Add([]vocab.Token{3}, 9)
	table.Add([]vocab.Token{1}, 8)
	table.Add([]vocab.Token{1}, 4)

	var got []string
	table.Each(func(prefix Key, suffix vocab.Token, count int64) {
		got = append(got, string(prefix)+"->"+string(KeyOf([]vocab.Token{suffix})))
	})

	want := []string{"1->4", "1->8", "3->9"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTableSuffixes(t *testing.T) {
	table := NewTable()
	table.Add([]vocab.Token{1}, 5)
	table.Add([]vocab.Token{5}, 2)
	table.Add([]vocab.Token{1}, 2)

	got := table.Suffixes()
	if len(got) != 2 || got[0] != 2 || got[1] != 5 {
		t.Errorf("Expected sorted suffixes [2 5], got %v", got)
	}
}

func TestKeyRoundTrip(t *testing.T) {
	prefix := []vocab.Token{1, 1, 42}
	key := KeyOf(prefix)
	if key != "1 1 42" {
		t.Errorf("Unexpected key encoding %q", key)
	}

	back, err := key.Tokens()
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	if len(back) != 3 || back[0] != 1 || back[1] != 1 || back[2] != 42 {
		t.Errorf("Round trip mismatch: %v", back)
	}
}

func TestKeyEmptyPrefix(t *testing.T) {
	key := KeyOf(nil)
	if key != "" {
		t.Errorf("Empty prefix should encode as empty key, got %q", key)
	}
	back, err := key.Tokens()
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	if len(back) != 0 {
		t.Errorf("Expected no tokens, got %v", back)
	}
}

func TestKeyDecodeInvalid(t *testing.T) {
	_, err := Key("1 x").Tokens()
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
