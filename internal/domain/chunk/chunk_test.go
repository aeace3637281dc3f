package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const sample = "  The Employer shall pay the Employee\n\n a salary of\t£40,000 per annum,\r\n" +
	"payable monthly in arrears. Either party may terminate this agreement by giving " +
	"not less than one month's written notice.  "

const unicodeSample = "Der Arbeitgeber zahlt dem Arbeitnehmer ein Gehalt von 40.000 € jährlich. " +
	"Kündigung nur schriftlich, Frist über einen Monat. Договор вступает в силу с момента подписания."

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   \n\t ", ""},
		{"a", "a"},
		{"  a  b\n\nc\t", "a b c"},
		{"Clause A. Clause B.", "Clause A. Clause B."},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplit_Empty(t *testing.T) {
	if got := Split("", 10); len(got) != 0 {
		t.Errorf("expected no chunks, got %v", got)
	}
	if got := Chunks(" \n ", 10); len(got) != 0 {
		t.Errorf("expected no chunks for blank text, got %v", got)
	}
}

func TestSplit_GreedyPacking(t *testing.T) {
	got := Split("aa bb cc dd", 5)
	want := []string{"aa bb", "cc dd"}
	assertChunks(t, got, want)

	// "aa bb" is exactly 5 characters and fits; adding " cc" would overflow.
	got = Split("aa bb cc", 6)
	want = []string{"aa bb", "cc"}
	assertChunks(t, got, want)

	// The budget counts characters, not UTF-8 bytes.
	assertChunks(t, Split("ä ä", 3), []string{"ä ä"})
	assertChunks(t, Split("Vertrag über Kündigung", 12), []string{"Vertrag über", "Kündigung"})
	assertChunks(t, Split("Договор о найме", 10), []string{"Договор о", "найме"})
}

func TestSplit_OversizedWordIsOwnChunk(t *testing.T) {
	got := Split("a supercalifragilistic b", 5)
	want := []string{"a", "supercalifragilistic", "b"}
	assertChunks(t, got, want)
}

func TestSplit_FirstWordOversized(t *testing.T) {
	got := Split("abcdefgh ij", 3)
	want := []string{"abcdefgh", "ij"}
	assertChunks(t, got, want)
}

func TestSplit_Deterministic(t *testing.T) {
	for _, budget := range []int{1, 5, 20, 80, 200, 800} {
		first := Chunks(sample, budget)
		second := Chunks(sample, budget)
		assertChunks(t, second, first)
	}
}

func TestSplit_RejoinReproducesNormalizedText(t *testing.T) {
	normalized := Normalize(sample)
	for _, budget := range []int{1, 7, 30, 200} {
		got := strings.Join(Split(normalized, budget), " ")
		if got != normalized {
			t.Errorf("budget %d: rejoined %q, want %q", budget, got, normalized)
		}
	}
}

func TestSplit_NoOverflow(t *testing.T) {
	for _, text := range []string{sample, unicodeSample} {
		for _, budget := range []int{4, 10, 25, 60} {
			for i, c := range Chunks(text, budget) {
				n := utf8.RuneCountInString(c)
				if n <= budget {
					continue
				}
				if strings.Contains(c, " ") {
					t.Errorf("budget %d chunk %d overflows with %d characters: %q", budget, i, n, c)
				}
			}
		}
	}
}

func TestSplit_UnicodeChunksAreMaximal(t *testing.T) {
	const budget = 20
	chunks := Chunks(unicodeSample, budget)
	for i := 0; i+1 < len(chunks); i++ {
		next := strings.Fields(chunks[i+1])[0]
		if n := utf8.RuneCountInString(chunks[i] + " " + next); n <= budget {
			t.Errorf("chunk %d %q could take %q (%d characters)", i, chunks[i], next, n)
		}
	}
}

func TestSplit_NeverSplitsWords(t *testing.T) {
	words := strings.Fields(sample)
	var fromChunks []string
	for _, c := range Chunks(sample, 12) {
		fromChunks = append(fromChunks, strings.Fields(c)...)
	}
	assertChunks(t, fromChunks, words)
}

func TestAt_RoundTrip(t *testing.T) {
	const budget = 40
	chunks := Chunks(sample, budget)
	for i, want := range chunks {
		got, ok := At(sample, budget, i)
		if !ok {
			t.Fatalf("index %d reported out of range", i)
		}
		if got != want {
			t.Errorf("At(%d) = %q, want %q", i, got, want)
		}
	}
	if _, ok := At(sample, budget, len(chunks)); ok {
		t.Error("expected out of range for index == len(chunks)")
	}
	if _, ok := At(sample, budget, -1); ok {
		t.Error("expected out of range for negative index")
	}
}

// A chunk index is only meaningful together with the budget that produced it.
func TestAt_DifferentBudgetDoesNotMatch(t *testing.T) {
	indexed := Chunks(sample, 40)
	got, ok := At(sample, 80, 1)
	if !ok {
		t.Fatal("index 1 should exist at budget 80")
	}
	if got == indexed[1] {
		t.Errorf("expected budget 80 to address different text than budget 40, both gave %q", got)
	}
}

func assertChunks(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d chunks %q, want %d %q", len(got), got, len(want), want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}
