package recs

import (
	"strings"
	"testing"
)

func TestStripEmphasis(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bold markers",
			input: "**Inception**",
			want:  "Inception",
		},
		{
			name:  "single asterisk",
			input: "*Dune*",
			want:  "Dune",
		},
		{
			name:  "underscores",
			input: "__The Expanse__ and _Foundation_",
			want:  "The Expanse and Foundation",
		},
		{
			name:  "mixed spans across a line",
			input: "1. **Heat** - a *slow burn* classic",
			want:  "1. Heat - a slow burn classic",
		},
		{
			name:  "no markers",
			input: "plain text stays plain",
			want:  "plain text stays plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripEmphasis(tt.input)
			if got != tt.want {
				t.Errorf("StripEmphasis(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLineSplitting(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantBody  string
	}{
		{
			name:      "numbered line with bold title",
			input:     "1. **Inception** - a mind-bending thriller",
			wantTitle: "Inception",
			wantBody:  "a mind-bending thriller",
		},
		{
			name:      "numbered line without emphasis",
			input:     "3. The Sting - classic caper with a famous twist",
			wantTitle: "The Sting",
			wantBody:  "classic caper with a famous twist",
		},
		{
			name:      "line without the pattern becomes bare title",
			input:     "Here are some picks you might enjoy:",
			wantTitle: "Here are some picks you might enjoy:",
			wantBody:  "",
		},
		{
			name:      "hyphenated title keeps internal hyphen",
			input:     "2. Ocean's Eleven - slick ensemble heist",
			wantTitle: "Ocean's Eleven",
			wantBody:  "slick ensemble heist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := Parse(tt.input)
			if len(items) != 1 {
				t.Fatalf("Parse(%q) returned %d items, want 1", tt.input, len(items))
			}
			if items[0].Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", items[0].Title, tt.wantTitle)
			}
			if items[0].Body != tt.wantBody {
				t.Errorf("body = %q, want %q", items[0].Body, tt.wantBody)
			}
		})
	}
}

func TestParseCapsAtFiveInOrder(t *testing.T) {
	lines := []string{
		"1. A - first",
		"2. B - second",
		"3. C - third",
		"4. D - fourth",
		"5. E - fifth",
		"6. F - sixth",
		"7. G - seventh",
	}
	items := Parse(strings.Join(lines, "\n"))

	if len(items) != MaxBatchSize {
		t.Fatalf("got %d items, want %d", len(items), MaxBatchSize)
	}
	wantTitles := []string{"A", "B", "C", "D", "E"}
	for i, want := range wantTitles {
		if items[i].Title != want {
			t.Errorf("item %d title = %q, want %q", i, items[i].Title, want)
		}
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n\t\n"} {
		if items := Parse(input); len(items) != 0 {
			t.Errorf("Parse(%q) = %d items, want 0", input, len(items))
		}
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	raw := "1. A - first\n\n\n2. B - second\n   \n3. C - third"
	items := Parse(raw)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
}

func TestBatchRender(t *testing.T) {
	batch := NewBatch([]Item{
		{Title: "Inception", Body: "a mind-bending thriller"},
		{Title: "Heat"},
	})
	want := "1. Inception - a mind-bending thriller\n2. Heat"
	if got := batch.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestPlaceholderBatch(t *testing.T) {
	batch := PlaceholderBatch("No recommendations found.")
	if !batch.IsPlaceholder() {
		t.Error("expected IsPlaceholder to be true")
	}
	if batch.Len() != 1 {
		t.Errorf("Len() = %d, want 1", batch.Len())
	}
	if got := batch.Render(); got != "No recommendations found." {
		t.Errorf("Render() = %q", got)
	}
}

func TestNewBatchTruncatesAndCopies(t *testing.T) {
	items := make([]Item, 7)
	for i := range items {
		items[i] = Item{Title: string(rune('A' + i))}
	}
	batch := NewBatch(items)
	if batch.Len() != MaxBatchSize {
		t.Fatalf("Len() = %d, want %d", batch.Len(), MaxBatchSize)
	}

	// Mutating the source slice must not affect the batch.
	items[0].Title = "mutated"
	if batch.Items()[0].Title != "A" {
		t.Error("batch shares backing array with caller slice")
	}
}

func TestNormalizeTitle(t *testing.T) {
	if got := NormalizeTitle("  The Wire  "); got != "the wire" {
		t.Errorf("NormalizeTitle = %q, want %q", got, "the wire")
	}
}
