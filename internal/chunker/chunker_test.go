package chunker_test

import (
	"strings"
	"testing"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/chunker"
)

func rebuild(pieces []chunker.Piece) string {
	return chunker.Join(pieces, nil)
}

func TestSplit_ShortText(t *testing.T) {
	text := "Hello, world!"
	pieces := chunker.Split(text, 100)
	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].Text != text || pieces[0].Sep != "" {
		t.Errorf("unexpected piece %+v", pieces[0])
	}
}

func TestSplit_Unlimited(t *testing.T) {
	text := strings.Repeat("word ", 500)
	if pieces := chunker.Split(text, 0); len(pieces) != 1 {
		t.Errorf("expected 1 piece when maxBytes=0, got %d", len(pieces))
	}
}

func TestSplit_ParagraphBoundary(t *testing.T) {
	text := "First paragraph text here.\n\nSecond paragraph text here."

	pieces := chunker.Split(text, 40)
	if len(pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d: %+v", len(pieces), pieces)
	}
	if pieces[0].Text != "First paragraph text here." {
		t.Errorf("unexpected first piece %q", pieces[0].Text)
	}
	if pieces[0].Sep != "\n\n" {
		t.Errorf("expected blank line separator, got %q", pieces[0].Sep)
	}
	if rebuild(pieces) != text {
		t.Errorf("rebuild mismatch: %q", rebuild(pieces))
	}
}

func TestSplit_SentenceBoundary(t *testing.T) {
	text := "First sentence ends here. Second sentence follows. Third sentence."

	pieces := chunker.Split(text, 40)
	if len(pieces) < 2 {
		t.Fatalf("expected at least 2 pieces, got %d", len(pieces))
	}
	if pieces[0].Text != "First sentence ends here." {
		t.Errorf("expected cut after the first sentence, got %q", pieces[0].Text)
	}
	for i, p := range pieces {
		if len(p.Text) > 40 {
			t.Errorf("piece %d exceeds limit: %d bytes", i, len(p.Text))
		}
	}
	if rebuild(pieces) != text {
		t.Errorf("rebuild mismatch: %q", rebuild(pieces))
	}
}

func TestSplit_WordBoundary(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta"

	pieces := chunker.Split(text, 12)
	for i, p := range pieces {
		if len(p.Text) > 12 {
			t.Errorf("piece %d exceeds limit: %q", i, p.Text)
		}
		if strings.HasPrefix(p.Text, " ") || strings.HasSuffix(p.Text, " ") {
			t.Errorf("piece %d carries whitespace: %q", i, p.Text)
		}
	}
	if rebuild(pieces) != text {
		t.Errorf("rebuild mismatch: %q", rebuild(pieces))
	}
}

func TestSplit_HardCutKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("\u00e9", 10) // 20 bytes, no whitespace

	pieces := chunker.Split(text, 5)
	for i, p := range pieces {
		if !strings.HasPrefix(p.Text, "\u00e9") || len(p.Text)%2 != 0 {
			t.Errorf("piece %d split a rune: %q", i, p.Text)
		}
	}
	if rebuild(pieces) != text {
		t.Errorf("rebuild mismatch: %q", rebuild(pieces))
	}
}

func TestSplit_TinyLimitStillProgresses(t *testing.T) {
	text := "日本語"

	pieces := chunker.Split(text, 1)
	if len(pieces) != 3 {
		t.Fatalf("expected one piece per rune, got %d: %+v", len(pieces), pieces)
	}
	if rebuild(pieces) != text {
		t.Errorf("rebuild mismatch: %q", rebuild(pieces))
	}
}

func TestJoin_Substitutes(t *testing.T) {
	pieces := chunker.Split("One. Two.\n\nThree.", 10)

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = strings.ToUpper(p.Text)
	}
	if got := chunker.Join(pieces, texts); got != "ONE. TWO.\n\nTHREE." {
		t.Errorf("unexpected join result %q", got)
	}
}
