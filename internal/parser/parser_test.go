package parser

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		wantCards int
		wantFront string
		wantBack  string
		wantCtx   string
	}{
		{
			name:      "simple front and back",
			input:     "Q: What is the capital of France?\nA: Paris",
			wantCards: 1,
			wantFront: "What is the capital of France?",
			wantBack:  "Paris",
		},
		{
			name:      "with context",
			input:     "Q: What is 1+1?\nA: 2\nC: Basic arithmetic",
			wantCards: 1,
			wantFront: "What is 1+1?",
			wantBack:  "2",
			wantCtx:   "Basic arithmetic",
		},
		{
			name: "multiline back",
			input: `Q: What are the primary colors?
A: Red
Blue
Yellow`,
			wantCards: 1,
			wantFront: "What are the primary colors?",
			wantBack:  "Red\nBlue\nYellow",
		},
		{
			name: "new question starts a new card",
			input: `Q: First question
A: First answer
Q: Second question
A: Second answer`,
			wantCards: 2,
		},
		{
			name: "separator splits cards",
			input: `Q: one
A: 1
---
Q: two
A: 2`,
			wantCards: 2,
		},
		{
			name:      "question without answer still counts",
			input:     "Q: Orphan question",
			wantCards: 1,
			wantFront: "Orphan question",
		},
		{
			name:      "prose without prefixes yields nothing",
			input:     "Just some notes.\nNothing here is a card.",
			wantCards: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(cards) != tc.wantCards {
				t.Fatalf("got %d cards, want %d", len(cards), tc.wantCards)
			}
			if tc.wantCards == 0 || tc.wantFront == "" {
				return
			}
			if cards[0].Front != tc.wantFront {
				t.Errorf("front = %q, want %q", cards[0].Front, tc.wantFront)
			}
			if cards[0].Back != tc.wantBack {
				t.Errorf("back = %q, want %q", cards[0].Back, tc.wantBack)
			}
			if cards[0].Context != tc.wantCtx {
				t.Errorf("context = %q, want %q", cards[0].Context, tc.wantCtx)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	card := Card{
		Front:   "  What is HTMX? \r\n",
		Back:    "A library for AJAX.",
		Context: "Web Development",
	}
	expected := "what is htmx?\na library for ajax.\nweb development"
	if got := Normalize(card); got != expected {
		t.Errorf("Normalize = %q, want %q", got, expected)
	}
}

func TestChecksum(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := Card{Front: "Test"}
		b := Card{Front: "Test"}
		if Checksum(a) != Checksum(b) {
			t.Error("identical cards should hash identically")
		}
	})
	t.Run("normalization folds formatting", func(t *testing.T) {
		a := Card{Front: "  what is go? ", Back: "A programming language."}
		b := Card{Front: "What Is Go?", Back: "A programming language."}
		if Checksum(a) != Checksum(b) {
			t.Error("normalized-equal cards should hash identically")
		}
	})
	t.Run("content changes the hash", func(t *testing.T) {
		a := Card{Front: "q", Back: "a"}
		b := Card{Front: "q", Back: "b"}
		if Checksum(a) == Checksum(b) {
			t.Error("different cards should hash differently")
		}
	})
	t.Run("field boundaries matter", func(t *testing.T) {
		a := Card{Front: "question", Back: "answer"}
		b := Card{Front: "question answer"}
		if Checksum(a) == Checksum(b) {
			t.Error("fields must not run together")
		}
	})
}
