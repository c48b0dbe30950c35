package replay

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitMoveText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"plain", "1. e4 e5 2. Nf3 Nc6", []string{"e4", "e5", "Nf3", "Nc6"}},
		{"tags and result", "[Event \"Casual [blitz]\"]\n[White \"a\"]\n\n1. d4 d5 1/2-1/2", []string{"d4", "d5"}},
		{"comments", "1. e4 {best by test} e5 ; a line comment\n2. Nf3", []string{"e4", "e5", "Nf3"}},
		{"variations", "1. e4 (1. d4 d5 (1... Nf6)) e5 2. Bc4", []string{"e4", "e5", "Bc4"}},
		{"nags and glyphs", "1. e4! $1 e5?! 2. Qh5?? Nc6", []string{"e4", "e5", "Qh5", "Nc6"}},
		{"black move number", "12... Nf6 13. O-O", []string{"Nf6", "O-O"}},
		{"glued move number", "1.e4 e5 2.Nf3", []string{"e4", "e5", "Nf3"}},
		{"zero castling", "1. 0-0 0-0-0+", []string{"O-O", "O-O-O+"}},
		{"escape line", "% skipped e4\n1. c4", []string{"c4"}},
		{"stops at result", "1. e4 1-0 e5", []string{"e4"}},
		{"empty", "  ", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitMoveText(tc.in)
			if err != nil {
				t.Fatalf("split %q: %+v", tc.in, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitMoveTextUnbalanced(t *testing.T) {
	cases := []struct {
		in    string
		index int
		token string
	}{
		{"1. e4 {never closed", 1, "{"},
		{"1. e4 e5 (2. Nf3", 2, "("},
		{"1. e4 ) e5", 1, ")"},
		{"[Event \"x\"", 0, "["},
	}
	for _, tc := range cases {
		_, err := splitMoveText(tc.in)
		if err == nil {
			t.Fatalf("expected %q to be rejected", tc.in)
		}
		if err.index != tc.index || err.token != tc.token {
			t.Fatalf("%q: got index=%d token=%q, want %d %q", tc.in, err.index, err.token, tc.index, tc.token)
		}
	}
}
