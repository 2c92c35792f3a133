package services

import (
	"strings"
	"testing"
)

func TestGeneratePassword(t *testing.T) {
	for _, n := range []int{0, 8, 16} {
		p, err := GeneratePassword(n)
		if err != nil {
			t.Fatalf("GeneratePassword(%d): %v", n, err)
		}
		want := n
		if want < minGeneratedPasswordLen {
			want = minGeneratedPasswordLen
		}
		if len(p) != want {
			t.Errorf("GeneratePassword(%d) length = %d, want %d", n, len(p), want)
		}
		for _, class := range []string{passwordUpper, passwordLower, passwordDigits, passwordSymbols} {
			if !strings.ContainsAny(p, class) {
				t.Errorf("password %q misses a character from %q", p, class)
			}
		}
	}
}
