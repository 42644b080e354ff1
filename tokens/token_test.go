package tokens

import (
	"strings"
	"testing"
)

func TestNewTokenShape(t *testing.T) {
	tok, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	if len(tok) != 22 {
		t.Fatalf("token length = %d, want 22", len(tok))
	}
	const urlSafe = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for _, r := range tok {
		if !strings.ContainsRune(urlSafe, r) {
			t.Fatalf("token %q contains non URL-safe rune %q", tok, r)
		}
	}
}

func TestNewTokenUniqueness(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		tok, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken: %v", err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token after %d generations: %q", i, tok)
		}
		seen[tok] = struct{}{}
	}
}
