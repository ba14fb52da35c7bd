package randx

import (
	"strings"
	"testing"
)

func TestSessionToken_UniqueAndURLSafe(t *testing.T) {
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		token, err := SessionToken()
		if err != nil {
			t.Fatalf("SessionToken: %v", err)
		}
		if token == "" {
			t.Fatal("empty token")
		}
		if strings.ContainsAny(token, "+/=") {
			t.Errorf("token %q is not URL safe", token)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = struct{}{}
	}
}

func TestAnonymousName_Shape(t *testing.T) {
	name, err := AnonymousName()
	if err != nil {
		t.Fatalf("AnonymousName: %v", err)
	}

	if !strings.HasPrefix(name, AnonymousNamePrefix) {
		t.Fatalf("name %q missing prefix %q", name, AnonymousNamePrefix)
	}

	suffix := strings.TrimPrefix(name, AnonymousNamePrefix)
	if len(suffix) != 6 {
		t.Errorf("suffix %q has length %d, want 6 hex chars", suffix, len(suffix))
	}
	for _, r := range suffix {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("suffix %q contains non-hex rune %q", suffix, r)
		}
	}
}

func TestMessageID_Unique(t *testing.T) {
	a := MessageID()
	b := MessageID()

	if a == "" || a == b {
		t.Fatalf("MessageID not unique: %q, %q", a, b)
	}
}
