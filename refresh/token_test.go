package refresh

import (
	"strings"
	"testing"
)

func TestNewTokenHashMatches(t *testing.T) {
	token, hash, err := NewToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if len(token) != 43 {
		t.Fatalf("unexpected token length %d", len(token))
	}
	got, err := HashToken(token)
	if err != nil {
		t.Fatalf("hash token: %v", err)
	}
	if got != hash {
		t.Fatal("hash mismatch")
	}
	if len(hash.String()) != 64 {
		t.Fatalf("unexpected hex length %d", len(hash.String()))
	}
}

func TestHashTokenRejectsForeignShapes(t *testing.T) {
	token, _, err := NewToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	for _, in := range []string{
		"",
		token[:42],
		token + "A",
		token + "=",
		strings.Repeat("!", 43),
		strings.Replace(token, token[:1], "+", 1),
	} {
		if _, err := HashToken(in); err == nil {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}

// FuzzHashToken checks that accepted inputs always hash deterministically.
func FuzzHashToken(f *testing.F) {
	token, _, err := NewToken()
	if err == nil {
		f.Add(token)
	}
	f.Add("")
	f.Add("abc")
	f.Add("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	f.Add("!!!not-base64!!!")

	f.Fuzz(func(t *testing.T, input string) {
		h1, err := HashToken(input)
		if err != nil {
			return
		}
		h2, err := HashToken(input)
		if err != nil || h1 != h2 {
			t.Fatal("hash not deterministic")
		}
	})
}
