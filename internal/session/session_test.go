package session

import "testing"

func TestIssueValidRevoke(t *testing.T) {
	s := NewStore()

	token := s.Issue()
	if token == "" {
		t.Fatalf("empty token issued")
	}
	if !s.Valid(token) {
		t.Fatalf("freshly issued token invalid")
	}

	s.Revoke(token)
	if s.Valid(token) {
		t.Fatalf("revoked token still valid")
	}
}

func TestUnknownTokenInvalid(t *testing.T) {
	s := NewStore()
	if s.Valid("made-up") || s.Valid("") {
		t.Fatalf("unknown token accepted")
	}
	s.Revoke("made-up") // no-op
}

func TestTokensAreUnique(t *testing.T) {
	s := NewStore()
	if s.Issue() == s.Issue() {
		t.Fatalf("duplicate tokens issued")
	}
}
