package googleauth

import (
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestParseAuthCode(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"  4/abc  ", "4/abc", false},
		{"http://127.0.0.1:5555/?state=state-token&code=4/xyz", "4/xyz", false},
		{"https://example.com/?state=x", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		got, err := ParseAuthCode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAuthCode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAuthCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := SaveToken(path, tok); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	got, err := ReadToken(path)
	if err != nil {
		t.Fatalf("ReadToken failed: %v", err)
	}
	if got.AccessToken != "access" || got.RefreshToken != "refresh" || !got.Expiry.Equal(tok.Expiry) {
		t.Errorf("Unexpected token %+v", got)
	}
}

func TestReadToken_Missing(t *testing.T) {
	if _, err := ReadToken(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Expected error for a missing token file")
	}
}
