package archive

import "testing"

var defaultHosts = []string{"twitter.com", "www.twitter.com", "mobile.twitter.com", "x.com"}

func TestParseReference_Valid(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		handle string
		id     string
	}{
		{"canonical", "https://twitter.com/jack/status/20", "jack", "20"},
		{"long id", "https://twitter.com/golang/status/1234567890123456789", "golang", "1234567890123456789"},
		{"x.com", "https://x.com/some_user/status/42", "some_user", "42"},
		{"uppercase host", "https://Twitter.com/jack/status/20", "jack", "20"},
		{"query string ignored", "https://twitter.com/jack/status/20?s=21&t=abc", "jack", "20"},
		{"fragment ignored", "https://twitter.com/jack/status/20#reply", "jack", "20"},
		{"http scheme", "http://mobile.twitter.com/jack/status/20", "jack", "20"},
		{"surrounding spaces", "  https://twitter.com/jack/status/20 ", "jack", "20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := ParseReference(tt.input, defaultHosts)
			if !ok {
				t.Fatalf("ParseReference(%q) ok = false, want true", tt.input)
			}
			if ref.ID != tt.id {
				t.Errorf("ID = %q, want %q", ref.ID, tt.id)
			}
			if ref.Handle != tt.handle {
				t.Errorf("Handle = %q, want %q", ref.Handle, tt.handle)
			}
		})
	}
}

func TestParseReference_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not a url", "hello world"},
		{"other host", "https://example.com/jack/status/20"},
		{"missing id", "https://twitter.com/jack/status/"},
		{"non digit id", "https://twitter.com/jack/status/abc"},
		{"mixed id", "https://twitter.com/jack/status/20abc"},
		{"trailing segment", "https://twitter.com/jack/status/20/photo/1"},
		{"trailing slash", "https://twitter.com/jack/status/20/"},
		{"no handle", "https://twitter.com/status/20"},
		{"statuses plural", "https://twitter.com/jack/statuses/20"},
		{"handle with dash", "https://twitter.com/ja-ck/status/20"},
		{"ftp scheme", "ftp://twitter.com/jack/status/20"},
		{"relative path", "/jack/status/20"},
		{"bare id", "1234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ref, ok := ParseReference(tt.input, defaultHosts); ok {
				t.Errorf("ParseReference(%q) = %+v, want no identifier", tt.input, ref)
			}
		})
	}
}

func TestParseReference_EmptyAllowlistAcceptsAnyHost(t *testing.T) {
	ref, ok := ParseReference("https://nitter.example/jack/status/99", nil)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if ref.Host != "nitter.example" || ref.ID != "99" {
		t.Errorf("ref = %+v", ref)
	}
}
