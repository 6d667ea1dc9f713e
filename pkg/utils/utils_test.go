package utils

import "testing"

func TestHTTPHelper_IsValidURL(t *testing.T) {
	h := NewHTTPHelper()

	tests := []struct {
		in   string
		want bool
	}{
		{"http://x.com/a", true},
		{"https://a.com", true},
		{"HTTPS://A.COM/api.php", true},
		{"  http://padded.com  ", true},
		{"", false},
		{"ftp://x.com", false},
		{"csp_XBPQ", false},
		{"./relative/path.json", false},
		{"http://", false},
		{"://broken", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := h.IsValidURL(tt.in); got != tt.want {
				t.Errorf("IsValidURL(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHTTPHelper_BuildHeaders(t *testing.T) {
	h := NewHTTPHelper()

	headers := h.BuildHeaders(map[string]string{"Accept": "application/json"})

	if headers.Get("User-Agent") != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", headers.Get("User-Agent"), DefaultUserAgent)
	}

	if headers.Get("Accept") != "application/json" {
		t.Errorf("Accept = %q, want custom override", headers.Get("Accept"))
	}
}

func TestStringHelper(t *testing.T) {
	s := NewStringHelper()

	if got := s.NormalizeWhitespace("  a \t b\n c "); got != "a b c" {
		t.Errorf("NormalizeWhitespace = %q", got)
	}

	if got := s.TruncateString("非凡影视资源", 2); got != "非凡..." {
		t.Errorf("TruncateString = %q", got)
	}

	if got := s.TruncateRunes("非凡影视资源", 4); got != "非凡影视" {
		t.Errorf("TruncateRunes = %q", got)
	}

	if got := s.TruncateRunes("abc", 10); got != "abc" {
		t.Errorf("TruncateRunes short = %q", got)
	}

	if got := s.TruncateRunes("abc", 0); got != "" {
		t.Errorf("TruncateRunes zero = %q", got)
	}
}
