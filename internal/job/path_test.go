package job

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestOutputPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		dir     string
		prefix  string
		command string
		line    string
		want    string
	}{
		{"no prefix", "out", "", "echo", "alpha", "out/echo_alpha.stdout"},
		{"prefix", "out", "weekly", "nmap", "10.0.0.1", "out/weekly#nmap_10.0.0.1.stdout"},
		{"spaces", ".", "", "whois", "example com", "whois_example_com.stdout"},
		{"command path", "out", "", "/usr/bin/dig", "example.com", "out/dig_example.com.stdout"},
		{"separator in line", "out", "", "curl", "http://a/b", "out/curl_http:__a_b.stdout"},
		{"empty line", "out", "", "echo", "", "out/echo_.stdout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := OutputPath(tt.dir, tt.prefix, tt.command, tt.line)
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("OutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutputPath_Deterministic(t *testing.T) {
	t.Parallel()
	a := OutputPath("out", "p", "echo", "same line")
	b := OutputPath("out", "p", "echo", "same line")
	if a != b {
		t.Errorf("expected identical paths, got %q and %q", a, b)
	}
}

func TestOutputPath_Collision(t *testing.T) {
	t.Parallel()
	if OutputPath("out", "", "echo", "a b") != OutputPath("out", "", "echo", "a_b") {
		t.Error("expected documented collision between \"a b\" and \"a_b\"")
	}
}

func TestUniqueOutputPath(t *testing.T) {
	t.Parallel()
	a := UniqueOutputPath("out", "", "echo", "a b")
	b := UniqueOutputPath("out", "", "echo", "a_b")

	if a == b {
		t.Errorf("expected distinct paths, both %q", a)
	}
	if !strings.HasPrefix(filepath.Base(a), "echo_a_b-") || !strings.HasSuffix(a, ".stdout") {
		t.Errorf("unexpected shape %q", a)
	}
	if a != UniqueOutputPath("out", "", "echo", "a b") {
		t.Error("expected hashed path to be deterministic")
	}
}
