package job

import (
	"slices"
	"testing"
)

func TestTemplate_Render(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
		line string
		want []string
	}{
		{
			name: "single placeholder",
			args: []string{"%INPUT%"},
			line: "alpha",
			want: []string{"alpha"},
		},
		{
			name: "placeholder inside argument",
			args: []string{"-oN", "scan-%INPUT%.txt"},
			line: "10.0.0.1",
			want: []string{"-oN", "scan-10.0.0.1.txt"},
		},
		{
			name: "repeated placeholder",
			args: []string{"%INPUT%:%INPUT%:%INPUT%"},
			line: "x",
			want: []string{"x:x:x"},
		},
		{
			name: "untouched arguments",
			args: []string{"-l", "-a", "--", "  spaced  "},
			line: "ignored",
			want: []string{"-l", "-a", "--", "  spaced  "},
		},
		{
			name: "no escaping",
			args: []string{"%INPUT%"},
			line: "%INPUT% $(id) 'q'",
			want: []string{"%INPUT% $(id) 'q'"},
		},
		{
			name: "empty line",
			args: []string{"host=%INPUT%"},
			line: "",
			want: []string{"host="},
		},
		{
			name: "no arguments",
			args: nil,
			line: "alpha",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tmpl := Template{Command: "%INPUT%", Args: tt.args}
			got := tmpl.Render(tt.line)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Render(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestTemplate_RenderDoesNotMutate(t *testing.T) {
	t.Parallel()
	tmpl := Template{Command: "echo", Args: []string{"%INPUT%"}}
	_ = tmpl.Render("alpha")
	if tmpl.Args[0] != "%INPUT%" {
		t.Errorf("template mutated: %q", tmpl.Args[0])
	}
}

func TestParseTemplate(t *testing.T) {
	t.Parallel()
	tmpl, err := ParseTemplate([]string{"%INPUT%", "-v", "%INPUT%"})
	if err != nil {
		t.Fatalf("ParseTemplate failed: %v", err)
	}
	if tmpl.Command != "%INPUT%" {
		t.Errorf("Command = %q", tmpl.Command)
	}
	// The executable itself is never templated
	if got := tmpl.Render("x"); !slices.Equal(got, []string{"-v", "x"}) {
		t.Errorf("Render = %q", got)
	}
	if !tmpl.Templated() {
		t.Error("expected template to reference the placeholder")
	}

	for _, argv := range [][]string{nil, {}, {""}, {"  "}} {
		if _, err := ParseTemplate(argv); err == nil {
			t.Errorf("ParseTemplate(%q) expected error", argv)
		}
	}
}

func TestTemplate_Templated(t *testing.T) {
	t.Parallel()
	if (Template{Command: "date"}).Templated() {
		t.Error("template without arguments should not be templated")
	}
	if (Template{Command: "ls", Args: []string{"-l"}}).Templated() {
		t.Error("template without placeholder should not be templated")
	}
}
