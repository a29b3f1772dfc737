package job

import (
	"fmt"
	"strings"
)

// Placeholder is the token replaced by each input line.
const Placeholder = "%INPUT%"

// Template is a command line whose arguments may contain Placeholder.
type Template struct {
	Command string
	Args    []string
}

// ParseTemplate splits argv into the executable and its argument template.
func ParseTemplate(argv []string) (Template, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return Template{}, fmt.Errorf("command template is empty")
	}
	return Template{
		Command: argv[0],
		Args:    append([]string(nil), argv[1:]...),
	}, nil
}

// Render substitutes line for every Placeholder in every argument.
// The executable name is never templated and no escaping is applied.
func (t Template) Render(line string) []string {
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = strings.ReplaceAll(arg, Placeholder, line)
	}
	return args
}

// Templated reports whether any argument references the placeholder.
func (t Template) Templated() bool {
	for _, arg := range t.Args {
		if strings.Contains(arg, Placeholder) {
			return true
		}
	}
	return false
}
