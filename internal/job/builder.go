package job

// Builder turns input lines into Jobs.
type Builder struct {
	Template   Template
	OutputDir  string
	Prefix     string
	Clobber    bool
	Record     bool
	HashSuffix bool
}

// Build returns one Job per line, in input order. Blank lines produce jobs too.
func (b Builder) Build(lines []string) []Job {
	jobs := make([]Job, 0, len(lines))
	seen := make(map[string]int, len(lines))
	for i, line := range lines {
		jobs = append(jobs, b.build(i, line, seen[line]))
		seen[line]++
	}
	return jobs
}

// BuildOne templates a single line as its first occurrence.
func (b Builder) BuildOne(index int, line string) Job {
	return b.build(index, line, 0)
}

func (b Builder) build(index int, line string, occurrence int) Job {
	path := OutputPath(b.OutputDir, b.Prefix, b.Template.Command, line)
	if b.HashSuffix {
		path = UniqueOutputPath(b.OutputDir, b.Prefix, b.Template.Command, line)
	}
	return New(Spec{
		Index:      index,
		Line:       line,
		Occurrence: occurrence,
		Command:    b.Template.Command,
		Args:       b.Template.Render(line),
		StdoutFile: path,
		Clobber:    b.Clobber,
		Record:     b.Record,
	})
}
