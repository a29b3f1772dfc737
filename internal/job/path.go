package job

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const (
	stdoutExt = ".stdout"
	stderrExt = ".stderr"
)

// nameReplacer maps characters that cannot appear in a single path element.
var nameReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// OutputPath derives the output file for one job:
//
//	<dir>/<command>_<line>.stdout
//	<dir>/<prefix>#<command>_<line>.stdout
//
// Spaces and path separators in the line become underscores and only the
// base name of the command is used. The mapping is deterministic but not
// injective: "a b" and "a_b" share a path, and the clobber flag decides
// which job gets it.
func OutputPath(dir, prefix, command, line string) string {
	return filepath.Join(dir, baseName(prefix, command, line)+stdoutExt)
}

// UniqueOutputPath is OutputPath with a short digest of the raw line
// appended, so lines that normalize to the same name stay apart.
func UniqueOutputPath(dir, prefix, command, line string) string {
	sum := sha256.Sum256([]byte(line))
	return filepath.Join(dir, baseName(prefix, command, line)+"-"+hex.EncodeToString(sum[:4])+stdoutExt)
}

func baseName(prefix, command, line string) string {
	name := filepath.Base(command) + "_" + nameReplacer.Replace(line)
	if prefix != "" {
		name = prefix + "#" + name
	}
	return name
}
