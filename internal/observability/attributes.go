// Package observability provides the metrics exported while a run is in
// progress.
package observability

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys
const (
	attrMethod  = "method"
	attrPath    = "path"
	attrStatus  = "status"
	attrCommand = "command"
	attrState   = "state"
	attrReason  = "reason"
)

func methodAttr(method string) attribute.KeyValue {
	return attribute.String(attrMethod, method)
}

func pathAttr(path string) attribute.KeyValue {
	return attribute.String(attrPath, normalizePath(path))
}

func statusAttr(code int) attribute.KeyValue {
	// 200-299 -> 2xx, 400-499 -> 4xx, 500-599 -> 5xx
	return attribute.String(attrStatus, fmt.Sprintf("%dxx", code/100))
}

// commandAttr labels by executable base name; full paths would only add
// cardinality.
func commandAttr(command string) attribute.KeyValue {
	return attribute.String(attrCommand, filepath.Base(command))
}

func stateAttr(state string) attribute.KeyValue {
	return attribute.String(attrState, state)
}

func reasonAttr(reason string) attribute.KeyValue {
	return attribute.String(attrReason, reason)
}

// normalizePath replaces job ids in result lookups with a placeholder.
func normalizePath(path string) string {
	const prefix = "/v1/jobs/"
	if len(path) > len(prefix) && strings.HasPrefix(path, prefix) {
		return "/v1/jobs/{jobId}"
	}
	return path
}
