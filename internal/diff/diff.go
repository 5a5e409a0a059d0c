// Package diff renders shader source changes as unified patches.
// It uses github.com/pmezard/go-difflib/difflib to produce classic unified
// output (---/+++ headers, @@ hunks, lines prefixed with ' ', '-', '+').
package diff

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"material-updater/internal/shaderfix"
)

// Options controls patch generation behavior.
type Options struct {
	// MaxBytes is a guardrail on input size (old+new). When exceeded,
	// a placeholder patch is returned and oversize=true.
	// 0 means "no limit".
	MaxBytes int
}

// contextLines is the number of unchanged lines around each hunk.
const contextLines = 3

// Unified produces a classic unified patch for a↦b.
// Returns the patch body and a flag indicating it was omitted due to size.
func Unified(aName, bName string, a, b []byte, opt Options) (body string, oversize bool) {
	if opt.MaxBytes > 0 && (len(a)+len(b)) > opt.MaxBytes {
		return omitted(aName, bName), true
	}

	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(a)),
		B:        splitLinesKeepNL(string(b)),
		FromFile: aName,
		ToFile:   bName,
		Context:  contextLines,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return omitted(aName, bName), false
	}
	return s, false
}

// Change renders one patched shader. The headers name the material and the
// pass/variant/platform the shader lives in.
func Change(material string, c shaderfix.Change, opt Options) (string, bool) {
	name := material + ":" + c.Location.String()
	return Unified("a/"+name, "b/"+name, c.Before, c.After, opt)
}

// splitLinesKeepNL splits into lines and keeps newline characters,
// which produces better unified hunks.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	// SplitAfter leaves an empty tail when s ends with a newline.
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// omitted returns a compact placeholder when size limits are exceeded.
func omitted(aName, bName string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n@@\n# diff omitted (oversize)\n", aName, bName)
}
