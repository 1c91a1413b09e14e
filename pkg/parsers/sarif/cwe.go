package sarif

import (
	"regexp"
	"strings"
)

// cweRefRegex matches CWE references in the forms tools actually emit:
// "CWE-89", "CWE-89: SQL Injection", "external/cwe/cwe-089".
var cweRefRegex = regexp.MustCompile(`(?i)cwe[-/](\d+)`)

// ResultCWE extracts the CWE reference for a result from its rule
// metadata. Tools disagree on where the CWE lives: Semgrep puts it in
// the rule property bag under "cwe", CodeQL and others encode it in
// rule tags as "external/cwe/cwe-NNN". Returns "" when no reference
// is found; callers decide how to treat unclassified results.
func ResultCWE(run *Run, result *Result) string {
	rule := GetRuleDescriptor(run, result)
	if rule == nil {
		return ""
	}

	if ref := cweFromProperties(rule.Properties); ref != "" {
		return ref
	}
	if ref := cweFromProperties(result.Properties); ref != "" {
		return ref
	}
	return ""
}

// cweFromProperties scans a SARIF property bag for a CWE reference.
// Checked keys: "cwe" (string or list), "tags" (list).
func cweFromProperties(props Properties) string {
	if props == nil {
		return ""
	}

	switch v := props["cwe"].(type) {
	case string:
		if ref := matchCWE(v); ref != "" {
			return ref
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if ref := matchCWE(s); ref != "" {
					return ref
				}
			}
		}
	}

	if tags, ok := props["tags"].([]any); ok {
		for _, item := range tags {
			if s, ok := item.(string); ok {
				if ref := matchCWE(s); ref != "" {
					return ref
				}
			}
		}
	}

	return ""
}

// matchCWE extracts a canonical-form CWE reference from free text.
func matchCWE(s string) string {
	m := cweRefRegex.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	num := strings.TrimLeft(m[1], "0")
	if num == "" {
		return ""
	}
	return "CWE-" + num
}
