package utils

import (
	"sort"
	"strings"
)

// ReplaceVariables substitutes every {{key}} in content for the keys present in
// variables. Placeholders with unknown keys are kept as they are, and inserted
// values are never scanned again.
func ReplaceVariables(content string, variables map[string]string) string {
	if content == "" || len(variables) == 0 {
		return content
	}

	keys := make([]string, 0, len(variables))
	for k := range variables {
		keys = append(keys, k)
	}
	// Replacer gives priority to earlier pairs when patterns share a position
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", variables[k])
	}
	return strings.NewReplacer(pairs...).Replace(content)
}
