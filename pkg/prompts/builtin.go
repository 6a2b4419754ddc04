package prompts

import (
	"embed"
	"sort"
	"strings"
)

//go:embed builtin/*.md
var builtinFS embed.FS

// builtinPrompt returns the embedded prompt content for name, if one exists
func builtinPrompt(name string) ([]byte, bool) {
	content, err := builtinFS.ReadFile("builtin/" + name + ".md")
	if err != nil {
		return nil, false
	}
	return content, true
}

// builtinPromptNames returns the names of all embedded prompts, sorted
func builtinPromptNames() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".md"))
	}
	sort.Strings(names)
	return names
}
