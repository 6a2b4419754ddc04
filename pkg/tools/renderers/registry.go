// Package renderers turns structured tool results into human-readable CLI
// output.
package renderers

import (
	"fmt"
	"strings"

	"github.com/covlet/covlet/pkg/types/tools"
)

// CLIRenderer interface for rendering structured tool results to CLI output
type CLIRenderer interface {
	RenderCLI(result tools.StructuredToolResult) string
}

// RendererRegistry manages tool renderers with pattern matching support
type RendererRegistry struct {
	renderers map[string]CLIRenderer
	patterns  map[string]CLIRenderer
}

// NewRendererRegistry creates and initializes a new renderer registry
func NewRendererRegistry() *RendererRegistry {
	registry := &RendererRegistry{
		renderers: make(map[string]CLIRenderer),
		patterns:  make(map[string]CLIRenderer),
	}

	registry.Register("echo", &EchoRenderer{})
	registry.Register("safe_calc", &CalcRenderer{})
	registry.Register("maven_test", &MavenTestRenderer{})
	registry.Register("maven_report", &CoverageRenderer{})
	registry.Register("parse_jacoco", &CoverageRenderer{})
	registry.Register("uncovered_classes", &UncoveredRenderer{})
	registry.Register("background_runs", &BackgroundRunsRenderer{})

	// All git tools share one metadata shape
	registry.RegisterPattern("git_*", &GitRenderer{})

	return registry
}

// Register adds a renderer for a specific tool name
func (r *RendererRegistry) Register(toolName string, renderer CLIRenderer) {
	r.renderers[toolName] = renderer
}

// RegisterPattern adds a renderer for a pattern (e.g., "git_*")
func (r *RendererRegistry) RegisterPattern(pattern string, renderer CLIRenderer) {
	r.patterns[pattern] = renderer
}

// Render finds the appropriate renderer and renders the result
func (r *RendererRegistry) Render(result tools.StructuredToolResult) string {
	renderer, exists := r.renderers[result.ToolName]
	if exists {
		return renderer.RenderCLI(result)
	}

	for pattern, patternRenderer := range r.patterns {
		if r.matchesPattern(result.ToolName, pattern) {
			return patternRenderer.RenderCLI(result)
		}
	}

	return r.renderFallback(result)
}

func (r *RendererRegistry) matchesPattern(toolName, pattern string) bool {
	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(toolName, prefix)
	}
	return toolName == pattern
}

func (r *RendererRegistry) renderFallback(result tools.StructuredToolResult) string {
	if !result.Success {
		return fmt.Sprintf("Error (%s): %s", result.ToolName, result.Error)
	}
	return fmt.Sprintf("Tool Result (%s):\nSuccess: %v\nTimestamp: %s",
		result.ToolName, result.Success, result.Timestamp.Format("2006-01-02 15:04:05"))
}
