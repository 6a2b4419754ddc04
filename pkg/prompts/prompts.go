// Package prompts loads and validates agent prompt files: Markdown documents
// with YAML frontmatter (mode, tools, description, model) and a natural
// language instruction body.
package prompts

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/covlet/covlet/pkg/logger"
)

// Metadata is the frontmatter contract of a prompt file
type Metadata struct {
	Mode        string   `mapstructure:"mode" yaml:"mode"`
	Tools       []string `mapstructure:"tools" yaml:"tools"`
	Description string   `mapstructure:"description" yaml:"description"`
	Model       string   `mapstructure:"model" yaml:"model"`
}

// Prompt is a parsed prompt file. Instructions carry the body verbatim; no
// grammar is imposed on them.
type Prompt struct {
	Name         string
	Path         string // empty for builtins
	Metadata     Metadata
	Instructions string
}

// Processor handles prompt loading from configured directories, falling back
// to the embedded builtins.
type Processor struct {
	promptDirs []string
}

// Option is a function that configures a Processor
type Option func(*Processor) error

// WithPromptDirs sets custom prompt directories
func WithPromptDirs(dirs ...string) Option {
	return func(p *Processor) error {
		if len(dirs) == 0 {
			return errors.New("at least one prompt directory must be specified")
		}
		p.promptDirs = dirs
		return nil
	}
}

// WithDefaultPromptDirs resets to default prompt directories
func WithDefaultPromptDirs() Option {
	return func(p *Processor) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		p.promptDirs = []string{
			"./prompts", // Repo-specific (higher precedence)
			filepath.Join(homeDir, ".covlet", "prompts"), // User home directory
		}
		return nil
	}
}

// NewProcessor creates a prompt processor with optional configuration
func NewProcessor(opts ...Option) (*Processor, error) {
	p := &Processor{}

	if len(opts) == 0 {
		if err := WithDefaultPromptDirs()(p); err != nil {
			return nil, errors.Wrap(err, "failed to apply default prompt directories")
		}
		return p, nil
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, errors.Wrap(err, "failed to apply prompt processor option")
		}
	}

	if len(p.promptDirs) == 0 {
		if err := WithDefaultPromptDirs()(p); err != nil {
			return nil, errors.Wrap(err, "failed to apply default prompt directories")
		}
	}

	return p, nil
}

func (p *Processor) findPromptFile(name string) (string, bool) {
	possibleNames := []string{
		name + ".md",
		name,
	}

	for _, dir := range p.promptDirs {
		for _, candidate := range possibleNames {
			fullPath := filepath.Join(dir, candidate)
			if info, err := os.Stat(fullPath); err == nil && !info.IsDir() {
				return fullPath, true
			}
		}
	}
	return "", false
}

// Load finds and parses a prompt by name. Prompt directories take precedence
// over builtins.
func (p *Processor) Load(ctx context.Context, name string) (*Prompt, error) {
	if path, ok := p.findPromptFile(name); ok {
		logger.G(ctx).WithField("prompt", name).WithField("path", path).Debug("loading prompt file")
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read prompt file %q", path)
		}
		return Parse(content, name, path)
	}

	if content, ok := builtinPrompt(name); ok {
		logger.G(ctx).WithField("prompt", name).Debug("loading builtin prompt")
		return Parse(content, name, "")
	}

	return nil, errors.Errorf("prompt %q not found in directories %v or builtins", name, p.promptDirs)
}

// List returns the names of all available prompts, directory entries first.
// A directory prompt shadows a builtin of the same name.
func (p *Processor) List(_ context.Context) []string {
	var names []string
	seen := make(map[string]bool)

	for _, dir := range p.promptDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ".md")
			if !seen[name] {
				names = append(names, name)
				seen[name] = true
			}
		}
	}

	for _, name := range builtinPromptNames() {
		if !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	return names
}

// Parse decodes a prompt document: YAML frontmatter into Metadata, body kept
// verbatim as Instructions.
func Parse(content []byte, name, path string) (*Prompt, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, errors.New("missing frontmatter")
	}

	var metadata Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &metadata,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create metadata decoder")
	}
	if err := decoder.Decode(metaData); err != nil {
		return nil, errors.Wrap(err, "failed to decode frontmatter")
	}

	return &Prompt{
		Name:         name,
		Path:         path,
		Metadata:     metadata,
		Instructions: extractBody(string(content)),
	}, nil
}

// extractBody removes YAML frontmatter and returns the body
func extractBody(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}
	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}

// Validate checks a prompt against the registered tool names. Every problem
// is collected rather than failing on the first. Tool entries may be glob
// patterns (e.g. git_*); each entry must match at least one registered tool.
// Order is preserved as written and duplicates are permitted.
func Validate(prompt *Prompt, registeredTools []string) error {
	var result *multierror.Error

	if prompt.Metadata.Mode == "" {
		result = multierror.Append(result, errors.New("mode is required"))
	}
	if prompt.Metadata.Description == "" {
		result = multierror.Append(result, errors.New("description is required"))
	}
	if prompt.Metadata.Model == "" {
		result = multierror.Append(result, errors.New("model is required"))
	}
	if len(prompt.Metadata.Tools) == 0 {
		result = multierror.Append(result, errors.New("tools must be a non-empty list"))
	}

	for i, entry := range prompt.Metadata.Tools {
		if entry == "" {
			result = multierror.Append(result, errors.Errorf("tools[%d] is empty", i))
			continue
		}

		g, err := glob.Compile(entry)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "tools[%d] %q is not a valid pattern", i, entry))
			continue
		}

		matched := false
		for _, toolName := range registeredTools {
			if g.Match(toolName) {
				matched = true
				break
			}
		}
		if !matched {
			result = multierror.Append(result, errors.Errorf("tools[%d] %q matches no registered tool", i, entry))
		}
	}

	return result.ErrorOrNil()
}

// ResolveTools expands the prompt's tool entries against the registered tool
// names, preserving the order entries appear in.
func ResolveTools(prompt *Prompt, registeredTools []string) []string {
	var resolved []string
	seen := make(map[string]bool)

	for _, entry := range prompt.Metadata.Tools {
		g, err := glob.Compile(entry)
		if err != nil {
			continue
		}
		for _, toolName := range registeredTools {
			if g.Match(toolName) && !seen[toolName] {
				resolved = append(resolved, toolName)
				seen[toolName] = true
			}
		}
	}

	return resolved
}
