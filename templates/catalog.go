package templates

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

/* Catalog holds the generation targets
 * Built-in targets are always present; a YAML file can add or override them
 */

//go:embed defaults.yaml
var builtin []byte

// File represents the structure of a templates YAML file
type File struct {
	Default   string           `yaml:"default"`
	Templates []TemplateConfig `yaml:"templates"`
}

// TemplateConfig represents a single template in the YAML file
type TemplateConfig struct {
	Name         string `yaml:"name"`
	Language     string `yaml:"language"`
	Fence        string `yaml:"fence"` // Default: language
	Instructions string `yaml:"instructions"`
}

type Catalog struct {
	templates map[string]*Template
	def       string
}

// NewCatalog creates a catalog holding the built-in targets
func NewCatalog() *Catalog {
	c := &Catalog{templates: make(map[string]*Template)}
	if err := c.parse(builtin); err != nil {
		panic(fmt.Sprintf("built-in templates: %v", err))
	}
	return c
}

// Load reads a templates file on top of the current catalog
func (c *Catalog) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading templates file: %w", err)
	}
	return c.parse(data)
}

func (c *Catalog) parse(data []byte) error {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing templates YAML: %w", err)
	}

	loaded := make(map[string]*Template, len(file.Templates))
	for _, tc := range file.Templates {
		fence := tc.Fence
		if fence == "" {
			fence = tc.Language
		}

		tmpl := &Template{
			Name:         tc.Name,
			Language:     tc.Language,
			Fence:        fence,
			Instructions: tc.Instructions,
		}
		if err := tmpl.Validate(); err != nil {
			return fmt.Errorf("validating template: %w", err)
		}
		loaded[tmpl.Name] = tmpl
	}

	// nothing is merged unless the whole file is valid
	if file.Default != "" {
		_, inFile := loaded[file.Default]
		_, known := c.templates[file.Default]
		if !inFile && !known {
			return fmt.Errorf("setting default %q: %w", file.Default, ErrUnknownTemplate)
		}
	}

	for name, tmpl := range loaded {
		c.templates[name] = tmpl
	}
	if file.Default != "" {
		c.def = file.Default
	}
	return nil
}

// SetDefault selects the target used when a request names none
func (c *Catalog) SetDefault(name string) error {
	if _, ok := c.templates[name]; !ok {
		return fmt.Errorf("setting default %q: %w", name, ErrUnknownTemplate)
	}
	c.def = name
	return nil
}

// Default returns the name of the default target
func (c *Catalog) Default() string {
	return c.def
}

// Get retrieves a template by name; an empty name selects the default
func (c *Catalog) Get(name string) (*Template, error) {
	if name == "" {
		name = c.def
	}
	tmpl, ok := c.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return tmpl, nil
}

// List returns all templates sorted by name
func (c *Catalog) List() []*Template {
	list := make([]*Template, 0, len(c.templates))
	for _, tmpl := range c.templates {
		list = append(list, tmpl)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
