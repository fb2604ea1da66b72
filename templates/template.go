package templates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTemplate is returned for a target name the catalog does not hold
var ErrUnknownTemplate = errors.New("unknown template")

/* Template describes one code generation target
 * Instructions are embedded verbatim in the synthesis prompt
 */
type Template struct {
	Name         string
	Language     string
	Fence        string // info string expected on the fenced answer, e.g. "ts"
	Instructions string
}

// Validate checks if the template is usable in a prompt
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.ContainsAny(t.Name, " \t\n") {
		return fmt.Errorf("name cannot contain whitespace (got %q)", t.Name)
	}
	if t.Language == "" {
		return fmt.Errorf("language cannot be empty for template %s", t.Name)
	}
	if strings.TrimSpace(t.Instructions) == "" {
		return fmt.Errorf("instructions cannot be empty for template %s", t.Name)
	}
	return nil
}
