package templates_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marcelsud/webhook-inspector/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewCatalog(t *testing.T) {
	catalog := templates.NewCatalog()

	assert.Equal(t, "typescript", catalog.Default())

	tmpl, err := catalog.Get("")
	require.NoError(t, err)
	assert.Equal(t, "typescript", tmpl.Language)
	assert.Equal(t, "ts", tmpl.Fence)
	assert.Contains(t, tmpl.Instructions, "Zod")

	names := []string{}
	for _, tmpl := range catalog.List() {
		names = append(names, tmpl.Name)
	}
	assert.Equal(t, []string{"go", "python", "typescript"}, names)
}

func TestCatalog_Load(t *testing.T) {
	t.Run("success - adds and overrides templates", func(t *testing.T) {
		path := writeFile(t, `
default: rust
templates:
  - name: rust
    language: rust
    instructions: "Write an axum handler."
  - name: go
    language: go
    fence: golang
    instructions: "Write a chi handler."
`)
		catalog := templates.NewCatalog()
		require.NoError(t, catalog.Load(path))

		assert.Equal(t, "rust", catalog.Default())

		rust, err := catalog.Get("rust")
		require.NoError(t, err)
		assert.Equal(t, "rust", rust.Fence, "fence defaults to the language")

		goTmpl, err := catalog.Get("go")
		require.NoError(t, err)
		assert.Equal(t, "golang", goTmpl.Fence)
		assert.Equal(t, "Write a chi handler.", goTmpl.Instructions)

		_, err = catalog.Get("typescript")
		assert.NoError(t, err, "built-ins stay available")
	})

	t.Run("error - file not found", func(t *testing.T) {
		err := templates.NewCatalog().Load("nonexistent.yaml")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading templates file")
	})

	t.Run("error - invalid YAML", func(t *testing.T) {
		err := templates.NewCatalog().Load(writeFile(t, `templates: [[[`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing templates YAML")
	})

	t.Run("error - missing instructions", func(t *testing.T) {
		err := templates.NewCatalog().Load(writeFile(t, `
templates:
  - name: java
    language: java
`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "instructions cannot be empty")
	})

	t.Run("error - unknown default", func(t *testing.T) {
		err := templates.NewCatalog().Load(writeFile(t, `default: cobol`))

		assert.ErrorIs(t, err, templates.ErrUnknownTemplate)
	})

	t.Run("error - unknown default leaves the catalog untouched", func(t *testing.T) {
		catalog := templates.NewCatalog()

		err := catalog.Load(writeFile(t, `
default: cobol
templates:
  - name: go
    language: go
    fence: golang
    instructions: "Write a chi handler."
  - name: rust
    language: rust
    instructions: "Write an axum handler."
`))

		assert.ErrorIs(t, err, templates.ErrUnknownTemplate)
		assert.Equal(t, "typescript", catalog.Default())
		_, err = catalog.Get("rust")
		assert.ErrorIs(t, err, templates.ErrUnknownTemplate)
		goTmpl, err := catalog.Get("go")
		require.NoError(t, err)
		assert.Equal(t, "go", goTmpl.Fence)
	})
}

func TestCatalog_Get(t *testing.T) {
	catalog := templates.NewCatalog()

	_, err := catalog.Get("brainfuck")
	assert.ErrorIs(t, err, templates.ErrUnknownTemplate)

	require.NoError(t, catalog.SetDefault("python"))
	tmpl, err := catalog.Get("")
	require.NoError(t, err)
	assert.Equal(t, "python", tmpl.Name)
}
