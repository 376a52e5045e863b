package scaffold_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/quickstart/pkg/builder"
	"github.com/xhad/quickstart/pkg/scaffold"
)

func TestParse(t *testing.T) {
	text := "Here you go:\n" +
		"=== ./.devcontainer/devcontainer.json ===\n" +
		"````\n" +
		"{\"name\": \"app\"}\n" +
		"````\n" +
		"\n" +
		"=== ./main.go ===\n" +
		"package main\n" +
		"\n" +
		"func main() {}\n"

	files := scaffold.Parse(text)
	assert.Equal(t, []scaffold.File{
		{Path: "./.devcontainer/devcontainer.json", Content: `{"name": "app"}`},
		{Path: "./main.go", Content: "package main\n\nfunc main() {}"},
	}, files)
}

func TestParseWrappedBuilderOutput(t *testing.T) {
	text := builder.Wrap("src/app.py", "print('hi')") + builder.Wrap("README.md", "# App")

	files := scaffold.Parse(text)
	assert.Equal(t, []scaffold.File{
		{Path: "./src/app.py", Content: "print('hi')"},
		{Path: "./README.md", Content: "# App"},
	}, files)
}

func TestParseNoHeaders(t *testing.T) {
	assert.Empty(t, scaffold.Parse("I cannot help with that."))
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.txt"), []byte("old"), 0o644))

	files := []scaffold.File{
		{Path: "./.devcontainer/Dockerfile", Content: "FROM golang"},
		{Path: "cmd/main.go", Content: "package main"},
	}
	require.NoError(t, scaffold.Write(dir, files, true))

	data, err := os.ReadFile(filepath.Join(dir, ".devcontainer", "Dockerfile"))
	require.NoError(t, err)
	assert.Equal(t, "FROM golang", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "cmd", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main", string(data))

	_, err = os.Stat(filepath.Join(dir, "old.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteRejectsUnsafePaths(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"../escape.txt", "./a/../../escape.txt", "/etc/passwd", "", "."} {
		t.Run(p, func(t *testing.T) {
			err := scaffold.Write(filepath.Join(dir, "out"), []scaffold.File{{Path: p, Content: "x"}}, false)
			assert.ErrorIs(t, err, scaffold.ErrUnsafePath)
		})
	}
	_, err := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}
