package builder_test

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/quickstart/pkg/builder"
	"github.com/xhad/quickstart/pkg/corpus"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestBuildSingleSample(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "flask-app/devquickstartplaygroundprompt.txt", "A Flask hello world app")
	writeFile(t, root, "flask-app/README.md", "# Flask")
	writeFile(t, root, "flask-app/.devcontainer/devcontainer.json", `{"name": "flask"}`)
	writeFile(t, root, "flask-app/app.py", "print('hello')")

	c, err := builder.New().Build(root)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	doc := c.Document(0)
	assert.Equal(t, "flask-app", doc.Name)
	assert.Equal(t, "A Flask hello world app", doc.Prompt)
	assert.Empty(t, doc.Language)
	assert.Equal(t, "=== ./README.md ===\n````\n# Flask\n````\n\n", doc.Readme)
	assert.Equal(t, "=== ./.devcontainer/devcontainer.json ===\n````\n{\"name\": \"flask\"}\n````\n\n", doc.Codespaces)
	assert.Equal(t, "=== ./app.py ===\n````\nprint('hello')\n````\n\n", doc.Code)
	assert.False(t, doc.HasEmbedding())
}

func TestBuildAppendsAndRecurses(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go-cli/devquickstartplaygroundlanguage.txt", "Go")
	writeFile(t, root, "go-cli/cmd/main.go", "package main")
	writeFile(t, root, "go-cli/internal/util/util.go", "package util")
	writeFile(t, root, "go-cli/docs/README.txt", "docs")
	writeFile(t, root, "go-cli/README.md", "top")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-sample"), 0o755))
	writeFile(t, root, "stray.txt", "not a sample")

	c, err := builder.New().Build(root)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	// os.ReadDir lists entries sorted by name.
	empty := c.Document(0)
	assert.Equal(t, "empty-sample", empty.Name)
	assert.Empty(t, empty.Prompt)
	assert.Empty(t, empty.Readme)
	assert.Empty(t, empty.Code)
	assert.Empty(t, empty.Codespaces)

	doc := c.Document(1)
	assert.Equal(t, "Go", doc.Language)
	assert.Equal(t,
		"=== ./README.md ===\n````\ntop\n````\n\n"+
			"=== ./docs/README.txt ===\n````\ndocs\n````\n\n",
		doc.Readme)
	assert.Equal(t,
		"=== ./cmd/main.go ===\n````\npackage main\n````\n\n"+
			"=== ./internal/util/util.go ===\n````\npackage util\n````\n\n",
		doc.Code)
}

func TestBuildIgnorePatternsAndProgress(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sample/.git/HEAD", "ref")
	writeFile(t, root, "sample/main.py", "x = 1")
	writeFile(t, root, "sample/debug.log", "noise")

	var seen []string
	b := builder.NewWithConfig(builder.BuilderConfig{
		IgnorePatterns: []string{".git", "*.log"},
		OnProgress: func(path string) {
			seen = append(seen, path)
		},
	})

	c, err := b.Build(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, seen)
	assert.Equal(t, "=== ./main.py ===\n````\nx = 1\n````\n\n", c.Document(0).Code)
}

func TestBuildBinaryContentRoundTrips(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "site/devquickstartplaygroundprompt.txt", "A static site")
	writeFile(t, root, "site/favicon.png", "\x89PNG\r\n\x1a\n\xff\xfe")
	writeFile(t, root, "site/legacy.c", "/* caf\xe9 */")

	c, err := builder.New().Build(root)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	code := c.Document(0).Code
	assert.True(t, utf8.ValidString(code))
	assert.Contains(t, code, "/* caf\uFFFD */")

	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, c.Save(path))
	loaded, err := corpus.Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(c.Documents(), loaded.Documents(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFollowsSymlinks(t *testing.T) {
	shared := t.TempDir()
	writeFile(t, shared, "linked-sample/devquickstartplaygroundprompt.txt", "A linked sample")
	writeFile(t, shared, "linked-sample/main.go", "package main")
	writeFile(t, shared, "lib/util.go", "package lib")

	root := t.TempDir()
	writeFile(t, root, "local/main.py", "x = 1")
	if err := os.Symlink(filepath.Join(shared, "linked-sample"), filepath.Join(root, "linked")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(shared, "lib"), filepath.Join(root, "local", "lib")))
	// A link back to the sample root must not be walked forever.
	require.NoError(t, os.Symlink(filepath.Join(root, "local"), filepath.Join(root, "local", "loop")))

	c, err := builder.New().Build(root)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	linked := c.Document(0)
	assert.Equal(t, "linked", linked.Name)
	assert.Equal(t, "A linked sample", linked.Prompt)
	assert.Equal(t, "=== ./main.go ===\n````\npackage main\n````\n\n", linked.Code)

	local := c.Document(1)
	assert.Equal(t, "local", local.Name)
	assert.Equal(t,
		"=== ./lib/util.go ===\n````\npackage lib\n````\n\n"+
			"=== ./main.py ===\n````\nx = 1\n````\n\n",
		local.Code)
}

func TestBuildErrors(t *testing.T) {
	root := t.TempDir()

	_, err := builder.New().Build(filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, corpus.ErrCorpusBuild)

	file := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = builder.New().Build(file)
	assert.ErrorIs(t, err, corpus.ErrCorpusBuild)
}

func TestClassify(t *testing.T) {
	b := builder.NewWithConfig(builder.BuilderConfig{
		PromptFile:      "prompt.txt",
		LanguageFile:    "lang.txt",
		ReadmeMarker:    "README",
		DevContainerDir: ".devcontainer",
	})

	tests := []struct {
		path string
		want builder.Kind
	}{
		{"prompt.txt", builder.KindPrompt},
		{"nested/prompt.txt", builder.KindPrompt},
		{"lang.txt", builder.KindLanguage},
		{"README.md", builder.KindReadme},
		{"docs/MY_README", builder.KindReadme},
		{"readme.md", builder.KindCode},
		{".devcontainer/README.md", builder.KindReadme},
		{".devcontainer/devcontainer.json", builder.KindCodespaces},
		{".devcontainer/scripts/setup.sh", builder.KindCodespaces},
		{"src/.devcontainer.json", builder.KindCode},
		{"not.devcontainer/Dockerfile", builder.KindCode},
		{"main.go", builder.KindCode},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Classify(tt.path), "got %s", b.Classify(tt.path))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "=== ./a/b.txt ===\n````\nbody\n````\n\n", builder.Wrap("a/b.txt", "body"))
	assert.Equal(t, "./x", builder.Token("./x"))
}
