// Package builder turns a directory of sample projects into corpus documents.
package builder

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/xhad/quickstart/internal/models"
	"github.com/xhad/quickstart/pkg/corpus"
)

const (
	DefaultPromptFile      = "devquickstartplaygroundprompt.txt"
	DefaultLanguageFile    = "devquickstartplaygroundlanguage.txt"
	DefaultReadmeMarker    = "README"
	DefaultDevContainerDir = ".devcontainer"
)

type BuilderConfig struct {
	PromptFile      string
	LanguageFile    string
	ReadmeMarker    string
	DevContainerDir string
	IgnorePatterns  []string          // path segments never visited, e.g. ".git"
	OnProgress      func(path string) // called for every file read
}

type Builder struct {
	config BuilderConfig
}

func NewWithConfig(config BuilderConfig) *Builder {
	if config.PromptFile == "" {
		config.PromptFile = DefaultPromptFile
	}
	if config.LanguageFile == "" {
		config.LanguageFile = DefaultLanguageFile
	}
	if config.ReadmeMarker == "" {
		config.ReadmeMarker = DefaultReadmeMarker
	}
	if config.DevContainerDir == "" {
		config.DevContainerDir = DefaultDevContainerDir
	}

	return &Builder{config: config}
}

func New() *Builder {
	return NewWithConfig(BuilderConfig{})
}

// Build creates one document per immediate child directory of root. Files
// directly under root are not samples and are ignored.
func (b *Builder) Build(root string) (*corpus.Corpus, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", corpus.ErrCorpusBuild, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", corpus.ErrCorpusBuild, root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", corpus.ErrCorpusBuild, err)
	}

	c := corpus.New()
	for _, entry := range entries {
		if b.ignored(entry.Name()) {
			continue
		}
		dir, err := isDir(root, entry)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", corpus.ErrCorpusBuild, err)
		}
		if !dir {
			continue
		}

		doc, err := b.BuildSample(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, err
		}
		c.Append(doc)
	}

	return c, nil
}

// BuildSample creates the document for a single sample directory.
func (b *Builder) BuildSample(dir string) (models.Document, error) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: sample %s: %v", corpus.ErrCorpusBuild, filepath.Base(dir), err)
	}
	files, err := b.walk(dir, "", map[string]bool{resolved: true})
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: sample %s: %v", corpus.ErrCorpusBuild, filepath.Base(dir), err)
	}
	return b.assemble(filepath.Base(dir), files), nil
}

// SampleFile is one classified file of a sample.
type SampleFile struct {
	Path    string // slash separated, relative to the sample root
	Content string
	Kind    Kind
}

// walk returns the sample's files in directory-listing order, depth first.
// Symlinks are followed; ancestors holds the resolved paths of the directories
// being walked so a link back to one of them is not entered again.
func (b *Builder) walk(root, rel string, ancestors map[string]bool) ([]SampleFile, error) {
	current := filepath.Join(root, filepath.FromSlash(rel))
	entries, err := os.ReadDir(current)
	if err != nil {
		return nil, err
	}

	var files []SampleFile
	for _, entry := range entries {
		if b.ignored(entry.Name()) {
			continue
		}
		child := path.Join(rel, entry.Name())

		dir, err := isDir(current, entry)
		if err != nil {
			return nil, err
		}
		if dir {
			resolved, err := filepath.EvalSymlinks(filepath.Join(current, entry.Name()))
			if err != nil {
				return nil, err
			}
			if ancestors[resolved] {
				continue
			}
			ancestors[resolved] = true
			nested, err := b.walk(root, child, ancestors)
			delete(ancestors, resolved)
			if err != nil {
				return nil, err
			}
			files = append(files, nested...)
			continue
		}

		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(child)))
		if err != nil {
			return nil, err
		}
		if b.config.OnProgress != nil {
			b.config.OnProgress(child)
		}

		files = append(files, SampleFile{
			Path:    child,
			Content: strings.ToValidUTF8(string(content), "\uFFFD"),
			Kind:    b.Classify(child),
		})
	}
	return files, nil
}

func (b *Builder) assemble(name string, files []SampleFile) models.Document {
	doc := models.Document{Name: name}

	var readme, codespaces, code strings.Builder
	for _, f := range files {
		switch f.Kind {
		case KindPrompt:
			doc.Prompt = f.Content
		case KindLanguage:
			doc.Language = f.Content
		case KindReadme:
			readme.WriteString(Wrap(f.Path, f.Content))
		case KindCodespaces:
			codespaces.WriteString(Wrap(f.Path, f.Content))
		default:
			code.WriteString(Wrap(f.Path, f.Content))
		}
	}

	doc.Readme = readme.String()
	doc.Codespaces = codespaces.String()
	doc.Code = code.String()
	return doc
}

// isDir reports whether entry is a directory, following symlinks.
func isDir(parent string, entry fs.DirEntry) (bool, error) {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir(), nil
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (b *Builder) ignored(name string) bool {
	for _, pattern := range b.config.IgnorePatterns {
		if name == pattern {
			return true
		}
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
