package builder

import (
	"fmt"
	"path"
	"strings"
)

// Kind is the document field a sample file contributes to.
type Kind int

const (
	KindCode Kind = iota
	KindPrompt
	KindLanguage
	KindReadme
	KindCodespaces
)

func (k Kind) String() string {
	switch k {
	case KindPrompt:
		return "prompt"
	case KindLanguage:
		return "language"
	case KindReadme:
		return "readme"
	case KindCodespaces:
		return "codespaces"
	default:
		return "code"
	}
}

// Classify decides where a file belongs from its slash-separated path relative
// to the sample root. Rules are checked in order: prompt marker, language
// marker, README in the file name, dev-container directory in the path, code.
// A README inside the dev-container directory is therefore a readme.
func (b *Builder) Classify(rel string) Kind {
	dir, name := path.Split(rel)

	switch {
	case name == b.config.PromptFile:
		return KindPrompt
	case name == b.config.LanguageFile:
		return KindLanguage
	case strings.Contains(name, b.config.ReadmeMarker):
		return KindReadme
	case hasSegment(dir, b.config.DevContainerDir):
		return KindCodespaces
	default:
		return KindCode
	}
}

func hasSegment(dir, segment string) bool {
	for _, s := range strings.Split(strings.Trim(dir, "/"), "/") {
		if s == segment {
			return true
		}
	}
	return false
}

// Token is the path header used in wrapped blocks, e.g. "./src/main.go".
func Token(rel string) string {
	return "./" + strings.TrimPrefix(rel, "./")
}

// Wrap frames a file's content with its path so the generator can tell files
// apart. The same format is parsed back by the scaffold package.
func Wrap(rel, content string) string {
	return fmt.Sprintf("=== %s ===\n````\n%s\n````\n\n", Token(rel), content)
}
