// Package ext classifies file paths into a small closed set of extension
// tags. It exists to satisfy the contract internal/search depends on
// (IsSupported, Parse) without the core engine needing to know anything
// about language detection; SPEC_FULL.md §3.1 treats this as the "file
// extension classification tables" collaborator, backed here by go-enry
// instead of a hand-rolled switch table.
package ext

import (
	"path/filepath"

	enry "github.com/go-enry/go-enry/v2"
)

// Tag is a closed enum of the language/file-type tags the search engine
// cares about, plus Unknown and Other fallbacks.
type Tag string

const (
	Unknown    Tag = "unknown"
	Other      Tag = "other"
	Go         Tag = "go"
	JavaScript Tag = "javascript"
	TypeScript Tag = "typescript"
	Python     Tag = "python"
	Java       Tag = "java"
	C          Tag = "c"
	CPP        Tag = "cpp"
	CSharp     Tag = "csharp"
	Rust       Tag = "rust"
	Ruby       Tag = "ruby"
	PHP        Tag = "php"
	Markdown   Tag = "markdown"
	JSON       Tag = "json"
	YAML       Tag = "yaml"
	TOML       Tag = "toml"
	Shell      Tag = "shell"
	HTML       Tag = "html"
	CSS        Tag = "css"
	SQL        Tag = "sql"
)

// languageToTag maps go-enry's canonical language names onto our narrower
// tag set. Languages enry recognizes but we don't name individually fall
// back to Other via Parse.
var languageToTag = map[string]Tag{
	"Go":         Go,
	"JavaScript": JavaScript,
	"TypeScript": TypeScript,
	"Python":     Python,
	"Java":       Java,
	"C":          C,
	"C++":        CPP,
	"C#":         CSharp,
	"Rust":       Rust,
	"Ruby":       Ruby,
	"PHP":        PHP,
	"Markdown":   Markdown,
	"JSON":       JSON,
	"YAML":       YAML,
	"TOML":       TOML,
	"Shell":      Shell,
	"HTML":       HTML,
	"CSS":        CSS,
	"SQL":        SQL,
}

// Parse derives a Tag from filename's extension and, where available,
// go-enry's extension-to-language table. An extension-less path, or one
// whose extension enry does not recognize, is Unknown; an extension enry
// recognizes but that we don't track individually is Other.
func Parse(filename string) Tag {
	langs := enry.GetLanguagesByExtension(filename, nil, nil)
	if len(langs) == 0 {
		return Unknown
	}
	if tag, ok := languageToTag[langs[0]]; ok {
		return tag
	}
	return Other
}

// IsSupported reports whether files tagged with tag should be content
// scanned. Unknown paths (no recognizable extension) are excluded; every
// named tag and the Other bucket are eligible, since Other still means
// "enry recognized this as a language", just not one we track by name.
func IsSupported(tag Tag) bool {
	return tag != Unknown
}

// deniedExtensions are archive and image extensions worth skipping by name
// alone, before ever opening the file: go-enry has no language for them, but
// listing them explicitly avoids a wasted stat/open on the common cases.
var deniedExtensions = map[string]bool{
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true,
	".7z": true, ".rar": true, ".jar": true, ".war": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".tiff": true, ".pdf": true,
}

// IsSupportedPath additionally consults go-enry's content-independent
// classifiers (vendored paths, generated files, dotfiles) so the
// walker can skip vendored dependency trees the way ripgrep's standard
// filters do, plus a short deny-list of archive and image extensions enry
// doesn't itself classify as binary.
func IsSupportedPath(path string) bool {
	if deniedExtensions[filepath.Ext(path)] {
		return false
	}
	if enry.IsVendor(path) || enry.IsGenerated(path, nil) || enry.IsDotFile(path) {
		return false
	}
	return true
}
