package parser

import (
	"path/filepath"
	"strings"
)

// Language represents a supported language for parsing.
type Language int

const (
	// LanguageTypeScript represents TypeScript (.ts, .tsx files)
	LanguageTypeScript Language = iota
	// LanguageJavaScript represents JavaScript (.js, .jsx files)
	LanguageJavaScript
	// LanguageUnknown represents an unsupported language
	LanguageUnknown
)

// String returns the string representation of the language.
func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// DetectLanguage detects the language from a file path.
// Returns LanguageUnknown if the file extension is not recognized.
func DetectLanguage(filePath string) Language {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".ts", ".mts", ".cts", ".tsx":
		return LanguageTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

// IsTSXFile checks if a file path represents a TSX file.
// TSX files use the TypeScript grammar with JSX support enabled.
func IsTSXFile(filePath string) bool {
	return strings.EqualFold(filepath.Ext(filePath), ".tsx")
}

// IsJSXFile checks if a file path represents a JSX file.
// JSX files use the JavaScript grammar (which always accepts JSX).
func IsJSXFile(filePath string) bool {
	return strings.EqualFold(filepath.Ext(filePath), ".jsx")
}

// IsSourceFile reports whether the path carries a parseable JS/TS extension.
// Recovered trees also contain CSS, JSON and source-map siblings that the
// symbol passes must skip.
func IsSourceFile(filePath string) bool {
	return DetectLanguage(filePath) != LanguageUnknown
}

// StripSourceExtension removes a recognized JS/TS extension from a path,
// leaving other extensions untouched. Used when emitting import specifiers.
func StripSourceExtension(path string) string {
	ext := filepath.Ext(path)
	switch strings.ToLower(ext) {
	case ".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs":
		return strings.TrimSuffix(path, ext)
	}
	return path
}
