package models

import "strings"

// Format is a supported conversion target.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatMDX      Format = "mdx"
	FormatHTML     Format = "html"
	FormatJSX      Format = "jsx"
)

// Formats lists every supported format in a stable order.
var Formats = []Format{FormatMarkdown, FormatMDX, FormatHTML, FormatJSX}

// ParseFormat resolves a caller-supplied format name. The empty name selects
// Markdown; any other unknown name is a configuration error.
func ParseFormat(s string) (Format, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return FormatMarkdown, nil
	}
	for _, f := range Formats {
		if string(f) == v {
			return f, nil
		}
	}
	return "", &ConfigurationError{Field: "format", Value: s, Reason: "unsupported output format"}
}

// Extension returns the file extension used when exporting this format.
func (f Format) Extension() string {
	switch f {
	case FormatMDX:
		return ".mdx"
	case FormatHTML:
		return ".html"
	case FormatJSX:
		return ".jsx"
	default:
		return ".md"
	}
}
