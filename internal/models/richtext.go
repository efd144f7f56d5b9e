package models

import "strings"

// Annotations is the style set shared by one run of inline text.
type Annotations struct {
	Bold          bool
	Italic        bool
	Strikethrough bool
	Underline     bool
	Code          bool
	Color         string
}

// HasColor reports whether the color differs from the upstream default.
func (a Annotations) HasColor() bool {
	return a.Color != "" && a.Color != "default"
}

// RichTextRun is a contiguous span of inline text with one annotation set.
type RichTextRun struct {
	Text        string
	Annotations Annotations
	Href        string
}

// SameStyle reports whether two runs can be merged without changing output meaning.
func (r RichTextRun) SameStyle(o RichTextRun) bool {
	return r.Annotations == o.Annotations && r.Href == o.Href
}

// PlainText concatenates the unstyled text of runs.
func PlainText(runs []RichTextRun) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Text is a convenience constructor for an unstyled run.
func Text(s string) RichTextRun {
	return RichTextRun{Text: s}
}

// Bold is a convenience constructor for a bold run.
func Bold(s string) RichTextRun {
	return RichTextRun{Text: s, Annotations: Annotations{Bold: true}}
}
