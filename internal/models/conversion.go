package models

import "time"

// ConversionRequest is the input of one conversion.
type ConversionRequest struct {
	Credential string
	PageID     string
	Format     Format
}

// ConversionResult is the rendered page plus metadata.
type ConversionResult struct {
	PageID      string
	Title       string
	Format      Format
	Content     string
	ConvertedAt time.Time
	// Pages holds the flushed output of sub-pages inlined during the pass.
	Pages    map[string]string
	Warnings []Warning
}

// Warning records a block that was rendered as a placeholder.
type Warning struct {
	BlockID   string    `json:"blockId"`
	BlockType BlockType `json:"blockType"`
	Message   string    `json:"message"`
}

// PageSummary is one page search hit.
type PageSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	URL        string    `json:"url,omitempty"`
	LastEdited time.Time `json:"lastEdited"`
}

// Workspace identifies the workspace an integration key belongs to.
type Workspace struct {
	Name  string `json:"name"`
	BotID string `json:"botId,omitempty"`
}
