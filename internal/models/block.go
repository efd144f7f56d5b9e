package models

// BlockType is the upstream discriminant of a block.
type BlockType string

const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockToDo             BlockType = "to_do"
	BlockToggle           BlockType = "toggle"
	BlockQuote            BlockType = "quote"
	BlockCallout          BlockType = "callout"
	BlockCode             BlockType = "code"
	BlockEquation         BlockType = "equation"
	BlockImage            BlockType = "image"
	BlockVideo            BlockType = "video"
	BlockFile             BlockType = "file"
	BlockPDF              BlockType = "pdf"
	BlockBookmark         BlockType = "bookmark"
	BlockEmbed            BlockType = "embed"
	BlockLinkPreview      BlockType = "link_preview"
	BlockDivider          BlockType = "divider"
	BlockTable            BlockType = "table"
	BlockTableRow         BlockType = "table_row"
	BlockColumnList       BlockType = "column_list"
	BlockColumn           BlockType = "column"
	BlockChildPage        BlockType = "child_page"
	BlockChildDatabase    BlockType = "child_database"
	BlockLinkToPage       BlockType = "link_to_page"
	BlockSynced           BlockType = "synced_block"
	BlockTemplate         BlockType = "template"
	BlockUnsupported      BlockType = "unsupported"
)

// Block is one node of a page's block tree. Children keep upstream order.
type Block struct {
	ID          string
	Type        BlockType
	HasChildren bool
	Content     Content
	Children    []*Block
}

// IsListItem reports whether consecutive siblings of this type form one list.
func (b *Block) IsListItem() bool {
	switch b.Type {
	case BlockBulletedListItem, BlockNumberedListItem, BlockToDo:
		return true
	}
	return false
}

// Content is the closed set of type-specific block payloads.
type Content interface {
	blockContent()
}

type Paragraph struct {
	RichText []RichTextRun
}

type Heading struct {
	Level      int
	RichText   []RichTextRun
	Toggleable bool
}

// ListItem is the payload of bulleted and numbered list items.
type ListItem struct {
	RichText []RichTextRun
}

type ToDo struct {
	RichText []RichTextRun
	Checked  bool
}

type Toggle struct {
	RichText []RichTextRun
}

type Quote struct {
	RichText []RichTextRun
}

type Callout struct {
	RichText []RichTextRun
	Icon     string
}

// Code holds the verbatim body of a code block.
type Code struct {
	Language string
	Text     string
}

type Equation struct {
	Expression string
}

type Image struct {
	URL     string
	Caption []RichTextRun
}

// Link covers the URL-only kinds: video, file, pdf, bookmark, embed and link_preview.
type Link struct {
	URL     string
	Caption []RichTextRun
}

type Divider struct{}

type Table struct {
	Width           int
	HasColumnHeader bool
	HasRowHeader    bool
}

type TableRow struct {
	Cells [][]RichTextRun
}

// Container is the payload of purely structural blocks (column lists, columns,
// synced blocks, templates); only their children are rendered.
type Container struct{}

// PageRef points at another page: child pages, child databases and page links.
type PageRef struct {
	PageID string
	Title  string
}

// Unsupported carries the upstream type name of a block kind we do not render.
type Unsupported struct {
	Kind string
}

func (Paragraph) blockContent()   {}
func (Heading) blockContent()     {}
func (ListItem) blockContent()    {}
func (ToDo) blockContent()        {}
func (Toggle) blockContent()      {}
func (Quote) blockContent()       {}
func (Callout) blockContent()     {}
func (Code) blockContent()        {}
func (Equation) blockContent()    {}
func (Image) blockContent()       {}
func (Link) blockContent()        {}
func (Divider) blockContent()     {}
func (Table) blockContent()       {}
func (TableRow) blockContent()    {}
func (Container) blockContent()   {}
func (PageRef) blockContent()     {}
func (Unsupported) blockContent() {}
