package notion

//go:generate mockgen -source=notion.go -destination=mock_notion/mock_notion.go -package=mock_notion
type NotionClient interface {
	Block() BlockService
	Search() SearchService
	User() UserService
}
