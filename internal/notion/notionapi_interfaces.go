package notion

import (
	"context"

	"github.com/jomei/notionapi"
)

//go:generate mockgen -source=notionapi_interfaces.go -destination=mock_notion/mock_notionapi.go -package=mock_notion
type (
	BlockService interface {
		Get(context.Context, notionapi.BlockID) (notionapi.Block, error)
		GetChildren(context.Context, notionapi.BlockID, *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
	}

	SearchService interface {
		Do(context.Context, *notionapi.SearchRequest) (*notionapi.SearchResponse, error)
	}

	UserService interface {
		List(context.Context, *notionapi.Pagination) (*notionapi.UsersListResponse, error)
	}
)
