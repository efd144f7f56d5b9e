package notion

import (
	"context"
	"errors"
	"net/http"

	"github.com/jomei/notionapi"

	"github.com/takak2166/notion2text/internal/models"
)

// classify maps an upstream failure onto the fetch error taxonomy.
func classify(op string, err error) error {
	var limited *notionapi.RateLimitedError
	if errors.As(err, &limited) {
		return &models.FetchError{
			Kind:    models.KindUpstreamTransient,
			Op:      op,
			Status:  http.StatusTooManyRequests,
			Code:    "rate_limited",
			Message: limited.Error(),
			Err:     err,
		}
	}

	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		fe := &models.FetchError{
			Op:      op,
			Status:  apiErr.Status,
			Code:    string(apiErr.Code),
			Message: apiErr.Message,
			Err:     err,
		}
		switch {
		case apiErr.Status == http.StatusUnauthorized || fe.Code == "unauthorized":
			fe.Kind = models.KindAuthentication
		case apiErr.Status == http.StatusNotFound,
			apiErr.Status == http.StatusForbidden,
			apiErr.Status == http.StatusBadRequest,
			fe.Code == "object_not_found",
			fe.Code == "restricted_resource":
			fe.Kind = models.KindNotFound
		default:
			fe.Kind = models.KindUpstreamTransient
		}
		return fe
	}

	fe := &models.FetchError{Kind: models.KindUpstreamTransient, Op: op, Err: err}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		fe.Message = "request aborted: " + err.Error()
	}
	return fe
}
