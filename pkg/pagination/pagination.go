package pagination

import (
	"strconv"
	"strings"

	"refurbstock/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds the page window and the free-text search of a list request.
type Params struct {
	Page   int
	Limit  int
	Offset int
	Search string
}

// Parse reads page, limit and search from the query string.
// Unparsable or out-of-range values fall back to the defaults; limit is capped at MaxLimit.
func Parse(c *gin.Context) Params {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = DefaultPage
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
		Search: strings.TrimSpace(c.Query("search")),
	}
}

// Result wraps one page of items in the list envelope.
func (p Params) Result(items interface{}, total int64) response.Paginated {
	return response.Paginated{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}
