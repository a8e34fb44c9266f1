package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parseQuery(query string) Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/items?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20, Offset: 0}},
		{"page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"page=0&limit=-5", Params{Page: 1, Limit: 20, Offset: 0}},
		{"page=abc&limit=xyz", Params{Page: 1, Limit: 20, Offset: 0}},
		{"page=2&limit=1000", Params{Page: 2, Limit: 100, Offset: 100}},
		{"search=+%20macbook%20", Params{Page: 1, Limit: 20, Offset: 0, Search: "macbook"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, parseQuery(tt.query))
		})
	}
}

func TestResult(t *testing.T) {
	p := parseQuery("page=2&limit=5")
	got := p.Result([]string{"a"}, 6)
	assert.Equal(t, int64(6), got.Total)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, []string{"a"}, got.Items)
}
