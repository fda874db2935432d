package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taveron/agenda-backend/internal/platform/apierr"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// respondError translates a service error into the wire format: validation
// errors render their field map at the top level, everything else renders as
// {"error": message}. Unknown errors become opaque 500s.
func respondError(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae.Fields != nil {
		c.JSON(ae.Status, ae.Fields)
		return
	}
	if ae.Status == http.StatusInternalServerError {
		c.JSON(ae.Status, gin.H{"error": "Error interno del servidor"})
		return
	}
	c.JSON(ae.Status, gin.H{"error": ae.Error()})
}

// PageParams holds the parsed pagination query parameters.
type PageParams struct {
	Page     int
	PageSize int
}

func (p PageParams) Offset() int { return (p.Page - 1) * p.PageSize }

// parsePageParams reads ?page= and ?page_size=, clamping the size to the
// allowed maximum. Invalid values fall back to the defaults.
func parsePageParams(c *gin.Context) PageParams {
	p := PageParams{Page: 1, PageSize: defaultPageSize}
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("page_size", "")); err == nil && v > 0 {
		p.PageSize = v
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

type Pagination struct {
	Count       int64   `json:"count"`
	Next        *string `json:"next"`
	Previous    *string `json:"previous"`
	PageSize    int     `json:"page_size"`
	TotalPages  int     `json:"total_pages"`
	CurrentPage int     `json:"current_page"`
}

type PagedResponse struct {
	Pagination Pagination `json:"pagination"`
	Results    any        `json:"results"`
}

// pageURL rebuilds the request URL with the page parameter swapped out, so
// next/previous preserve every filter the client sent.
func pageURL(c *gin.Context, page int) string {
	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, c.Request.Host, u.String())
}

// paged wraps a result set in the pagination envelope.
func paged(c *gin.Context, total int64, p PageParams, results any) PagedResponse {
	totalPages := int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	pg := Pagination{
		Count:       total,
		PageSize:    p.PageSize,
		TotalPages:  totalPages,
		CurrentPage: p.Page,
	}
	if p.Page < totalPages {
		next := pageURL(c, p.Page+1)
		pg.Next = &next
	}
	if p.Page > 1 {
		prev := pageURL(c, p.Page-1)
		pg.Previous = &prev
	}
	return PagedResponse{Pagination: pg, Results: results}
}
