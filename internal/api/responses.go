package api

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// Page is the pagination envelope used by every list endpoint.
type Page struct {
	Data        any     `json:"data"`
	CurrentPage int     `json:"current_page"`
	LastPage    int     `json:"last_page"`
	PrevPageURL *string `json:"prev_page_url"`
	NextPageURL *string `json:"next_page_url"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageParams reads page/page_size query params with sane clamping.
func PageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// NewPage builds the envelope, deriving prev/next URLs from the request URL.
func NewPage(c *gin.Context, data any, page, pageSize, total int) Page {
	lastPage := (total + pageSize - 1) / pageSize
	if lastPage < 1 {
		lastPage = 1
	}

	p := Page{
		Data:        data,
		CurrentPage: page,
		LastPage:    lastPage,
	}

	if page > 1 {
		p.PrevPageURL = pageURL(c, page-1)
	}
	if page < lastPage {
		p.NextPageURL = pageURL(c, page+1)
	}

	return p
}

func pageURL(c *gin.Context, page int) *string {
	u := *c.Request.URL
	q, _ := url.ParseQuery(u.RawQuery)
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
