package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const maxPageSize = 100

// paramID parses a positive integer path parameter. Malformed ids cannot
// name any row, so they are reported as not found.
func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &service.Error{Kind: service.ErrNotFound, Message: "not found"}
	}
	return uint(id), nil
}

// bindJSON decodes the request body, turning decode and binding failures
// into field errors.
func bindJSON(c *gin.Context, obj interface{}) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &service.Error{Kind: service.ErrTooLarge, Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)}
	}

	out := &service.ValidationError{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out.Add(toSnake(fe.Field()), "This field is required.")
		}
		return out
	}
	out.Add("non_field_errors", "malformed JSON body")
	return out
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// queryBool accepts the values Django's BooleanFilter understands.
func queryBool(c *gin.Context, name string, verr *service.ValidationError) bool {
	raw := c.Query(name)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		verr.Add(name, "must be true, false, 1 or 0")
	}
	return v
}

func queryUint(c *gin.Context, name string, verr *service.ValidationError) uint {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		verr.Add(name, "must be a positive integer")
	}
	return uint(v)
}

// recipesLimit parses ?recipes_limit=. Only an absent parameter means no
// limit; zero embeds no recipes.
func recipesLimit(c *gin.Context) (int, error) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return service.AllRecipes, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		verr := &service.ValidationError{}
		verr.Add("recipes_limit", "must be a non-negative integer")
		return 0, verr
	}
	return v, nil
}

// pageParams reads ?page= and ?limit=. A bad limit falls back to the default.
func pageParams(c *gin.Context, defaultSize int) (types.Page, error) {
	page := types.Page{Number: 1, Size: defaultSize}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, &service.Error{Kind: service.ErrNotFound, Message: "invalid page"}
		}
		page.Number = n
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Size = n
		}
	}
	if page.Size > maxPageSize {
		page.Size = maxPageSize
	}
	// no list is long enough to reach an offset that overflows
	if page.Size > 0 && page.Number-1 > math.MaxInt/page.Size {
		return page, &service.Error{Kind: service.ErrNotFound, Message: "invalid page"}
	}
	return page, nil
}

// Paginated is the envelope of every paginated list.
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// paginate wraps results with absolute links to the neighbouring pages.
// A page past the end of a non-empty list is not found.
func paginate[T any](c *gin.Context, page types.Page, total int64, results []T) (*Paginated[T], error) {
	if page.Number > 1 && int64(page.Offset()) >= total {
		return nil, &service.Error{Kind: service.ErrNotFound, Message: "invalid page"}
	}
	if results == nil {
		results = []T{}
	}

	out := &Paginated[T]{Count: total, Results: results}
	if int64(page.Offset()+len(results)) < total {
		next := pageURL(c, page.Number+1)
		out.Next = &next
	}
	if page.Number > 1 {
		prev := pageURL(c, page.Number-1)
		out.Previous = &prev
	}
	return out, nil
}

func pageURL(c *gin.Context, number int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := c.Request.URL.Query()
	if number <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(number))
	}

	u := url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path, RawQuery: query.Encode()}
	return u.String()
}
