package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/sakif/snippets/internal/apperror"
)

// Page is the envelope every list endpoint returns.
//
//	{"count": 23, "next": "http://host/snippets/?page=3", "previous": "http://host/snippets/", "results": [...]}
//
// next and previous are null at the ends.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

const (
	pageParam      = "page"
	pageSizeParam  = "page_size"
	msgInvalidPage = "Invalid page."
)

// Paginator reads ?page and ?page_size from a request.
type Paginator struct {
	DefaultSize int
	MaxSize     int
}

// DefaultPaginator serves 10 items per page and never more than 100.
func DefaultPaginator() Paginator {
	return Paginator{DefaultSize: 10, MaxSize: 100}
}

// PageRequest is one parsed ?page / ?page_size pair.
type PageRequest struct {
	Number int
	Size   int
}

func (p PageRequest) Limit() int  { return p.Size }
func (p PageRequest) Offset() int { return (p.Number - 1) * p.Size }

// Parse validates the query. A page that isn't a positive integer is
// "Invalid page." (404); a bad page_size silently falls back to the default
// and an oversized one is clamped.
func (p Paginator) Parse(r *http.Request) (PageRequest, error) {
	q := r.URL.Query()

	req := PageRequest{Number: 1, Size: p.DefaultSize}

	if raw := q.Get(pageParam); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return PageRequest{}, invalidPage()
		}
		req.Number = n
	}

	if raw := q.Get(pageSizeParam); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			req.Size = n
		}
	}
	if p.MaxSize > 0 && req.Size > p.MaxSize {
		req.Size = p.MaxSize
	}
	return req, nil
}

func invalidPage() error {
	return &apperror.AppError{Err: apperror.ErrNotFound, Message: msgInvalidPage}
}

// newPage wraps results into the envelope. Page 1 always exists, even when
// the collection is empty; any later page past the end is an error.
func newPage[T any](r *http.Request, req PageRequest, total int, results []T) (Page[T], error) {
	lastPage := 1
	if total > 0 {
		lastPage = (total + req.Size - 1) / req.Size
	}
	if req.Number > lastPage {
		return Page[T]{}, invalidPage()
	}

	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: total, Results: results}

	if req.Number < lastPage {
		link := pageLink(r, req.Number+1)
		page.Next = &link
	}
	if req.Number > 1 {
		link := pageLink(r, req.Number-1)
		page.Previous = &link
	}
	return page, nil
}

// pageLink is the current absolute URL with ?page replaced. Page 1 is
// written without the parameter; every other query parameter is kept.
func pageLink(r *http.Request, number int) string {
	q := r.URL.Query()
	if number <= 1 {
		q.Del(pageParam)
	} else {
		q.Set(pageParam, strconv.Itoa(number))
	}

	u := url.URL{Path: r.URL.Path, RawQuery: q.Encode()}
	return baseURL(r) + u.String()
}
