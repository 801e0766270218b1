package search

import (
	"strconv"
	"strings"

	"github.com/starchives/starchives/app/database"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Duration buckets follow the platform's own search filter:
// short is under 4 minutes, long is 20 minutes or more.
const (
	shortMaxSeconds = 4 * 60
	longMinSeconds  = 20 * 60
)

// Params holds the raw, unvalidated query-string values of a search request
type Params struct {
	Keywords      string
	PublishYear   string
	Duration      string
	SortBy        string
	SortDirection string
	Page          string
	PageSize      string
}

// Request is a normalised search request. Every field holds a usable value.
type Request struct {
	Keywords    string
	PublishYear int
	Duration    string
	SortField   database.SortField
	Descending  bool
	Page        int
	PageSize    int
}

var sortFields = map[string]database.SortField{
	"publishedat":  database.SortPublishedAt,
	"viewcount":    database.SortViewCount,
	"likecount":    database.SortLikeCount,
	"commentcount": database.SortCommentCount,
	"title":        database.SortTitle,
	"duration":     database.SortDuration,
}

// ParseSortField maps a client-supplied field name onto the allow-list.
// Unknown names report false.
func ParseSortField(name string) (database.SortField, bool) {
	field, ok := sortFields[strings.ToLower(strings.TrimSpace(name))]
	return field, ok
}

// Normalize turns raw parameters into a request. Invalid values never fail,
// they fall back to defaults.
func Normalize(p Params) Request {
	req := Request{
		SortField:  database.SortPublishedAt,
		Descending: true,
		Page:       DefaultPage,
		PageSize:   DefaultPageSize,
	}

	// Surrounding spaces are part of the substring; a blank value disables the filter.
	if strings.TrimSpace(p.Keywords) != "" {
		req.Keywords = p.Keywords
	}

	if year, err := strconv.Atoi(strings.TrimSpace(p.PublishYear)); err == nil && year > 0 {
		req.PublishYear = year
	}

	switch duration := strings.ToLower(strings.TrimSpace(p.Duration)); duration {
	case "short", "medium", "long":
		req.Duration = duration
	}

	if field, ok := ParseSortField(p.SortBy); ok {
		req.SortField = field
	}

	if strings.EqualFold(strings.TrimSpace(p.SortDirection), "asc") {
		req.Descending = false
	}

	if page, err := strconv.Atoi(strings.TrimSpace(p.Page)); err == nil {
		req.Page = max(page, 1)
	}

	if size, err := strconv.Atoi(strings.TrimSpace(p.PageSize)); err == nil && size >= 1 {
		req.PageSize = min(size, MaxPageSize)
	}

	return req
}

// Query translates the request into a store query for its page
func (r Request) Query() database.VideoQuery {
	query := database.VideoQuery{
		Keywords:    r.Keywords,
		PublishYear: r.PublishYear,
		SortField:   r.SortField,
		Descending:  r.Descending,
		Limit:       r.PageSize,
		Offset:      offset(r.Page, r.PageSize),
	}

	switch r.Duration {
	case "short":
		query.MaxDurationSeconds = shortMaxSeconds
	case "medium":
		query.MinDurationSeconds = shortMaxSeconds
		query.MaxDurationSeconds = longMinSeconds
	case "long":
		query.MinDurationSeconds = longMinSeconds
	}

	return query
}

// offset saturates instead of overflowing for absurd page numbers
func offset(page, pageSize int) int {
	const maxInt = int(^uint(0) >> 1)
	if page-1 > maxInt/pageSize {
		return maxInt
	}
	return (page - 1) * pageSize
}
