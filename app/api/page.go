package api

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/starchives/starchives/app/search"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"timestamp": func(ms int64) string {
		return (time.Duration(ms) * time.Millisecond).Truncate(time.Second).String()
	},
	"seconds": func(ms int64) int64 {
		return ms / 1000
	},
	"date": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
}).ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Title    string
	Request  search.Request
	Page     *search.Page
	Error    string
	PrevLink string
	NextLink string
}

// Index renders the search page with the same planner as the JSON API
func (h *Handler) Index(c *gin.Context) {
	params := paramsFromQuery(c)
	req := search.Normalize(params)

	data := pageData{
		Title:   h.title.Get(),
		Request: req,
	}

	page, err := h.planner.Search(c.Request.Context(), req)
	if err != nil {
		slog.Error("Database error", "operation", "render_index", "error", err)
		data.Error = "Search is unavailable right now."
		c.Status(http.StatusInternalServerError)
	} else {
		data.Page = page
		if page.CurrentPage > 1 {
			data.PrevLink = pageLink(c.Request.URL.Query(), page.CurrentPage-1)
		}
		if page.CurrentPage < page.TotalPages {
			data.NextLink = pageLink(c.Request.URL.Query(), page.CurrentPage+1)
		}
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(c.Writer, data); err != nil {
		slog.Error("Template rendering error", "error", err)
	}
}

func pageLink(query url.Values, page int) string {
	query.Set("page", strconv.Itoa(page))
	return "/?" + query.Encode()
}
