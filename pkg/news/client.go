package news

import (
	"context"
	"time"
)

// Article is one raw headline as reported by a news provider.
type Article struct {
	Title       string
	Description string
	URL         string
	Source      string
	PublishedAt time.Time
}

// Query narrows a headline request. Sources is mutually exclusive with
// Category and Country on most providers; the client passes whatever is set
// and lets the provider arbitrate.
type Query struct {
	Category string
	Query    string
	Country  string
	Sources  string
	PageSize int
}

type Fetcher interface {
	TopHeadlines(ctx context.Context, q Query) ([]Article, error)
	Name() string
}
