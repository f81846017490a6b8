package news

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

const googleNewsItemCap = 10

// imgSrcRe extracts the first embedded image URL from a description's HTML.
var imgSrcRe = regexp.MustCompile(`src="([^"]+)"`)

// GoogleNewsSource serves headlines from the Google News RSS search feed.
// The zero query falls back to a broad finance search.
type GoogleNewsSource struct {
	parser feedParser
	query  string
	log    zerolog.Logger
}

// NewGoogleNewsSource creates a new Google News source with a default query
func NewGoogleNewsSource(parser feedParser, query string, log zerolog.Logger) *GoogleNewsSource {
	if query == "" {
		query = "Global Finance News"
	}
	return &GoogleNewsSource{
		parser: parser,
		query:  query,
		log:    log.With().Str("news_source", "google").Logger(),
	}
}

func (s *GoogleNewsSource) Name() string { return "google" }

func (s *GoogleNewsSource) Fetch(ctx context.Context) ([]Item, error) {
	return s.FetchQuery(ctx, s.query)
}

// FetchQuery fetches headlines matching an arbitrary search query,
// capped at ten items in provider order.
func (s *GoogleNewsSource) FetchQuery(ctx context.Context, query string) ([]Item, error) {
	feedURL := fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
		url.QueryEscape(query))

	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, googleNewsItemCap)
	for _, entry := range feed.Items {
		if len(items) >= googleNewsItemCap {
			break
		}
		if entry.Title == "" {
			continue
		}

		published := time.Now().Unix()
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.Unix()
		}

		var image *string
		if m := imgSrcRe.FindStringSubmatch(entry.Description); m != nil {
			image = &m[1]
		}

		items = append(items, Item{
			Headline:    entry.Title,
			Source:      "Google News",
			Link:        entry.Link,
			Image:       image,
			PublishedAt: published,
			Origin:      "GoogleNews",
		})
	}

	return items, nil
}
