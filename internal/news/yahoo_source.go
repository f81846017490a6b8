package news

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"marketpulse/internal/clients/yahoo"
)

// yahooNewsAPI is the slice of the Yahoo client this source needs.
type yahooNewsAPI interface {
	SearchNews(ctx context.Context, query string) ([]yahoo.NewsItem, error)
}

// YahooSource serves market headlines from the Yahoo Finance search feed.
type YahooSource struct {
	client yahooNewsAPI
	log    zerolog.Logger
}

// NewYahooSource creates a new Yahoo news source
func NewYahooSource(client yahooNewsAPI, log zerolog.Logger) *YahooSource {
	return &YahooSource{
		client: client,
		log:    log.With().Str("news_source", "yahoo").Logger(),
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

// Fetch returns broad-market headlines. Items without a title are dropped.
func (s *YahooSource) Fetch(ctx context.Context) ([]Item, error) {
	articles, err := s.client.SearchNews(ctx, "stock market")
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(articles))
	for _, article := range articles {
		if article.Title == "" {
			continue
		}

		source := article.Publisher
		if source == "" {
			source = "Yahoo Finance"
		}
		link := article.Link
		if link == "" {
			link = "#"
		}
		published := article.ProviderPublishTime
		if published == 0 {
			published = time.Now().Unix()
		}

		items = append(items, Item{
			Headline:    article.Title,
			Source:      source,
			Link:        link,
			Image:       bestThumbnail(article),
			PublishedAt: published,
			Origin:      "Yahoo Finance",
		})
	}

	return items, nil
}

// bestThumbnail picks the widest resolution of an article's thumbnail set.
func bestThumbnail(article yahoo.NewsItem) *string {
	if article.Thumbnail == nil || len(article.Thumbnail.Resolutions) == 0 {
		return nil
	}

	resolutions := make([]yahoo.Thumbnail, len(article.Thumbnail.Resolutions))
	copy(resolutions, article.Thumbnail.Resolutions)
	sort.Slice(resolutions, func(i, j int) bool {
		return resolutions[i].Width > resolutions[j].Width
	})

	if resolutions[0].URL == "" {
		return nil
	}
	url := resolutions[0].URL
	return &url
}
