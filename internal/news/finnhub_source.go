package news

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"marketpulse/internal/clients/finnhub"
)

const finnhubItemCap = 10

// finnhubAPI is the slice of the Finnhub client this source needs.
type finnhubAPI interface {
	GetNews(ctx context.Context, category string) ([]finnhub.Article, error)
}

// FinnhubSource serves general-category headlines from Finnhub.
// Without an API key the underlying client returns nothing, so the source
// degrades to an empty contribution.
type FinnhubSource struct {
	client finnhubAPI
	log    zerolog.Logger
}

// NewFinnhubSource creates a new Finnhub news source
func NewFinnhubSource(client finnhubAPI, log zerolog.Logger) *FinnhubSource {
	return &FinnhubSource{
		client: client,
		log:    log.With().Str("news_source", "finnhub").Logger(),
	}
}

func (s *FinnhubSource) Name() string { return "finnhub" }

func (s *FinnhubSource) Fetch(ctx context.Context) ([]Item, error) {
	articles, err := s.client.GetNews(ctx, "general")
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, finnhubItemCap)
	for _, article := range articles {
		if len(items) >= finnhubItemCap {
			break
		}
		if article.Headline == "" {
			continue
		}

		var image *string
		if article.Image != "" {
			img := article.Image
			image = &img
		}
		published := article.Datetime
		if published == 0 {
			published = time.Now().Unix()
		}

		items = append(items, Item{
			Headline:    article.Headline,
			Source:      article.Source,
			Link:        article.URL,
			Image:       image,
			PublishedAt: published,
			Origin:      "Finnhub",
		})
	}

	return items, nil
}
