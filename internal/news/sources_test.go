package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/clients/finnhub"
	"marketpulse/internal/clients/yahoo"
)

type stubParser struct {
	gotURL string
	feed   *gofeed.Feed
	err    error
}

func (p *stubParser) ParseURLWithContext(feedURL string, ctx context.Context) (*gofeed.Feed, error) {
	p.gotURL = feedURL
	return p.feed, p.err
}

type stubYahooNews struct {
	items []yahoo.NewsItem
	err   error
}

func (s *stubYahooNews) SearchNews(ctx context.Context, query string) ([]yahoo.NewsItem, error) {
	return s.items, s.err
}

type stubFinnhub struct {
	articles []finnhub.Article
	err      error
}

func (s *stubFinnhub) GetNews(ctx context.Context, category string) ([]finnhub.Article, error) {
	return s.articles, s.err
}

func yahooArticle(title string, widths ...int) yahoo.NewsItem {
	item := yahoo.NewsItem{Title: title, Publisher: "Reuters", Link: "https://example.com/a", ProviderPublishTime: 1700000000}
	if len(widths) > 0 {
		item.Thumbnail = &struct {
			Resolutions []yahoo.Thumbnail `json:"resolutions"`
		}{}
		for _, w := range widths {
			item.Thumbnail.Resolutions = append(item.Thumbnail.Resolutions, yahoo.Thumbnail{
				URL:   "https://img.example.com/" + string(rune('a'+len(item.Thumbnail.Resolutions))),
				Width: w,
			})
		}
	}
	return item
}

func TestYahooSourcePicksLargestThumbnail(t *testing.T) {
	source := NewYahooSource(&stubYahooNews{items: []yahoo.NewsItem{yahooArticle("rally", 140, 640, 320)}}, testLogger())

	items, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Image)
	// widths were 140, 640, 320; index b carried 640
	assert.Equal(t, "https://img.example.com/b", *items[0].Image)
	assert.Equal(t, "Reuters", items[0].Source)
	assert.Equal(t, "Yahoo Finance", items[0].Origin)
}

func TestYahooSourceSkipsUntitled(t *testing.T) {
	source := NewYahooSource(&stubYahooNews{items: []yahoo.NewsItem{
		{Title: ""},
		yahooArticle("kept"),
	}}, testLogger())

	items, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "kept", items[0].Headline)
	assert.Nil(t, items[0].Image)
}

func TestYahooSourcePropagatesError(t *testing.T) {
	source := NewYahooSource(&stubYahooNews{err: errors.New("timeout")}, testLogger())

	_, err := source.Fetch(context.Background())
	assert.Error(t, err)
}

func mediaItem(title string, contents []ext.Extension, thumbnails []ext.Extension) *gofeed.Item {
	published := time.Unix(1700000000, 0)
	item := &gofeed.Item{Title: title, Link: "https://bbc.example/story", PublishedParsed: &published}
	if contents != nil || thumbnails != nil {
		item.Extensions = ext.Extensions{"media": map[string][]ext.Extension{}}
		if contents != nil {
			item.Extensions["media"]["content"] = contents
		}
		if thumbnails != nil {
			item.Extensions["media"]["thumbnail"] = thumbnails
		}
	}
	return item
}

func TestBBCSourceWidestMediaContent(t *testing.T) {
	parser := &stubParser{feed: &gofeed.Feed{Items: []*gofeed.Item{
		mediaItem("markets fall", []ext.Extension{
			{Attrs: map[string]string{"url": "https://ichef.bbci.co.uk/news/240/small.jpg", "width": "240"}},
			{Attrs: map[string]string{"url": "https://ichef.bbci.co.uk/news/480/large.jpg", "width": "480"}},
		}, nil),
	}}}
	source := NewBBCSource(parser, testLogger())

	items, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Image)
	// widest variant wins and its width segment is bumped
	assert.Equal(t, "https://ichef.bbci.co.uk/news/976/large.jpg", *items[0].Image)
	assert.Equal(t, "BBC News", items[0].Source)
	assert.Equal(t, int64(1700000000), items[0].PublishedAt)
	assert.Equal(t, bbcFeedURL, parser.gotURL)
}

func TestBBCSourceThumbnailFallback(t *testing.T) {
	parser := &stubParser{feed: &gofeed.Feed{Items: []*gofeed.Item{
		mediaItem("markets rise", nil, []ext.Extension{
			{Attrs: map[string]string{"url": "https://ichef.bbci.co.uk/news/144/thumb.jpg"}},
		}),
	}}}
	source := NewBBCSource(parser, testLogger())

	items, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Image)
	assert.Equal(t, "https://ichef.bbci.co.uk/news/976/thumb.jpg", *items[0].Image)
}

func TestBBCSourceNoImage(t *testing.T) {
	parser := &stubParser{feed: &gofeed.Feed{Items: []*gofeed.Item{
		mediaItem("plain story", nil, nil),
	}}}
	source := NewBBCSource(parser, testLogger())

	items, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Image)
}

func TestGoogleSourceExtractsImageFromDescription(t *testing.T) {
	published := time.Unix(1700000000, 0)
	parser := &stubParser{feed: &gofeed.Feed{Items: []*gofeed.Item{
		{
			Title:           "economy grows",
			Link:            "https://news.example/1",
			Description:     `<p><img src="https://img.example/pic.jpg" alt=""></p>`,
			PublishedParsed: &published,
		},
		{Title: "no picture", Link: "https://news.example/2"},
	}}}
	source := NewGoogleNewsSource(parser, "", testLogger())

	items, err := source.FetchQuery(context.Background(), "US Financial Markets")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Image)
	assert.Equal(t, "https://img.example/pic.jpg", *items[0].Image)
	assert.Nil(t, items[1].Image)
	assert.Equal(t, "GoogleNews", items[0].Origin)
	assert.Contains(t, parser.gotURL, "q=US+Financial+Markets")
}

func TestGoogleSourceCapsItems(t *testing.T) {
	feed := &gofeed.Feed{}
	for i := 0; i < 15; i++ {
		feed.Items = append(feed.Items, &gofeed.Item{Title: "story", Link: "#"})
	}
	source := NewGoogleNewsSource(&stubParser{feed: feed}, "", testLogger())

	items, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, googleNewsItemCap)
}

func TestFinnhubSource(t *testing.T) {
	source := NewFinnhubSource(&stubFinnhub{articles: []finnhub.Article{
		{Headline: "rates hold", Source: "CNBC", URL: "https://f.example/1", Image: "https://f.example/1.jpg", Datetime: 1700000000},
		{Headline: ""},
	}}, testLogger())

	items, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "rates hold", items[0].Headline)
	assert.Equal(t, "Finnhub", items[0].Origin)
	require.NotNil(t, items[0].Image)
	assert.Equal(t, "https://f.example/1.jpg", *items[0].Image)
}

func TestFinnhubSourceDisabled(t *testing.T) {
	// a keyless client yields nil articles and no error
	source := NewFinnhubSource(&stubFinnhub{}, testLogger())

	items, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}
