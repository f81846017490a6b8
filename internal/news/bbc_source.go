package news

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/rs/zerolog"
)

const bbcFeedURL = "http://feeds.bbci.co.uk/news/business/rss.xml"

// bbcImageWidthRe matches the width segment of BBC image CDN URLs
// (e.g. https://ichef.bbci.co.uk/news/240/cpsprodpb/...).
var bbcImageWidthRe = regexp.MustCompile(`/news/\d+/`)

// feedParser is the slice of gofeed.Parser the RSS sources need.
type feedParser interface {
	ParseURLWithContext(feedURL string, ctx context.Context) (*gofeed.Feed, error)
}

// BBCSource serves business headlines from the BBC RSS feed.
type BBCSource struct {
	parser feedParser
	log    zerolog.Logger
}

// NewBBCSource creates a new BBC news source
func NewBBCSource(parser feedParser, log zerolog.Logger) *BBCSource {
	return &BBCSource{
		parser: parser,
		log:    log.With().Str("news_source", "bbc").Logger(),
	}
}

func (s *BBCSource) Name() string { return "bbc" }

func (s *BBCSource) Fetch(ctx context.Context) ([]Item, error) {
	feed, err := s.parser.ParseURLWithContext(bbcFeedURL, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry.Title == "" {
			continue
		}

		link := entry.Link
		if link == "" {
			link = "#"
		}

		published := time.Now().Unix()
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.Unix()
		}

		items = append(items, Item{
			Headline:    entry.Title,
			Source:      "BBC News",
			Link:        link,
			Image:       bbcImage(entry),
			PublishedAt: published,
			Origin:      "BBC",
		})
	}

	return items, nil
}

// bbcImage extracts artwork from the entry's media extensions: the widest
// media:content, else the first media:thumbnail. The CDN width segment is
// bumped to 976 because the feed links low-resolution variants.
func bbcImage(entry *gofeed.Item) *string {
	url := widestMediaContent(entry)
	if url == "" {
		url = firstMediaThumbnail(entry)
	}
	if url == "" {
		return nil
	}

	url = bbcImageWidthRe.ReplaceAllString(url, "/news/976/")
	return &url
}

func widestMediaContent(entry *gofeed.Item) string {
	contents := mediaExtensions(entry, "content")
	best := ""
	bestWidth := -1
	for _, content := range contents {
		width, _ := strconv.Atoi(content.Attrs["width"])
		if content.Attrs["url"] != "" && width > bestWidth {
			best = content.Attrs["url"]
			bestWidth = width
		}
	}
	return best
}

func firstMediaThumbnail(entry *gofeed.Item) string {
	thumbs := mediaExtensions(entry, "thumbnail")
	if len(thumbs) == 0 {
		return ""
	}
	return thumbs[0].Attrs["url"]
}

func mediaExtensions(entry *gofeed.Item, name string) []ext.Extension {
	media, ok := entry.Extensions["media"]
	if !ok {
		return nil
	}
	return media[name]
}
