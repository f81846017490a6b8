// Package news aggregates financial headlines from several providers into
// one normalized feed. Each provider is isolated: a failing source
// contributes nothing but never takes down the aggregate.
package news

import "context"

// Item is one normalized headline.
// Image is nil when the provider has no usable artwork.
type Item struct {
	Headline    string  `json:"headline"`
	Source      string  `json:"source"`
	Link        string  `json:"link"`
	Image       *string `json:"image"`
	PublishedAt int64   `json:"timestamp"`
	Origin      string  `json:"origin"`
}

// Source is one headline provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Item, error)
}
