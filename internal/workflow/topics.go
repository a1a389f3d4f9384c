package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/marcus/appman/internal/models"
)

// ErrNoTopics is wrapped in a FetchError when a source yields nothing.
var ErrNoTopics = errors.New("no topics found")

// TopicSource lists the topic ids of a source location
type TopicSource interface {
	ListTopics(ctx context.Context, webname string) ([]string, error)
}

// TopicFetcher resolves topics for the partial-link transfer type
type TopicFetcher struct {
	Source TopicSource
}

// Fetch lists the topics of source, each defaulted to ignore. A blank
// source is a no-op and returns nil, nil.
func (f TopicFetcher) Fetch(ctx context.Context, source string) ([]models.Topic, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil
	}
	ids, err := f.Source.ListTopics(ctx, source)
	if err != nil {
		return nil, &FetchError{Op: "topics", Target: source, Err: err}
	}
	if len(ids) == 0 {
		return nil, &FetchError{Op: "topics", Target: source, Err: ErrNoTopics}
	}
	topics := make([]models.Topic, len(ids))
	for i, id := range ids {
		topics[i] = models.Topic{ID: id, Disposition: models.DispositionIgnore}
	}
	return topics, nil
}
