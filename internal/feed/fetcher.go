package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// fetchTimeout bounds one feed request.
	fetchTimeout = 30 * time.Second

	// maxConcurrentFetches limits parallel requests against the Nitter
	// instance, which rate-limits aggressively.
	maxConcurrentFetches = 3
)

// Fetcher retrieves and parses source feeds from a Nitter instance.
type Fetcher struct {
	httpClient *http.Client
	logger     zerolog.Logger
	baseURL    string
}

// NewFetcher creates a feed fetcher against the given Nitter base URL.
func NewFetcher(baseURL string, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: fetchTimeout},
		logger:     logger.With().Str("component", "feed").Logger(),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// FetchSource fetches one source's RSS feed. The source is an @handle; the
// feed URL drops the @.
func (f *Fetcher) FetchSource(ctx context.Context, source string) (*Feed, error) {
	handle := strings.TrimPrefix(source, "@")
	url := fmt.Sprintf("%s/%s/rss", f.baseURL, handle)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("fetch feed %s: status %d: %s", source, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	feed, err := Parse(resp.Body, source)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", source, err)
	}
	return feed, nil
}

// FetchAll fetches every source concurrently. A source that fails is logged
// and skipped; one dead feed must not starve the others.
func (f *Fetcher) FetchAll(ctx context.Context, sources []string) map[string]*Feed {
	var mu sync.Mutex
	feeds := make(map[string]*Feed, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, source := range sources {
		g.Go(func() error {
			feed, err := f.FetchSource(gctx, source)
			if err != nil {
				f.logger.Warn().Err(err).Str("source", source).Msg("Feed fetch failed, skipping source")
				return nil
			}
			mu.Lock()
			feeds[source] = feed
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return feeds
}
