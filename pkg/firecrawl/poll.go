package firecrawl

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// StatusTimeout tags a poll result whose attempt budget ran out before the
// provider reported a terminal status. It is produced client-side; the
// provider never returns it.
const StatusTimeout = "timeout"

const (
	defaultPollInterval = 3 * time.Second
	defaultMaxAttempts  = 10
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval    time.Duration
	maxAttempts int
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		interval:    defaultPollInterval,
		maxAttempts: defaultMaxAttempts,
	}
}

// WithPollInterval overrides the fixed poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithMaxAttempts overrides the poll attempt budget.
func WithMaxAttempts(n int) PollOption {
	return func(c *pollConfig) {
		c.maxAttempts = n
	}
}

// PollCrawl polls GetCrawlStatus at a fixed interval until the job reaches a
// terminal status or the attempt budget is exhausted. On exhaustion the last
// known partial state is returned with Status set to "timeout" rather than
// an error, so callers can still use whatever pages came back.
func PollCrawl(ctx context.Context, client Client, id string, opts ...PollOption) (*CrawlStatusResponse, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var last *CrawlStatusResponse
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		status, err := client.GetCrawlStatus(ctx, id)
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("firecrawl: poll crawl %s", id))
		}
		last = status

		if TerminalStatus(status.Status) {
			return status, nil
		}

		zap.L().Debug("firecrawl: crawl still running",
			zap.String("id", id),
			zap.String("status", status.Status),
			zap.Int("attempt", attempt),
			zap.Int("pages", len(status.Data)),
		)

		if attempt == cfg.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("firecrawl: poll crawl %s canceled", id))
		case <-time.After(cfg.interval):
		}
	}

	if last == nil {
		last = &CrawlStatusResponse{}
	}
	last.Status = StatusTimeout
	return last, nil
}
