// Package pipeline orchestrates the two user-facing flows: analyzing a
// strategy's URLs into crawl results, and generating strategy content from
// those results with the model.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brandpulse/strategy-cli/internal/config"
	"github.com/brandpulse/strategy-cli/internal/crawler"
	"github.com/brandpulse/strategy-cli/internal/model"
	"github.com/brandpulse/strategy-cli/internal/parser"
	"github.com/brandpulse/strategy-cli/internal/prompt"
	"github.com/brandpulse/strategy-cli/internal/resilience"
	"github.com/brandpulse/strategy-cli/internal/store"
	"github.com/brandpulse/strategy-cli/pkg/anthropic"
	"github.com/brandpulse/strategy-cli/pkg/firecrawl"
)

// Engine wires the crawl analyzer, prompt registry, model client, and store
// into the analyze and generate flows.
type Engine struct {
	cfg      *config.Config
	store    store.Store
	analyzer *crawler.Analyzer
	registry *prompt.Registry
	ai       anthropic.Client
	retry    resilience.RetryConfig
}

// New creates an Engine with all dependencies.
func New(cfg *config.Config, st store.Store, fcClient firecrawl.Client, aiClient anthropic.Client) *Engine {
	var pollOpts []firecrawl.PollOption
	if cfg.Crawl.PollIntervalSecs > 0 {
		pollOpts = append(pollOpts, firecrawl.WithPollInterval(time.Duration(cfg.Crawl.PollIntervalSecs)*time.Second))
	}
	if cfg.Crawl.PollMaxAttempts > 0 {
		pollOpts = append(pollOpts, firecrawl.WithMaxAttempts(cfg.Crawl.PollMaxAttempts))
	}

	var analyzerOpts []crawler.AnalyzerOption
	if cfg.Crawl.PageLimit > 0 {
		analyzerOpts = append(analyzerOpts, crawler.WithPageLimit(cfg.Crawl.PageLimit))
	}
	if cfg.Crawl.ScrapeTimeoutMs > 0 {
		analyzerOpts = append(analyzerOpts, crawler.WithScrapeTimeout(cfg.Crawl.ScrapeTimeoutMs))
	}
	analyzerOpts = append(analyzerOpts, crawler.WithPollOptions(pollOpts...))

	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = func(attempt int, err error) {
		zap.L().Warn("pipeline: retrying model call",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	return &Engine{
		cfg:      cfg,
		store:    st,
		analyzer: crawler.NewAnalyzer(fcClient, analyzerOpts...),
		registry: prompt.NewRegistry(st),
		ai:       aiClient,
		retry:    retry,
	}
}

// AnalyzeWebsite crawls one strategy URL, extracts features (or falls back),
// and persists the result. The returned CrawlResult is always non-nil: crawl
// failures surface as Success=false rather than an error. The error covers
// persistence only.
func (e *Engine) AnalyzeWebsite(ctx context.Context, strategyID string, urlType model.URLType, rawURL string) (*model.CrawlResult, error) {
	log := zap.L().With(
		zap.String("strategy_id", strategyID),
		zap.String("url_type", string(urlType)),
		zap.String("url", rawURL),
	)
	log.Info("pipeline: analyzing website")

	result := e.analyzer.Analyze(ctx, rawURL)

	if err := e.store.SaveCrawlResult(ctx, strategyID, urlType, result); err != nil {
		return result, eris.Wrap(err, "pipeline: save crawl result")
	}

	log.Info("pipeline: analysis stored",
		zap.String("crawl_id", result.ID),
		zap.Bool("success", result.Success),
		zap.Bool("content_extracted", result.ContentExtracted),
		zap.Int("pages", result.PagesCrawled),
	)
	return result, nil
}

// AnalyzeStrategy analyzes the strategy's website and product URLs
// concurrently. An empty productURL analyzes the website alone. Keys of the
// returned map are the URL types analyzed.
func (e *Engine) AnalyzeStrategy(ctx context.Context, strategyID, websiteURL, productURL string) (map[model.URLType]*model.CrawlResult, error) {
	targets := map[model.URLType]string{
		model.URLTypeWebsite: websiteURL,
	}
	if productURL != "" {
		targets[model.URLTypeProduct] = productURL
	}

	var mu sync.Mutex
	results := make(map[model.URLType]*model.CrawlResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for urlType, rawURL := range targets {
		g.Go(func() error {
			result, err := e.AnalyzeWebsite(gctx, strategyID, urlType, rawURL)
			mu.Lock()
			results[urlType] = result
			mu.Unlock()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// GenerateOutput carries the persisted generation and its parsed shape.
type GenerateOutput struct {
	Generation *model.Generation
	Parsed     parser.Result
}

// Generate renders the module's prompt over the given variables (enriched
// with the latest crawl result), calls the model, parses the reply, and
// appends the generation to history. An unparseable reply is still
// persisted with its raw content.
func (e *Engine) Generate(ctx context.Context, strategyID, module string, vars map[string]any) (*GenerateOutput, error) {
	log := zap.L().With(
		zap.String("strategy_id", strategyID),
		zap.String("module", module),
	)

	vars = e.enrichVars(ctx, strategyID, vars)

	tpl, err := e.registry.Get(ctx, module)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: resolve prompt %s", module)
	}

	rendered := prompt.Render(tpl, vars)
	if rendered.User == "" {
		// No template anywhere: hand the model the input data verbatim.
		rendered.User = prompt.PassthroughUserPrompt(vars)
	}

	log.Info("pipeline: generating content", zap.String("prompt_source", tpl.Source))

	resp, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       e.cfg.Anthropic.Model,
			MaxTokens:   e.cfg.Anthropic.MaxTokens,
			System:      rendered.System,
			Messages:    []anthropic.Message{{Role: "user", Content: rendered.User}},
			Temperature: &e.cfg.Anthropic.Temperature,
		})
	})
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: generate %s", module)
	}
	resp.Usage.LogCost(e.cfg.Anthropic.Model, module)

	content := resp.Text()
	parsed := parser.Parse(module, content)
	if !parsed.Structured() {
		log.Warn("pipeline: reply did not match expected structure, keeping raw output")
	}

	gen := &model.Generation{
		StrategyID: strategyID,
		Content:    content,
		Metadata: model.GenerationMetadata{
			"type":          module,
			"model":         resp.Model,
			"prompt_source": tpl.Source,
			"structured":    parsed.Structured(),
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
		},
	}
	if err := e.store.AppendGeneration(ctx, gen); err != nil {
		return nil, eris.Wrap(err, "pipeline: append generation")
	}

	log.Info("pipeline: generation stored",
		zap.String("generation_id", gen.ID),
		zap.Bool("structured", parsed.Structured()),
	)
	return &GenerateOutput{Generation: gen, Parsed: parsed}, nil
}

// enrichVars backfills prompt variables from the latest website crawl
// result. Caller-supplied values win; a missing or failed crawl leaves the
// variables untouched.
func (e *Engine) enrichVars(ctx context.Context, strategyID string, vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars)+4)
	for k, v := range vars {
		out[k] = v
	}

	crawl, err := e.store.GetLatestCrawlResult(ctx, strategyID, model.URLTypeWebsite)
	if err != nil {
		zap.L().Warn("pipeline: crawl result lookup failed",
			zap.String("strategy_id", strategyID),
			zap.Error(err),
		)
		return out
	}
	if crawl == nil {
		return out
	}

	setIfMissing := func(key string, value any) {
		if _, ok := out[key]; !ok {
			out[key] = value
		}
	}
	setIfMissing("url", crawl.URL)
	setIfMissing("summary", crawl.Summary)
	setIfMissing("keywords", crawl.Keywords)
	setIfMissing("technologies", crawl.Technologies)
	return out
}
