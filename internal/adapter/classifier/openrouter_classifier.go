// Package classifier adapts the external LLM classification service to the
// domain.BatchClassifier port. One Classify call covers one batch; retry
// policy lives with the caller.
package classifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"exambank/internal/config"
	"exambank/internal/domain"
	"exambank/internal/quota"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// llmCaller is the slice of the langchaingo client the adapter needs.
type llmCaller interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

// OpenRouterClassifier sends grouped classification requests to an
// OpenAI-compatible endpoint (OpenRouter in production) and maps the
// structured responses back onto the batch.
type OpenRouterClassifier struct {
	llm          llmCaller
	taxonomy     quota.Taxonomy
	systemPrompt string
	timeout      time.Duration
	logger       *zap.Logger
}

// NewOpenRouterClassifier builds a classifier for the given taxonomy. The
// taxonomy is embedded into the system prompt so the service can only answer
// within the allowed classification space.
func NewOpenRouterClassifier(cfg config.ClassifierConfig, taxonomy quota.Taxonomy, logger *zap.Logger) (domain.BatchClassifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("classifier API key cannot be empty")
	}
	if len(taxonomy) == 0 {
		return nil, fmt.Errorf("classification taxonomy cannot be empty")
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     30 * time.Second,
		},
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &OpenRouterClassifier{
		llm:          llm,
		taxonomy:     taxonomy,
		systemPrompt: buildSystemPrompt(taxonomy),
		timeout:      cfg.Timeout,
		logger:       logger,
	}, nil
}

// Classify implements domain.BatchClassifier. Transport errors, unparsable
// responses and uncorrelatable records all become per-record failures; the
// error return fires only on context cancellation.
func (c *OpenRouterClassifier) Classify(ctx context.Context, batch []*domain.Question, model string) ([]*domain.Question, []domain.ClassificationFailure, error) {
	if len(batch) == 0 {
		return nil, nil, nil
	}

	prompt := c.systemPrompt + "\n\n" + buildUserPrompt(batch)

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	callOpts := []llms.CallOption{llms.WithTemperature(0.1)}
	if model != "" {
		callOpts = append(callOpts, llms.WithModel(model))
	}

	raw, err := c.llm.Call(callCtx, prompt, callOpts...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		c.logger.Warn("classification request failed",
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		return nil, failBatch(batch, fmt.Sprintf("classification request failed: %v", err)), nil
	}

	items, err := parseClassifications(raw)
	if err != nil {
		c.logger.Warn("unparsable classification response",
			zap.Int("batch_size", len(batch)),
			zap.String("response_head", head(raw, 200)),
			zap.Error(err))
		return nil, failBatch(batch, fmt.Sprintf("unparsable classification response: %v", err)), nil
	}

	updated, failed := c.correlate(batch, items)
	return updated, failed, nil
}

// correlate matches response items to batch records strictly by echoed
// identifier and validates each against the taxonomy.
func (c *OpenRouterClassifier) correlate(batch []*domain.Question, items []classificationItem) ([]*domain.Question, []domain.ClassificationFailure) {
	byID := make(map[string]classificationItem, len(items))
	known := make(map[string]struct{}, len(batch))
	for _, q := range batch {
		known[q.ID()] = struct{}{}
	}
	for _, item := range items {
		if _, ok := known[item.QnAID]; !ok {
			c.logger.Warn("response echoed unknown identifier", zap.String("qna_id", item.QnAID))
			continue
		}
		byID[item.QnAID] = item
	}

	var updated []*domain.Question
	var failed []domain.ClassificationFailure
	for _, q := range batch {
		item, ok := byID[q.ID()]
		if !ok {
			failed = append(failed, domain.ClassificationFailure{
				Question: q,
				Reason:   "response did not echo this identifier",
			})
			continue
		}

		isCalc, err := item.isCalculation()
		if err != nil {
			failed = append(failed, domain.ClassificationFailure{
				Question: q,
				Reason:   err.Error(),
			})
			continue
		}
		if !c.taxonomy.Contains(item.Domain, item.Subdomain) {
			failed = append(failed, domain.ClassificationFailure{
				Question: q,
				Reason:   fmt.Sprintf("classification %q/%q not in taxonomy", item.Domain, item.Subdomain),
			})
			continue
		}

		if err := q.SetClassification(item.Domain, item.Subdomain, item.Reason, isCalc); err != nil {
			failed = append(failed, domain.ClassificationFailure{Question: q, Reason: err.Error()})
			continue
		}
		updated = append(updated, q)
	}
	return updated, failed
}

func failBatch(batch []*domain.Question, reason string) []domain.ClassificationFailure {
	failed := make([]domain.ClassificationFailure, 0, len(batch))
	for _, q := range batch {
		failed = append(failed, domain.ClassificationFailure{Question: q, Reason: reason})
	}
	return failed
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
