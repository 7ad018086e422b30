package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/sony/gobreaker"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"resty.dev/v3"
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultTextModel   = "llama-3.3-70b-versatile"
	DefaultImageModel  = "llama-3.2-90b-vision-preview"
	DefaultTimeout     = 10 * time.Second
	DefaultTextReason  = "Flagged by AI"
	DefaultImageReason = "Flagged by AI Vision"

	// placeholderKey попадает в конфиг из шаблона .env и означает "ключ не задан".
	placeholderKey = "paste_your_groq_key"
)

const textPrompt = `You are a strict content moderator for a social media app.
Analyze the user's comment for:
1. Hate Speech (racism, sexism, slurs)
2. Spam (irrelevant, repetitive, promotional)
3. Sexual content (explicit or suggestive)
4. Harassment (bullying, threats, "I hate you")
5. Violence

If ANY of these are detected, flag it.
Return ONLY a JSON object: { "flagged": boolean, "categories": string[], "reason": string }.`

const imagePrompt = `You are a highly strict content moderator. Analyze this image for:
1. Nudity/Pornography (including partial, suggestive, or screenshots of porn sites).
2. Violence/Gore.
3. Hate Symbols.
4. Visual text containing 'porn', 'xxx', or sexual slurs.
If ANY trace is found, set flagged to true.
Return ONLY JSON: { "flagged": boolean, "reason": string }.`

var (
	errEmptyResponse  = errors.New("classifier returned no choices")
	errMissingFlagged = errors.New("classifier response has no flagged field")
)

// GroqConfig - настройки OpenAI-совместимого классификатора (по умолчанию Groq).
type GroqConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
	// RateLimit - запросов в секунду к внешнему API; 0 - без ограничения.
	RateLimit float64
	Burst     int
}

// Configured сообщает, задан ли настоящий ключ.
func (c GroqConfig) Configured() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && !strings.Contains(key, placeholderKey)
}

func (c *GroqConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TextModel == "" {
		c.TextModel = DefaultTextModel
	}
	if c.ImageModel == "" {
		c.ImageModel = DefaultImageModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
}

// GroqClassifier классифицирует текст и картинки через chat completion в JSON-режиме.
// Любой сбой (нет ключа, сеть, таймаут, открытый breaker, кривой JSON) дает Unflagged().
type GroqClassifier struct {
	cfg     GroqConfig
	llm     llms.Model // nil, если ключ не задан
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewGroqClassifier создает классификатор. Без ключа возвращает рабочий экземпляр,
// который ничего не отправляет в сеть.
func NewGroqClassifier(cfg GroqConfig, log *zap.Logger) (*GroqClassifier, error) {
	cfg.applyDefaults()

	c := &GroqClassifier{cfg: cfg, log: log}
	if !cfg.Configured() {
		log.Warn("classifier API key missing, AI moderation disabled")
		return c, nil
	}

	// Таймауты на уровне транспорта; общий дедлайн вызова задается через context.
	c.http = resty.NewWithTransportSettings(&resty.TransportSettings{
		DialerTimeout:         cfg.Timeout,
		DialerKeepAlive:       30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.Timeout,
		ExpectContinueTimeout: time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
	})

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.TextModel),
		openai.WithHTTPClient(c.http.Client()),
	)
	if err != nil {
		_ = c.http.Close()
		return nil, fmt.Errorf("creating classifier client: %w", err)
	}
	c.llm = llm

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	c.limiter = rate.NewLimiter(limit, cfg.Burst)

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Отмена вызывающим - не вина внешнего сервиса.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return c, nil
}

// Close освобождает HTTP-транспорт.
func (c *GroqClassifier) Close() error {
	if c.http == nil {
		return nil
	}
	return c.http.Close()
}

func (c *GroqClassifier) ClassifyText(ctx context.Context, text string) Classification {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, textPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, text),
	}
	return c.classify(ctx, "text", c.cfg.TextModel, DefaultTextReason, messages)
}

func (c *GroqClassifier) ClassifyImage(ctx context.Context, imageURL string) Classification {
	messages := []llms.MessageContent{{
		Role: schema.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextContent{Text: imagePrompt},
			llms.ImageURLContent{URL: imageURL},
		},
	}}
	return c.classify(ctx, "image", c.cfg.ImageModel, DefaultImageReason, messages)
}

func (c *GroqClassifier) classify(ctx context.Context, kind, model, defaultReason string, messages []llms.MessageContent) Classification {
	log := c.log.With(zap.String("kind", kind), zap.String("model", model))

	if c.llm == nil {
		log.Warn("classifier not configured, AI moderation skipped")
		recordCall(kind, outcomeSkipped)
		return Unflagged()
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		log.Warn("classifier rate limit wait failed, failing open", zap.Error(err))
		recordCall(kind, outcomeRejected)
		return Unflagged()
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.llm.GenerateContent(ctx, messages,
			llms.WithModel(model),
			llms.WithTemperature(0),
			llms.WithJSONMode(),
		)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, errEmptyResponse
		}
		return resp.Choices[0].Content, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Warn("classifier circuit open, failing open", zap.Error(err))
			recordCall(kind, outcomeRejected)
		} else {
			log.Error("classifier call failed, failing open", zap.Error(err))
			recordCall(kind, outcomeFailed)
		}
		return Unflagged()
	}

	resp, err := decodeClassification(out.(string))
	if err != nil {
		log.Error("classifier response rejected, failing open", zap.Error(err))
		recordCall(kind, outcomeFailed)
		return Unflagged()
	}

	if !*resp.Flagged {
		recordCall(kind, outcomeClean)
		return Unflagged()
	}

	recordCall(kind, outcomeFlagged)
	categories := resp.Categories
	if len(categories) == 0 {
		categories = []string{domain.DefaultCategory}
	}
	reason := reasonOr(resp.Reason, defaultReason)
	log.Info("classifier flagged content", zap.Strings("categories", categories), zap.String("reason", reason))
	return Classification{Flagged: true, Categories: categories, Reason: &reason}
}

// classifierResponse - ожидаемая форма ответа модели. flagged обязателен.
type classifierResponse struct {
	Flagged    *bool    `json:"flagged"`
	Categories []string `json:"categories"`
	Reason     *string  `json:"reason"`
}

// decodeClassification строго разбирает ответ: любое несовпадение формы - ошибка.
func decodeClassification(content string) (classifierResponse, error) {
	var resp classifierResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &resp); err != nil {
		return classifierResponse{}, fmt.Errorf("decoding classifier response: %w", err)
	}
	if resp.Flagged == nil {
		return classifierResponse{}, errMissingFlagged
	}
	return resp, nil
}
