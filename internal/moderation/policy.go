package moderation

import (
	"context"
	"fmt"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"go.uber.org/zap"
)

// Source - какая проверка приняла решение.
type Source string

const (
	SourceNone  Source = "none"
	SourceText  Source = "text"
	SourceImage Source = "image"
)

const (
	CategoryKeywordMatch   = "keyword_match"
	CategoryImageViolation = "image_violation"
)

// Submission - то, что пользователь хочет опубликовать. Пустая строка означает "нет".
type Submission struct {
	Text     string
	ImageURL string
}

// Result - вердикт и источник решения. Источник нужен вызывающему,
// чтобы различать "помечено анализом текста" и "помечено анализом картинки".
type Result struct {
	domain.Verdict
	Source Source
}

// Evaluator - то, что нужно ContentGate от политики модерации.
type Evaluator interface {
	Evaluate(ctx context.Context, sub Submission) Result
}

// Policy прогоняет публикацию через KeywordFilter и Classifier.
// Состояния между вызовами не хранит.
type Policy struct {
	keywords   *KeywordFilter
	classifier Classifier
	log        *zap.Logger
}

// NewPolicy создает политику модерации.
func NewPolicy(keywords *KeywordFilter, classifier Classifier, log *zap.Logger) *Policy {
	return &Policy{
		keywords:   keywords,
		classifier: classifier,
		log:        log,
	}
}

// Evaluate выносит вердикт строго по порядку, останавливаясь на первой пометке:
// запрещенные слова, классификация текста, классификация изображения.
// Картинка не отправляется в классификатор, если текст уже помечен.
func (p *Policy) Evaluate(ctx context.Context, sub Submission) Result {
	res := p.evaluate(ctx, sub)
	recordVerdict(res.Source, res.Flagged)
	return res
}

func (p *Policy) evaluate(ctx context.Context, sub Submission) Result {
	if sub.Text != "" {
		if m := p.keywords.Check(sub.Text); m.Matched {
			p.log.Info("keyword filter matched", zap.String("term", m.Term))
			return Result{
				Verdict: domain.Flag([]string{CategoryKeywordMatch}, fmt.Sprintf("Contains banned word: %q", m.Term)),
				Source:  SourceText,
			}
		}

		if c := p.classifier.ClassifyText(ctx, sub.Text); c.Flagged {
			return Result{
				Verdict: domain.Flag(c.Categories, reasonOr(c.Reason, DefaultTextReason)),
				Source:  SourceText,
			}
		}
	}

	if sub.ImageURL != "" {
		if c := p.classifier.ClassifyImage(ctx, sub.ImageURL); c.Flagged {
			return Result{
				Verdict: domain.Flag([]string{CategoryImageViolation}, reasonOr(c.Reason, DefaultImageReason)),
				Source:  SourceImage,
			}
		}
	}

	return Result{Verdict: domain.Cleared(), Source: SourceNone}
}

func reasonOr(reason *string, fallback string) string {
	if reason == nil || *reason == "" {
		return fallback
	}
	return *reason
}
