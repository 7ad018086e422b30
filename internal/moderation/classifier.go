package moderation

import "context"

// Classification - ответ внешнего классификатора.
type Classification struct {
	Flagged    bool
	Categories []string
	Reason     *string
}

// Unflagged - ответ по умолчанию, когда классификатор выключен или упал.
func Unflagged() Classification {
	return Classification{Flagged: false, Categories: []string{}, Reason: nil}
}

// Classifier - адаптер к внешней классификации текста и изображений.
// Ошибок не возвращает: любой сбой превращается в Unflagged() (fail open).
type Classifier interface {
	ClassifyText(ctx context.Context, text string) Classification
	ClassifyImage(ctx context.Context, imageURL string) Classification
}
