package moderation

import "strings"

// MatchResult - результат проверки по списку запрещенных слов.
type MatchResult struct {
	Matched bool
	Term    string
}

// KeywordFilter ищет запрещенные слова подстрокой, без учета регистра.
// Работает локально и не может упасть, поэтому модерация продолжает работать без классификатора.
type KeywordFilter struct {
	terms []string
}

// NewKeywordFilter создает фильтр. Порядок terms задает приоритет совпадений, пустые строки отбрасываются.
func NewKeywordFilter(terms []string) *KeywordFilter {
	normalized := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			normalized = append(normalized, t)
		}
	}
	return &KeywordFilter{terms: normalized}
}

// Check возвращает первое совпадение в порядке списка, а не в порядке появления в тексте.
func (f *KeywordFilter) Check(text string) MatchResult {
	lower := strings.ToLower(text)
	for _, t := range f.terms {
		if strings.Contains(lower, t) {
			return MatchResult{Matched: true, Term: t}
		}
	}
	return MatchResult{}
}
