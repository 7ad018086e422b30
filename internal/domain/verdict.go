package domain

// DefaultCategory подставляется, если классификатор пометил контент, но не назвал категорию.
const DefaultCategory = "violation"

// Verdict - итог модерации одной публикации.
// Инвариант: Flagged == false <=> Reason == nil. Значение неизменяемо,
// при одобрении админом заменяется целиком на Cleared().
type Verdict struct {
	Flagged    bool     `json:"flagged" gorm:"column:flagged;not null;default:false;index"`
	Categories []string `json:"categories" gorm:"column:categories;serializer:json;type:text"`
	Reason     *string  `json:"reason" gorm:"column:reason;type:text"`
}

// Cleared возвращает "чистый" вердикт.
func Cleared() Verdict {
	return Verdict{Flagged: false, Categories: []string{}, Reason: nil}
}

// Flag возвращает вердикт с пометкой. Пустые категории заменяются на DefaultCategory.
func Flag(categories []string, reason string) Verdict {
	if len(categories) == 0 {
		categories = []string{DefaultCategory}
	}
	cats := make([]string, len(categories))
	copy(cats, categories)
	return Verdict{Flagged: true, Categories: cats, Reason: &reason}
}

// ReasonText возвращает причину или пустую строку.
func (v Verdict) ReasonText() string {
	if v.Reason == nil {
		return ""
	}
	return *v.Reason
}
