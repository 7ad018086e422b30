package content

import (
	"time"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
)

// HiddenPlaceholder заменяет текст помеченного контента для обычных читателей.
const HiddenPlaceholder = "[Content hidden pending review]"

// PresentedPost - пост в том виде, в каком его видит конкретный читатель.
// Moderation заполнен только при полном просмотре.
type PresentedPost struct {
	ID         string          `json:"id"`
	AuthorID   string          `json:"authorId"`
	Caption    string          `json:"caption"`
	ImageURL   string          `json:"imageUrl,omitempty"`
	LikesCount int             `json:"likesCount"`
	CreatedAt  time.Time       `json:"createdAt"`
	IsFlagged  bool            `json:"isFlagged"`
	Hidden     bool            `json:"hidden"`
	Moderation *domain.Verdict `json:"moderation,omitempty"`
}

// PresentedComment - комментарий в том виде, в каком его видит читатель.
type PresentedComment struct {
	ID         string          `json:"id"`
	PostID     string          `json:"postId"`
	AuthorID   string          `json:"authorId"`
	Text       string          `json:"text"`
	CreatedAt  time.Time       `json:"createdAt"`
	IsFlagged  bool            `json:"isFlagged"`
	Hidden     bool            `json:"hidden"`
	Moderation *domain.Verdict `json:"moderation,omitempty"`
}

// fullyVisible - единственное правило редактирования: помеченное скрыто от всех, кроме админа.
func fullyVisible(v domain.Verdict, role domain.Role) bool {
	return !v.Flagged || role == domain.RoleAdmin
}

// PresentPost применяет правило видимости к посту. Причина модерации обычному читателю не показывается.
func (g *Gate) PresentPost(post *domain.Post, role domain.Role) PresentedPost {
	p := PresentedPost{
		ID:         post.ID,
		AuthorID:   post.AuthorID,
		LikesCount: post.LikesCount,
		CreatedAt:  post.CreatedAt,
		IsFlagged:  post.Moderation.Flagged,
	}
	if fullyVisible(post.Moderation, role) {
		verdict := post.Moderation
		p.Caption = post.Caption
		p.ImageURL = post.ImageURL
		p.Moderation = &verdict
		return p
	}
	p.Caption = HiddenPlaceholder
	p.Hidden = true
	return p
}

// PresentComment применяет правило видимости к комментарию.
func (g *Gate) PresentComment(comment *domain.Comment, role domain.Role) PresentedComment {
	c := PresentedComment{
		ID:        comment.ID,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		CreatedAt: comment.CreatedAt,
		IsFlagged: comment.Moderation.Flagged,
	}
	if fullyVisible(comment.Moderation, role) {
		verdict := comment.Moderation
		c.Text = comment.Text
		c.Moderation = &verdict
		return c
	}
	c.Text = HiddenPlaceholder
	c.Hidden = true
	return c
}
