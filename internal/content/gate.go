package content

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/UkralStul/feed-moderation-service/internal/moderation"
	"github.com/UkralStul/feed-moderation-service/internal/observer"
	"github.com/UkralStul/feed-moderation-service/internal/storage"
	"go.uber.org/zap"
)

// MaxCommentLength - максимальная длина комментария в символах.
const MaxCommentLength = 2000

// Publisher - куда Gate сообщает о новом контенте.
type Publisher interface {
	Publish(topic string, ev observer.Event)
}

// PostSubmission - данные нового поста. Нужна подпись, картинка или обе.
type PostSubmission struct {
	Caption  string
	ImageURL string
}

// Gate прикрепляет вердикт модерации к контенту при создании и скрывает помеченный контент при чтении.
type Gate struct {
	store  storage.Storage
	policy moderation.Evaluator
	events Publisher
	log    *zap.Logger
}

// NewGate создает Gate.
func NewGate(store storage.Storage, policy moderation.Evaluator, events Publisher, log *zap.Logger) *Gate {
	return &Gate{
		store:  store,
		policy: policy,
		events: events,
		log:    log,
	}
}

// CreatePost модерирует и сохраняет пост. Пост становится видимым только вместе с вердиктом.
func (g *Gate) CreatePost(ctx context.Context, authorID string, sub PostSubmission) (*domain.Post, error) {
	caption := strings.TrimSpace(sub.Caption)
	imageURL := strings.TrimSpace(sub.ImageURL)
	if caption == "" && imageURL == "" {
		return nil, fmt.Errorf("image or text required: %w", domain.ErrValidation)
	}
	if _, err := g.store.GetUserByID(ctx, authorID); err != nil {
		return nil, fmt.Errorf("author: %w", err)
	}

	res := g.policy.Evaluate(ctx, moderation.Submission{Text: caption, ImageURL: imageURL})
	// Вызывающий ушел, пока шла модерация: ничего не сохраняем.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("post creation aborted: %w", err)
	}

	post, err := g.store.CreatePost(ctx, &domain.Post{
		AuthorID:   authorID,
		Caption:    caption,
		ImageURL:   imageURL,
		Moderation: postVerdict(res),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if post.Moderation.Flagged {
		g.log.Info("post flagged",
			zap.String("post_id", post.ID),
			zap.Strings("categories", post.Moderation.Categories),
			zap.String("reason", post.Moderation.ReasonText()))
		g.events.Publish(observer.ReviewTopic, observer.Event{
			Type: observer.EventFlagged, Kind: domain.KindPost, ID: post.ID, Payload: post,
		})
	}
	return post, nil
}

// postVerdict помечает причину источником, чтобы было видно, что сработало: текст или картинка.
func postVerdict(res moderation.Result) domain.Verdict {
	if !res.Flagged {
		return res.Verdict
	}
	prefix := "Text: "
	if res.Source == moderation.SourceImage {
		prefix = "Image: "
	}
	return domain.Flag(res.Categories, prefix+res.ReasonText())
}

// CreateComment модерирует и сохраняет комментарий к посту.
func (g *Gate) CreateComment(ctx context.Context, authorID, postID, text string) (*domain.Comment, error) {
	// Проверка длины комментария
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("comment content cannot be empty: %w", domain.ErrValidation)
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, fmt.Errorf("comment content is too long: %w", domain.ErrValidation)
	}
	if _, err := g.store.GetUserByID(ctx, authorID); err != nil {
		return nil, fmt.Errorf("author: %w", err)
	}
	// Пост проверяем до модерации, чтобы не тратить вызов классификатора
	if _, err := g.store.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}

	res := g.policy.Evaluate(ctx, moderation.Submission{Text: text})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("comment creation aborted: %w", err)
	}

	comment, err := g.store.CreateComment(ctx, &domain.Comment{
		PostID:     postID,
		AuthorID:   authorID,
		Text:       text,
		Moderation: res.Verdict,
	})
	if err != nil {
		return nil, err // пост мог быть удален между проверкой и вставкой
	}

	// Асинхронные подписчики поста получают то же, что увидел бы обычный читатель
	g.events.Publish(postID, observer.Event{
		Type:    observer.EventCommentAdded,
		Kind:    domain.KindComment,
		ID:      comment.ID,
		Payload: g.PresentComment(comment, domain.RoleUser),
	})
	if comment.Moderation.Flagged {
		g.log.Info("comment flagged",
			zap.String("comment_id", comment.ID),
			zap.String("post_id", postID),
			zap.Strings("categories", comment.Moderation.Categories),
			zap.String("reason", comment.Moderation.ReasonText()))
		g.events.Publish(observer.ReviewTopic, observer.Event{
			Type: observer.EventFlagged, Kind: domain.KindComment, ID: comment.ID, Payload: comment,
		})
	}
	return comment, nil
}

// DeletePost удаляет пост по запросу автора или админа. Комментарии поста не удаляются.
func (g *Gate) DeletePost(ctx context.Context, viewer domain.Viewer, id string) error {
	post, err := g.store.GetPostByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != viewer.UserID && !viewer.IsAdmin() {
		return fmt.Errorf("post %s belongs to another user: %w", id, domain.ErrForbidden)
	}
	if err := g.store.DeletePost(ctx, id); err != nil {
		return err
	}
	g.log.Info("post deleted", zap.String("post_id", id), zap.String("by", viewer.UserID))
	if post.Moderation.Flagged {
		g.events.Publish(observer.ReviewTopic, observer.Event{Type: observer.EventRemoved, Kind: domain.KindPost, ID: id})
	}
	return nil
}

// DeleteComment удаляет комментарий по запросу автора или админа.
func (g *Gate) DeleteComment(ctx context.Context, viewer domain.Viewer, id string) error {
	comment, err := g.store.GetCommentByID(ctx, id)
	if err != nil {
		return err
	}
	if comment.AuthorID != viewer.UserID && !viewer.IsAdmin() {
		return fmt.Errorf("comment %s belongs to another user: %w", id, domain.ErrForbidden)
	}
	if err := g.store.DeleteComment(ctx, id); err != nil {
		return err
	}
	g.log.Info("comment deleted", zap.String("comment_id", id), zap.String("by", viewer.UserID))
	if comment.Moderation.Flagged {
		g.events.Publish(observer.ReviewTopic, observer.Event{Type: observer.EventRemoved, Kind: domain.KindComment, ID: id})
	}
	return nil
}
