package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Store реализует интерфейс Storage в памяти.
// Наружу отдаются копии записей, поэтому замена вердикта не гоняется с читателями.
type Store struct {
	mu             sync.RWMutex
	users          map[string]*domain.User
	posts          map[string]*domain.Post
	comments       map[string]*domain.Comment
	commentsByPost map[string][]string // map[postID][]commentID в порядке создания
	savedByUser    map[string][]string // map[userID][]postID
	lastCreatedAt  time.Time
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		users:          make(map[string]*domain.User),
		posts:          make(map[string]*domain.Post),
		comments:       make(map[string]*domain.Comment),
		commentsByPost: make(map[string][]string),
		savedByUser:    make(map[string][]string),
	}
}

// now отдает строго возрастающее время, чтобы сортировка по CreatedAt была стабильной.
// Вызывать под s.mu.Lock.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.lastCreatedAt) {
		t = s.lastCreatedAt.Add(time.Nanosecond)
	}
	s.lastCreatedAt = t
	return t
}

func copyPost(p *domain.Post) *domain.Post {
	c := *p
	return &c
}

func copyComment(cm *domain.Comment) *domain.Comment {
	c := *cm
	return &c
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.SavedPosts = nil
	return &c
}

func newestPostsFirst(posts []*domain.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

func newestCommentsFirst(comments []*domain.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) {
			return nil, fmt.Errorf("username %s already taken: %w", user.Username, domain.ErrConflict)
		}
		if strings.EqualFold(u.Email, user.Email) {
			return nil, fmt.Errorf("email %s already registered: %w", user.Email, domain.ErrConflict)
		}
	}

	user.ID = uuid.NewString()
	user.CreatedAt = s.now()
	s.users[user.ID] = copyUser(user)
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %s: %w", id, domain.ErrNotFound)
	}
	return copyUser(user), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, domain.ErrNotFound)
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return nil, fmt.Errorf("user with id %s: %w", user.ID, domain.ErrNotFound)
	}
	for _, u := range s.users {
		if u.ID != user.ID && strings.EqualFold(u.Username, user.Username) {
			return nil, fmt.Errorf("username %s already taken: %w", user.Username, domain.ErrConflict)
		}
	}

	updated := copyUser(user)
	updated.CreatedAt = existing.CreatedAt
	s.users[user.ID] = updated
	return copyUser(updated), nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.User, len(ids))
	for _, id := range lo.Uniq(ids) {
		if u, ok := s.users[id]; ok {
			result[id] = copyUser(u)
		}
	}
	return result, nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = uuid.NewString()
	post.CreatedAt = s.now()
	s.posts[post.ID] = copyPost(post)
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post with id %s: %w", id, domain.ErrNotFound)
	}
	return copyPost(post), nil
}

func (s *Store) GetPosts(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allPosts := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		allPosts = append(allPosts, copyPost(p))
	}
	newestPostsFirst(allPosts)

	start := offset
	if start >= len(allPosts) {
		return []*domain.Post{}, nil
	}
	end := start + limit
	if end > len(allPosts) {
		end = len(allPosts)
	}
	return allPosts[start:end], nil
}

func (s *Store) GetPostsByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*domain.Post, 0)
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			posts = append(posts, copyPost(p))
		}
	}
	newestPostsFirst(posts)
	return posts, nil
}

func (s *Store) LikePost(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post with id %s: %w", id, domain.ErrNotFound)
	}
	post.LikesCount++
	return copyPost(post), nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("post with id %s: %w", id, domain.ErrNotFound)
	}
	// Комментарии и индекс commentsByPost не трогаем: осиротевшие комментарии - осознанный компромисс.
	delete(s.posts, id)
	return nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Проверка поста
	if _, ok := s.posts[comment.PostID]; !ok {
		return nil, fmt.Errorf("post with id %s: %w", comment.PostID, domain.ErrNotFound)
	}

	comment.ID = uuid.NewString()
	comment.CreatedAt = s.now()
	s.comments[comment.ID] = copyComment(comment)
	s.commentsByPost[comment.PostID] = append(s.commentsByPost[comment.PostID], comment.ID)

	return comment, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment with id %s: %w", id, domain.ErrNotFound)
	}
	return copyComment(comment), nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok {
		return fmt.Errorf("comment with id %s: %w", id, domain.ErrNotFound)
	}
	delete(s.comments, id)
	s.commentsByPost[comment.PostID] = lo.Without(s.commentsByPost[comment.PostID], id)
	return nil
}

// === Moderation Methods ===

func (s *Store) GetFlaggedPosts(ctx context.Context) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*domain.Post, 0)
	for _, p := range s.posts {
		if p.Moderation.Flagged {
			posts = append(posts, copyPost(p))
		}
	}
	newestPostsFirst(posts)
	return posts, nil
}

func (s *Store) GetFlaggedComments(ctx context.Context) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]*domain.Comment, 0)
	for _, c := range s.comments {
		if c.Moderation.Flagged {
			comments = append(comments, copyComment(c))
		}
	}
	newestCommentsFirst(comments)
	return comments, nil
}

func (s *Store) SetPostModeration(ctx context.Context, id string, verdict domain.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return fmt.Errorf("post with id %s: %w", id, domain.ErrNotFound)
	}
	post.Moderation = verdict
	return nil
}

func (s *Store) SetCommentModeration(ctx context.Context, id string, verdict domain.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok {
		return fmt.Errorf("comment with id %s: %w", id, domain.ErrNotFound)
	}
	comment.Moderation = verdict
	return nil
}

// === Search Methods ===

func (s *Store) SearchPosts(ctx context.Context, query string, limit int) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	posts := make([]*domain.Post, 0)
	for _, p := range s.posts {
		if !p.Moderation.Flagged && strings.Contains(strings.ToLower(p.Caption), q) {
			posts = append(posts, copyPost(p))
		}
	}
	newestPostsFirst(posts)
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *Store) SearchComments(ctx context.Context, query string, limit int) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	comments := make([]*domain.Comment, 0)
	for _, c := range s.comments {
		if !c.Moderation.Flagged && strings.Contains(strings.ToLower(c.Text), q) {
			comments = append(comments, copyComment(c))
		}
	}
	newestCommentsFirst(comments)
	if len(comments) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

// === Saved Posts Methods ===

func (s *Store) SavePost(ctx context.Context, userID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("user with id %s: %w", userID, domain.ErrNotFound)
	}
	if _, ok := s.posts[postID]; !ok {
		return fmt.Errorf("post with id %s: %w", postID, domain.ErrNotFound)
	}
	if lo.Contains(s.savedByUser[userID], postID) {
		return fmt.Errorf("post %s already saved: %w", postID, domain.ErrConflict)
	}
	s.savedByUser[userID] = append(s.savedByUser[userID], postID)
	return nil
}

func (s *Store) UnsavePost(ctx context.Context, userID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("user with id %s: %w", userID, domain.ErrNotFound)
	}
	s.savedByUser[userID] = lo.Without(s.savedByUser[userID], postID)
	return nil
}

func (s *Store) GetSavedPosts(ctx context.Context, userID string) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[userID]; !ok {
		return nil, fmt.Errorf("user with id %s: %w", userID, domain.ErrNotFound)
	}
	// Удаленные посты просто пропускаем
	posts := make([]*domain.Post, 0, len(s.savedByUser[userID]))
	for _, id := range s.savedByUser[userID] {
		if p, ok := s.posts[id]; ok {
			posts = append(posts, copyPost(p))
		}
	}
	return posts, nil
}

// === Dataloader Methods ===

func (s *Store) GetCommentsByPostIDs(ctx context.Context, postIDs []string) (map[string][]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string][]*domain.Comment, len(postIDs))

	for _, pID := range postIDs {
		commentIDs := s.commentsByPost[pID]
		comments := make([]*domain.Comment, 0, len(commentIDs))
		for _, cID := range commentIDs {
			if c, ok := s.comments[cID]; ok {
				comments = append(comments, copyComment(c))
			}
		}
		// Порядок отображения - порядок создания
		sort.Slice(comments, func(i, j int) bool {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		})
		results[pID] = comments
	}

	return results, nil
}
