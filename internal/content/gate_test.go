package content

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/UkralStul/feed-moderation-service/internal/moderation"
	"github.com/UkralStul/feed-moderation-service/internal/observer"
	"github.com/UkralStul/feed-moderation-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubClassifier struct {
	mu         sync.Mutex
	text       moderation.Classification
	image      moderation.Classification
	textCalls  int
	imageCalls int
}

func (s *stubClassifier) ClassifyText(_ context.Context, _ string) moderation.Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textCalls++
	return s.text
}

func (s *stubClassifier) ClassifyImage(_ context.Context, _ string) moderation.Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageCalls++
	return s.image
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]observer.Event
}

func (p *recordingPublisher) Publish(topic string, ev observer.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string][]observer.Event)
	}
	p.events[topic] = append(p.events[topic], ev)
}

func (p *recordingPublisher) on(topic string) []observer.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[topic]
}

type testEnv struct {
	store      *inmemory.Store
	gate       *Gate
	classifier *stubClassifier
	events     *recordingPublisher
	author     *domain.User
}

// newTestEnv создает хранилище, автора и Gate с запрещенным словом "kill"
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := inmemory.New()
	author, err := store.CreateUser(context.Background(), &domain.User{
		Username: "testuser", Email: "test@example.com", Role: domain.RoleUser,
	})
	require.NoError(t, err)

	sc := &stubClassifier{text: moderation.Unflagged(), image: moderation.Unflagged()}
	events := &recordingPublisher{}
	policy := moderation.NewPolicy(moderation.NewKeywordFilter([]string{"kill"}), sc, zap.NewNop())

	return &testEnv{
		store:      store,
		gate:       NewGate(store, policy, events, zap.NewNop()),
		classifier: sc,
		events:     events,
		author:     author,
	}
}

func reason(s string) *string { return &s }

func TestGate_CreatePost_RequiresTextOrImage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.gate.CreatePost(context.Background(), env.author.ID, PostSubmission{Caption: "   "})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, env.classifier.textCalls)

	posts, err := env.store.GetPosts(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestGate_CreatePost_UnknownAuthor(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.gate.CreatePost(context.Background(), "ghost", PostSubmission{Caption: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGate_CreatePost_CleanIsFullyVisible(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	post, err := env.gate.CreatePost(ctx, env.author.ID, PostSubmission{Caption: "nice day"})
	require.NoError(t, err)

	assert.False(t, post.Moderation.Flagged)
	assert.Empty(t, post.Moderation.Categories)
	assert.Nil(t, post.Moderation.Reason)
	assert.Empty(t, env.events.on(observer.ReviewTopic))

	for _, role := range []domain.Role{domain.RoleUser, domain.RoleAdmin} {
		p := env.gate.PresentPost(post, role)
		assert.Equal(t, "nice day", p.Caption)
		assert.False(t, p.Hidden)
		require.NotNil(t, p.Moderation)
		assert.Equal(t, post.Moderation, *p.Moderation)
	}
}

func TestGate_CreatePost_KeywordReasonPrefixed(t *testing.T) {
	env := newTestEnv(t)

	post, err := env.gate.CreatePost(context.Background(), env.author.ID, PostSubmission{
		Caption:  "I will kill you",
		ImageURL: "https://img/a.png",
	})
	require.NoError(t, err)

	assert.True(t, post.Moderation.Flagged)
	assert.Equal(t, []string{"keyword_match"}, post.Moderation.Categories)
	assert.Equal(t, `Text: Contains banned word: "kill"`, *post.Moderation.Reason)
	assert.Zero(t, env.classifier.textCalls)
	assert.Zero(t, env.classifier.imageCalls)

	review := env.events.on(observer.ReviewTopic)
	require.Len(t, review, 1)
	assert.Equal(t, observer.EventFlagged, review[0].Type)
	assert.Equal(t, post.ID, review[0].ID)
}

func TestGate_CreatePost_ImageReasonPrefixed(t *testing.T) {
	env := newTestEnv(t)
	env.classifier.image = moderation.Classification{Flagged: true, Categories: []string{"gore"}, Reason: reason("graphic violence")}

	post, err := env.gate.CreatePost(context.Background(), env.author.ID, PostSubmission{ImageURL: "https://img/a.png"})
	require.NoError(t, err)

	assert.True(t, post.Moderation.Flagged)
	assert.Equal(t, []string{"image_violation"}, post.Moderation.Categories)
	assert.Equal(t, "Image: graphic violence", *post.Moderation.Reason)
	assert.Zero(t, env.classifier.textCalls)
	assert.Equal(t, 1, env.classifier.imageCalls)
}

func TestGate_CreatePost_TextFlagSkipsImage(t *testing.T) {
	env := newTestEnv(t)
	env.classifier.text = moderation.Classification{Flagged: true, Categories: []string{"harassment"}, Reason: reason("threat")}
	env.classifier.image = moderation.Classification{Flagged: true, Reason: reason("should not be used")}

	post, err := env.gate.CreatePost(context.Background(), env.author.ID, PostSubmission{
		Caption: "you will regret this", ImageURL: "https://img/a.png",
	})
	require.NoError(t, err)

	assert.Equal(t, "Text: threat", *post.Moderation.Reason)
	assert.Equal(t, 1, env.classifier.textCalls)
	assert.Zero(t, env.classifier.imageCalls)
}

// cancelingEvaluator имитирует уход клиента во время модерации
type cancelingEvaluator struct {
	cancel context.CancelFunc
}

func (e cancelingEvaluator) Evaluate(_ context.Context, _ moderation.Submission) moderation.Result {
	e.cancel()
	return moderation.Result{Verdict: domain.Cleared(), Source: moderation.SourceNone}
}

func TestGate_CreatePost_CancelledDoesNotPersist(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gate := NewGate(env.store, cancelingEvaluator{cancel: cancel}, env.events, zap.NewNop())

	_, err := gate.CreatePost(ctx, env.author.ID, PostSubmission{Caption: "nice day"})
	require.ErrorIs(t, err, context.Canceled)

	posts, err := env.store.GetPosts(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestGate_PresentPost_FlaggedHiddenFromUsers(t *testing.T) {
	env := newTestEnv(t)
	env.classifier.text = moderation.Classification{Flagged: true, Categories: []string{"hate"}, Reason: reason("slur detected")}

	post, err := env.gate.CreatePost(context.Background(), env.author.ID, PostSubmission{
		Caption: "secret hateful caption", ImageURL: "https://img/secret.png",
	})
	require.NoError(t, err)

	p := env.gate.PresentPost(post, domain.RoleUser)
	assert.Equal(t, HiddenPlaceholder, p.Caption)
	assert.Empty(t, p.ImageURL)
	assert.True(t, p.Hidden)
	assert.True(t, p.IsFlagged)
	assert.Nil(t, p.Moderation)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	out := string(raw)
	assert.NotContains(t, out, "secret hateful caption")
	assert.NotContains(t, out, "https://img/secret.png")
	assert.NotContains(t, out, "slur detected")
	assert.NotContains(t, out, "hate\"")

	admin := env.gate.PresentPost(post, domain.RoleAdmin)
	assert.Equal(t, "secret hateful caption", admin.Caption)
	assert.Equal(t, "https://img/secret.png", admin.ImageURL)
	require.NotNil(t, admin.Moderation)
	assert.Equal(t, "Text: slur detected", *admin.Moderation.Reason)
}

func TestGate_CreateComment_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post, err := env.gate.CreatePost(ctx, env.author.ID, PostSubmission{Caption: "post"})
	require.NoError(t, err)
	calls := env.classifier.textCalls

	_, err = env.gate.CreateComment(ctx, env.author.ID, post.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "comment content cannot be empty")

	_, err = env.gate.CreateComment(ctx, env.author.ID, post.ID, strings.Repeat("a", MaxCommentLength+1))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "comment content is too long")

	_, err = env.gate.CreateComment(ctx, env.author.ID, "missing-post", "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, calls, env.classifier.textCalls)
}

func TestGate_CreateComment_FlaggedIsRedactedOnStream(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post, err := env.gate.CreatePost(ctx, env.author.ID, PostSubmission{Caption: "post"})
	require.NoError(t, err)

	comment, err := env.gate.CreateComment(ctx, env.author.ID, post.ID, "I will KILL you")
	require.NoError(t, err)

	assert.True(t, comment.Moderation.Flagged)
	// Для комментариев причина без префикса источника
	assert.Equal(t, `Contains banned word: "kill"`, *comment.Moderation.Reason)

	stream := env.events.on(post.ID)
	require.Len(t, stream, 1)
	presented, ok := stream[0].Payload.(PresentedComment)
	require.True(t, ok)
	assert.Equal(t, HiddenPlaceholder, presented.Text)
	assert.Nil(t, presented.Moderation)

	review := env.events.on(observer.ReviewTopic)
	require.Len(t, review, 1)
	assert.Equal(t, domain.KindComment, review[0].Kind)
}

func TestGate_PresentComment(t *testing.T) {
	env := newTestEnv(t)
	clean := &domain.Comment{ID: "c1", Text: "hello", Moderation: domain.Cleared()}
	flagged := &domain.Comment{ID: "c2", Text: "bad words", Moderation: domain.Flag([]string{"spam"}, "spam")}

	assert.Equal(t, "hello", env.gate.PresentComment(clean, domain.RoleUser).Text)
	assert.Equal(t, HiddenPlaceholder, env.gate.PresentComment(flagged, domain.RoleUser).Text)
	assert.Equal(t, "bad words", env.gate.PresentComment(flagged, domain.RoleAdmin).Text)
}

func TestGate_DeletePost_OnlyAuthorOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post, err := env.gate.CreatePost(ctx, env.author.ID, PostSubmission{Caption: "mine"})
	require.NoError(t, err)
	comment, err := env.gate.CreateComment(ctx, env.author.ID, post.ID, "first")
	require.NoError(t, err)

	err = env.gate.DeletePost(ctx, domain.Viewer{UserID: "someone-else", Role: domain.RoleUser}, post.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = env.gate.DeletePost(ctx, domain.Viewer{UserID: env.author.ID, Role: domain.RoleUser}, post.ID)
	require.NoError(t, err)

	_, err = env.store.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Комментарий остается сиротой
	orphan, err := env.store.GetCommentByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, orphan.PostID)

	err = env.gate.DeletePost(ctx, domain.Viewer{UserID: env.author.ID}, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGate_DeleteComment_AdminAllowed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post, err := env.gate.CreatePost(ctx, env.author.ID, PostSubmission{Caption: "post"})
	require.NoError(t, err)
	comment, err := env.gate.CreateComment(ctx, env.author.ID, post.ID, "kill")
	require.NoError(t, err)

	err = env.gate.DeleteComment(ctx, domain.Viewer{UserID: "admin-1", Role: domain.RoleAdmin}, comment.ID)
	require.NoError(t, err)

	_, err = env.store.GetCommentByID(ctx, comment.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	review := env.events.on(observer.ReviewTopic)
	require.Len(t, review, 2)
	assert.Equal(t, observer.EventRemoved, review[1].Type)
}
