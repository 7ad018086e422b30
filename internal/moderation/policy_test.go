package moderation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClassifier отдает заранее заданные ответы и считает вызовы.
type fakeClassifier struct {
	mu         sync.Mutex
	text       Classification
	image      Classification
	textCalls  int
	imageCalls int
}

func newFakeClassifier() *fakeClassifier {
	return &fakeClassifier{text: Unflagged(), image: Unflagged()}
}

func (f *fakeClassifier) ClassifyText(_ context.Context, _ string) Classification {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textCalls++
	return f.text
}

func (f *fakeClassifier) ClassifyImage(_ context.Context, _ string) Classification {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageCalls++
	return f.image
}

func strPtr(s string) *string { return &s }

func newTestPolicy(terms []string, c Classifier) *Policy {
	return NewPolicy(NewKeywordFilter(terms), c, zap.NewNop())
}

func TestPolicy_KeywordMatchSkipsClassifier(t *testing.T) {
	fc := newFakeClassifier()
	p := newTestPolicy([]string{"kill"}, fc)

	res := p.Evaluate(context.Background(), Submission{Text: "I will kill you", ImageURL: "https://img/x.png"})

	assert.True(t, res.Flagged)
	assert.Equal(t, []string{"keyword_match"}, res.Categories)
	require.NotNil(t, res.Reason)
	assert.Equal(t, `Contains banned word: "kill"`, *res.Reason)
	assert.Equal(t, SourceText, res.Source)
	assert.Zero(t, fc.textCalls)
	assert.Zero(t, fc.imageCalls)
}

func TestPolicy_KeywordMatchAnyCase(t *testing.T) {
	fc := newFakeClassifier()
	p := newTestPolicy([]string{"kill"}, fc)

	res := p.Evaluate(context.Background(), Submission{Text: "KiLL them all"})

	assert.True(t, res.Flagged)
	assert.Equal(t, []string{"keyword_match"}, res.Categories)
	assert.Zero(t, fc.textCalls)
}

func TestPolicy_CleanTextUnconfiguredClassifier(t *testing.T) {
	c, err := NewGroqClassifier(GroqConfig{}, zap.NewNop())
	require.NoError(t, err)
	p := newTestPolicy([]string{"kill"}, c)

	res := p.Evaluate(context.Background(), Submission{Text: "nice day"})

	assert.False(t, res.Flagged)
	assert.Empty(t, res.Categories)
	assert.Nil(t, res.Reason)
	assert.Equal(t, SourceNone, res.Source)
}

func TestPolicy_TextFlaggedSkipsImage(t *testing.T) {
	fc := newFakeClassifier()
	fc.text = Classification{Flagged: true, Categories: []string{"spam"}, Reason: strPtr("promotional")}
	p := newTestPolicy(nil, fc)

	res := p.Evaluate(context.Background(), Submission{Text: "visit my shop", ImageURL: "https://img/x.png"})

	assert.True(t, res.Flagged)
	assert.Equal(t, []string{"spam"}, res.Categories)
	assert.Equal(t, "promotional", *res.Reason)
	assert.Equal(t, SourceText, res.Source)
	assert.Equal(t, 1, fc.textCalls)
	assert.Equal(t, 0, fc.imageCalls)
}

func TestPolicy_TextFlaggedWithoutDetails(t *testing.T) {
	fc := newFakeClassifier()
	fc.text = Classification{Flagged: true}
	p := newTestPolicy(nil, fc)

	res := p.Evaluate(context.Background(), Submission{Text: "borderline"})

	assert.True(t, res.Flagged)
	assert.Equal(t, []string{"violation"}, res.Categories)
	assert.Equal(t, DefaultTextReason, *res.Reason)
}

func TestPolicy_ImageFlagged(t *testing.T) {
	fc := newFakeClassifier()
	fc.image = Classification{Flagged: true, Categories: []string{"nudity"}, Reason: strPtr("explicit image")}
	p := newTestPolicy(nil, fc)

	res := p.Evaluate(context.Background(), Submission{Text: "look at this", ImageURL: "https://img/x.png"})

	assert.True(t, res.Flagged)
	assert.Equal(t, []string{"image_violation"}, res.Categories)
	assert.Equal(t, "explicit image", *res.Reason)
	assert.Equal(t, SourceImage, res.Source)
	assert.Equal(t, 1, fc.textCalls)
	assert.Equal(t, 1, fc.imageCalls)
}

func TestPolicy_ImageOnly(t *testing.T) {
	fc := newFakeClassifier()
	p := newTestPolicy([]string{"kill"}, fc)

	res := p.Evaluate(context.Background(), Submission{ImageURL: "https://img/x.png"})

	assert.False(t, res.Flagged)
	assert.Nil(t, res.Reason)
	assert.Equal(t, 0, fc.textCalls)
	assert.Equal(t, 1, fc.imageCalls)
}

func TestPolicy_AllClean(t *testing.T) {
	fc := newFakeClassifier()
	p := newTestPolicy([]string{"kill"}, fc)

	res := p.Evaluate(context.Background(), Submission{Text: "nice day", ImageURL: "https://img/x.png"})

	assert.False(t, res.Flagged)
	assert.Equal(t, []string{}, res.Categories)
	assert.Nil(t, res.Reason)
	assert.Equal(t, SourceNone, res.Source)
}
