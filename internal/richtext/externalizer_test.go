package richtext_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistakebook/mistakebook/internal/richtext"
)

// memStore is an in-memory PayloadStore that counts fetches.
type memStore struct {
	data map[string]string
	gets int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Put(_ context.Context, key, data string) error {
	s.data[key] = data
	return nil
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.gets++
	data, ok := s.data[key]
	return data, ok, nil
}

func fixedClock() time.Time {
	return time.UnixMilli(1700000000000)
}

// payloadOfLength builds a data URI of exactly n characters.
func payloadOfLength(n int) string {
	const prefix = "data:image/png;base64,"
	return prefix + strings.Repeat("A", n-len(prefix))
}

func imgTag(payload string) string {
	return fmt.Sprintf(`<img class="note" src="%s" alt="figure">`, payload)
}

func TestExternalizeThresholdBoundary(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ext := richtext.New(store, richtext.WithClock(fixedClock))

	small := payloadOfLength(richtext.DefaultThreshold - 1)
	big := payloadOfLength(richtext.DefaultThreshold)
	html := "<p>intro</p>" + imgTag(small) + imgTag(big)

	out, err := ext.Externalize(ctx, html, "q1", "rte")
	require.NoError(t, err)

	assert.Contains(t, out, small, "payload below the threshold must stay inline")
	assert.NotContains(t, out, big, "payload at the threshold must be externalized")
	assert.Contains(t, out, richtext.Marker("rte"))
	require.Len(t, store.data, 1)
	for _, stored := range store.data {
		assert.Equal(t, big, stored)
	}
}

func TestExternalizePreservesAttributes(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ext := richtext.New(store, richtext.WithClock(fixedClock))

	payload := payloadOfLength(richtext.DefaultThreshold)
	html := fmt.Sprintf(`<img data-x="1" src="%s" style="width:50%%">`, payload)

	out, err := ext.Externalize(ctx, html, "q1", "analysis")
	require.NoError(t, err)
	assert.Contains(t, out, `data-x="1"`)
	assert.Contains(t, out, `style="width:50%"`)
}

func TestExternalizeEmptyAndPlainHTML(t *testing.T) {
	ctx := context.Background()
	ext := richtext.New(newMemStore(), richtext.WithClock(fixedClock))

	out, err := ext.Externalize(ctx, "", "q1", "rte")
	require.NoError(t, err)
	assert.Equal(t, "", out)

	plain := "<p>no images here</p>"
	out, err = ext.Externalize(ctx, plain, "q1", "rte")
	require.NoError(t, err)
	assert.Equal(t, plain, out)
}

func TestInlineRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ext := richtext.New(store, richtext.WithClock(fixedClock))

	p1 := payloadOfLength(richtext.DefaultThreshold)
	p2 := payloadOfLength(richtext.DefaultThreshold + 100)
	html := "<p>a</p>" + imgTag(p1) + "<p>b</p>" + imgTag(p2)

	externalized, err := ext.Externalize(ctx, html, "q1", "rte")
	require.NoError(t, err)
	require.NotEqual(t, html, externalized)

	restored, err := ext.Inline(ctx, externalized, "rte")
	require.NoError(t, err)
	assert.Equal(t, html, restored)
}

func TestInlineIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ext := richtext.New(store, richtext.WithClock(fixedClock))

	html := imgTag(payloadOfLength(richtext.DefaultThreshold))
	externalized, err := ext.Externalize(ctx, html, "q1", "rte")
	require.NoError(t, err)

	once, err := ext.Inline(ctx, externalized, "rte")
	require.NoError(t, err)
	twice, err := ext.Inline(ctx, once, "rte")
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestInlineMissingPayloadLeavesToken(t *testing.T) {
	ctx := context.Background()
	ext := richtext.New(newMemStore())

	token := richtext.Marker("rte") + "q1_rte_123_0"
	html := `<img src="` + token + `">`

	out, err := ext.Inline(ctx, html, "rte")
	require.NoError(t, err)
	assert.Equal(t, html, out, "missing payload must leave the token in place")
}

func TestInlineFetchesDuplicateKeyOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ext := richtext.New(store, richtext.WithClock(fixedClock))

	payload := payloadOfLength(richtext.DefaultThreshold)
	externalized, err := ext.Externalize(ctx, imgTag(payload), "q1", "rte")
	require.NoError(t, err)

	doubled := externalized + externalized
	restored, err := ext.Inline(ctx, doubled, "rte")
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets, "the same key must be fetched once")
	assert.Equal(t, 2, strings.Count(restored, payload))
}

func TestInlineUntaggedFieldUntouched(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ext := richtext.New(store, richtext.WithClock(fixedClock))

	externalized, err := ext.Externalize(ctx, imgTag(payloadOfLength(500)), "q1", "rte")
	require.NoError(t, err)

	// Inlining under a different field tag must not match rte tokens.
	out, err := ext.Inline(ctx, externalized, "analysis")
	require.NoError(t, err)
	assert.Equal(t, externalized, out)
}
