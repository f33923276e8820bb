// Package richtext moves oversized inline images out of HTML fragments into
// a keyed payload store and resolves them back for display.
package richtext

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultThreshold is the minimum encoded payload length that triggers
// externalization. Smaller images stay embedded to avoid key-space churn
// for trivial content. Tunable, not a hard contract.
const DefaultThreshold = 500

// dataImgRe matches <img ... src="data:image/...;base64,..." ...> tags,
// capturing the attributes before src, the payload, and the attributes after.
var dataImgRe = regexp.MustCompile(`<img([^>]+)src=["'](data:image/[^;]+;base64,[^"']+)["']([^>]*)>`)

// PayloadStore is the subset of the binary payload store the externalizer
// needs. Get reports absence via its second return instead of an error.
type PayloadStore interface {
	Put(ctx context.Context, key, data string) error
	Get(ctx context.Context, key string) (string, bool, error)
}

// Externalizer rewrites HTML fragments against a payload store.
type Externalizer struct {
	store     PayloadStore
	threshold int
	now       func() time.Time
}

// Option configures an Externalizer.
type Option func(*Externalizer)

// WithThreshold overrides the externalization size threshold.
func WithThreshold(n int) Option {
	return func(e *Externalizer) { e.threshold = n }
}

// WithClock overrides the timestamp source used in derived keys.
func WithClock(now func() time.Time) Option {
	return func(e *Externalizer) { e.now = now }
}

// New returns an Externalizer over the given store.
func New(store PayloadStore, opts ...Option) *Externalizer {
	e := &Externalizer{store: store, threshold: DefaultThreshold, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Marker returns the sentinel prefix used for the given field tag,
// e.g. "__RTE_REF__" for tag "rte".
func Marker(fieldTag string) string {
	return "__" + strings.ToUpper(fieldTag) + "_REF__"
}

// refRe builds the token pattern for one field tag. Keys are the charset of
// ids, tags and indices joined by underscores.
func refRe(fieldTag string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(Marker(fieldTag)) + `([A-Za-z0-9_-]+)`)
}

// Externalize moves every oversized inline image of html into the store and
// rewrites its src to a sentinel token, preserving all other attributes
// verbatim. Occurrences are processed in document order; the occurrence
// index is part of the derived key {owner}_{tag}_{timestamp}_{index}.
// Already-externalized HTML is a no-op because sentinel tokens are not
// data URIs and never match.
func (e *Externalizer) Externalize(ctx context.Context, html, ownerID, fieldTag string) (string, error) {
	if html == "" {
		return "", nil
	}
	matches := dataImgRe.FindAllStringSubmatch(html, -1)
	processed := html
	ts := e.now().UnixMilli()
	for i, m := range matches {
		fullTag, beforeSrc, payload, afterSrc := m[0], m[1], m[2], m[3]
		if len(payload) < e.threshold {
			continue
		}
		key := fmt.Sprintf("%s_%s_%d_%d", ownerID, fieldTag, ts, i)
		if err := e.store.Put(ctx, key, payload); err != nil {
			return "", fmt.Errorf("failed to store image payload %s: %w", key, err)
		}
		newTag := fmt.Sprintf(`<img%ssrc="%s%s"%s>`, beforeSrc, Marker(fieldTag), key, afterSrc)
		processed = strings.Replace(processed, fullTag, newTag, 1)
	}
	return processed, nil
}

// Inline substitutes every sentinel token of the given field tag with its
// stored payload. Each distinct key is fetched once even when referenced
// multiple times. Missing payloads leave the token in place: a visible but
// non-fatal degradation.
func (e *Externalizer) Inline(ctx context.Context, html, fieldTag string) (string, error) {
	marker := Marker(fieldTag)
	if html == "" || !strings.Contains(html, marker) {
		return html, nil
	}
	matches := refRe(fieldTag).FindAllStringSubmatch(html, -1)

	payloads := make(map[string]string)
	for _, m := range matches {
		key := m[1]
		if _, seen := payloads[key]; seen {
			continue
		}
		data, ok, err := e.store.Get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to fetch image payload %s: %w", key, err)
		}
		if ok {
			payloads[key] = data
		}
	}

	restored := html
	for _, m := range matches {
		fullRef, key := m[0], m[1]
		if data, ok := payloads[key]; ok {
			restored = strings.Replace(restored, fullRef, data, 1)
		}
	}
	return restored, nil
}
