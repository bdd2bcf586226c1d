package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	domfeed "github.com/Zhima-Mochi/minishop-storefront/internal/domain/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderUsesClockAndDomain(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := NewService("shop.example.com", nil, WithClock(func() time.Time { return fixed }))

	doc, err := svc.Render(context.Background(), domfeed.KindSitemapBlog)
	require.NoError(t, err)
	body := string(doc.Body)
	assert.Contains(t, body, "<loc>https://shop.example.com/blog</loc>")
	assert.Contains(t, body, "<lastmod>2026-01-02T03:04:05Z</lastmod>")
}

func TestRenderEveryKind(t *testing.T) {
	svc := NewService("shop.example.com", nil)
	for _, k := range domfeed.Kinds {
		doc, err := svc.Render(context.Background(), k)
		require.NoError(t, err, k)
		assert.Equal(t, k, doc.Kind)
		assert.NotEmpty(t, doc.Body)
	}
}

func TestRenderUnknownKind(t *testing.T) {
	svc := NewService("shop.example.com", nil)
	_, err := svc.Render(context.Background(), domfeed.Kind("atom"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "atom"))
}
