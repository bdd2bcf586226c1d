package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		renderDomain = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRenderRobots(t *testing.T) {
	out, err := runRoot(t, "render", "robots", "--domain", "https://shop.example.com/")
	require.NoError(t, err)
	assert.Contains(t, out, "Sitemap: https://shop.example.com/sitemap.xml")
}

func TestRenderSitemapUsesEnvironmentDomain(t *testing.T) {
	t.Setenv("PUBLIC_DOMAIN", "env.example.com")

	out, err := runRoot(t, "render", "/sitemap-blog.xml")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "<url>"))
	assert.Contains(t, out, "<loc>https://env.example.com/blog</loc>")
}

func TestRenderUnknownDocument(t *testing.T) {
	_, err := runRoot(t, "render", "atom")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "storefront "+Version+"\n", out)
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
