package httppresentation

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	appFeed "github.com/Zhima-Mochi/minishop-storefront/internal/application/feed"
	appPayment "github.com/Zhima-Mochi/minishop-storefront/internal/application/payment"
	appSession "github.com/Zhima-Mochi/minishop-storefront/internal/application/session"
	domFeed "github.com/Zhima-Mochi/minishop-storefront/internal/domain/feed"
	domPayment "github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	domSession "github.com/Zhima-Mochi/minishop-storefront/internal/domain/session"
	infraobs "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDomain = "shop.example.com"

type fakeProcessor struct {
	mu    sync.Mutex
	calls []domPayment.IntentRequest
	err   error
}

func (f *fakeProcessor) CreateIntent(_ context.Context, req domPayment.IntentRequest) (domPayment.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return domPayment.Intent{}, f.err
	}
	return domPayment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret", Amount: req.Amount, Currency: req.Currency}, nil
}

func (f *fakeProcessor) Calls() []domPayment.IntentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domPayment.IntentRequest(nil), f.calls...)
}

type fixture struct {
	handler   http.Handler
	processor *fakeProcessor
}

func newFixture(t *testing.T, secure bool) *fixture {
	t.Helper()
	proc := &fakeProcessor{}
	h := NewHandler(Services{
		Payment: appPayment.NewCreateIntentUseCase(proc, nil),
		Session: appSession.NewService(domSession.Policy{Name: "woo_token", Secure: secure}, nil),
		Feed:    appFeed.NewService(testDomain, nil),
	}, Options{}, nil)
	return &fixture{handler: h.Router(), processor: proc}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	f := newFixture(t, false)

	for _, body := range []string{"", "{}", `{"anything":true}`, "not json at all"} {
		rec := f.do(http.MethodPost, "/api/auth/logout", body)

		require.Equal(t, http.StatusOK, rec.Code, "body %q", body)
		assert.Equal(t, true, decodeBody(t, rec)["success"])

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, "woo_token", c.Name)
		assert.Empty(t, c.Value)
		assert.Equal(t, "/", c.Path)
		assert.True(t, c.HttpOnly)
		assert.False(t, c.Secure)
		assert.True(t, c.Expires.Before(time.Now()), "expires %v", c.Expires)
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
	}
}

func TestLogoutSecureInProduction(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(http.MethodPost, "/api/auth/logout", "")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
}

func TestLogoutRecoversFromPanic(t *testing.T) {
	// A nil session service panics on use.
	h := NewHandler(Services{}, Options{}, nil).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeBody(t, rec)["error"])
}

func TestCreatePaymentIntent(t *testing.T) {
	cases := []struct {
		body string
		want int64
	}{
		{`{"amount": 19.99}`, 1999},
		{`{"amount": 0}`, 0},
		{`{"amount": 120}`, 12000},
		{"{\"amount\": 5}\n", 500},
	}
	for _, tc := range cases {
		f := newFixture(t, false)

		rec := f.do(http.MethodPost, "/api/stripe-payment-intent", tc.body)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "pi_test_secret", decodeBody(t, rec)["clientSecret"])

		calls := f.processor.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, tc.want, calls[0].Amount)
		assert.Equal(t, domPayment.CurrencyUSD, calls[0].Currency)
		assert.True(t, calls[0].AutomaticPaymentMethods)
		assert.Empty(t, calls[0].IdempotencyKey)
	}
}

func TestCreatePaymentIntentForwardsIdempotencyKey(t *testing.T) {
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/stripe-payment-intent", strings.NewReader(`{"amount": 1}`))
	req.Header.Set("Idempotency-Key", "cart-7")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	calls := f.processor.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "cart-7", calls[0].IdempotencyKey)
}

func TestCreatePaymentIntentMethodNotAllowed(t *testing.T) {
	f := newFixture(t, false)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		for _, body := range []string{"", `{"amount": 19.99}`, "garbage"} {
			rec := f.do(method, "/api/stripe-payment-intent", body)

			require.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %q", method, body)
			assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
			assert.Equal(t, "Method Not Allowed", decodeBody(t, rec)["error"])
		}
	}
	assert.Empty(t, f.processor.Calls())
}

func TestCreatePaymentIntentRejectsBadBodies(t *testing.T) {
	f := newFixture(t, false)

	for _, body := range []string{
		"",
		"{",
		`{}`,
		`{"amount": "19.99"}`,
		`{"amount": null}`,
		`{"amount": -5}`,
		`{"amount": 1, "currency": "eur"}`,
		`[1]`,
		`{"amount": 1} {"amount": 2} garbage`,
		`{"amount": 1} garbage`,
	} {
		rec := f.do(http.MethodPost, "/api/stripe-payment-intent", body)

		require.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.NotEmpty(t, decodeBody(t, rec)["error"])
	}
	assert.Empty(t, f.processor.Calls())
}

func TestCreatePaymentIntentProcessorFailure(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&domPayment.ProcessorError{Message: "Your card was declined.", Code: "card_declined"}, "Your card was declined."},
		{errors.New("dial tcp: connection refused"), "dial tcp: connection refused"},
		{errors.New(""), "Internal Server Error"},
		{&domPayment.ProcessorError{}, "Internal Server Error"},
		{&domPayment.ProcessorError{
			StatusCode: http.StatusInternalServerError,
			Opaque:     true,
			Err:        errors.New(`{"status":500,"message":"","type":"api_error"}`),
		}, "Internal Server Error"},
		{&domPayment.ProcessorError{Err: domPayment.ErrNotConfigured}, "payment: processor is not configured"},
	}
	for _, tc := range cases {
		f := newFixture(t, false)
		f.processor.err = tc.err

		rec := f.do(http.MethodPost, "/api/stripe-payment-intent", `{"amount": 10}`)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, tc.want, decodeBody(t, rec)["error"])
	}
}

func TestRobots(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/robots.txt", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600, s-maxage=3600", rec.Header().Get("Cache-Control"))
	lines := strings.Split(rec.Body.String(), "\n")
	assert.Contains(t, lines, "Allow: /")
	assert.Contains(t, lines, "Sitemap: https://"+testDomain+"/sitemap.xml")
}

func TestRobotsHead(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodHead, "/robots.txt", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600, s-maxage=3600", rec.Header().Get("Cache-Control"))
}

func TestSitemaps(t *testing.T) {
	cases := []struct {
		path    string
		entries int
	}{
		{"/sitemap-main.xml", 2},
		{"/sitemap-blog.xml", 1},
	}
	for _, tc := range cases {
		f := newFixture(t, false)
		before := time.Now().UTC().Truncate(time.Second)

		rec := f.do(http.MethodGet, tc.path, "")

		after := time.Now().UTC()
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/xml; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "public, s-maxage=600, stale-while-revalidate=60", rec.Header().Get("Cache-Control"))

		var set domFeed.URLSet
		require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &set))
		require.Len(t, set.URLs, tc.entries, tc.path)
		for _, u := range set.URLs {
			assert.True(t, strings.HasPrefix(u.Loc, "https://"+testDomain+"/"))
			lastmod, err := time.Parse(time.RFC3339, u.LastMod)
			require.NoError(t, err)
			assert.False(t, lastmod.Before(before), "lastmod %v before %v", lastmod, before)
			assert.False(t, lastmod.After(after), "lastmod %v after %v", lastmod, after)
		}
	}
}

func TestSitemapIndex(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/sitemap.xml", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var idx domFeed.SitemapIndex
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &idx))
	assert.Len(t, idx.Sitemaps, 2)
}

func TestFeedsRejectPost(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodPost, "/robots.txt", "")

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method Not Allowed", decodeBody(t, rec)["error"])
}

func TestNotFoundIsJSON(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/nope", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeBody(t, rec)["error"])
}

func TestHealthAndRequestID(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestMetricsRecordRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	tel := infraobs.New(nil, prometrics.New(reg, "", ""), "test")
	h := NewHandler(Services{
		Feed: appFeed.NewService(testDomain, tel),
	}, Options{Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}, tel).Router()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/robots.txt", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/robots.txt",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `usecase_requests_total{outcome="success",use_case="feed.render"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	h := NewHandler(Services{}, Options{AllowedOrigins: []string{"https://" + testDomain}}, nil).Router()

	req := httptest.NewRequest(http.MethodOptions, "/api/stripe-payment-intent", nil)
	req.Header.Set("Origin", "https://"+testDomain)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://"+testDomain, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
