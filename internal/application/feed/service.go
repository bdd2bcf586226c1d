package feed

import (
	"context"
	"time"

	domfeed "github.com/Zhima-Mochi/minishop-storefront/internal/domain/feed"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	feedService    = "feed-service"
	useCaseRender  = "feed.render"
	renderSpanName = "UC.RenderFeed"
)

// Service renders crawler documents for a single public domain.
type Service struct {
	domain     string
	now        func() time.Time
	tel        observability.Observability
	log        observability.Logger
	reqCounter observability.Counter
	durHist    observability.Histogram
}

type Option func(*Service)

// WithClock replaces time.Now as the source of <lastmod>.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(domain string, tel observability.Observability, opts ...Option) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	s := &Service{
		domain:     domain,
		now:        time.Now,
		tel:        tel,
		log:        tel.Logger().With(observability.F("service", feedService)),
		reqCounter: tel.Metrics().Counter(observability.MUsecaseRequests),
		durHist:    tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Domain is the host name documents are rendered for.
func (s *Service) Domain() string { return s.domain }

// Render builds the document of the given kind.
func (s *Service) Render(ctx context.Context, kind domfeed.Kind) (doc domfeed.Document, err error) {
	ctx, span := s.tel.Tracer().Start(ctx, renderSpanName,
		trace.WithAttributes(
			attribute.String("use_case", useCaseRender),
			attribute.String("feed.kind", string(kind)),
		),
	)
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logctx.FromOr(ctx, s.log).Error("feed_render_failed",
				observability.F("feed", string(kind)),
				observability.F("error", err.Error()),
			)
		}
		span.End()
		s.reqCounter.Add(1, observability.L("use_case", useCaseRender), observability.L("outcome", outcome))
		s.durHist.Observe(time.Since(start).Seconds(), observability.L("use_case", useCaseRender))
	}()

	if kind == domfeed.KindRobots {
		return domfeed.Robots(s.domain), nil
	}
	return domfeed.Sitemap(kind, s.domain, s.now())
}
