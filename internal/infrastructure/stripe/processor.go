// Package stripepay implements the payment processor port on top of Stripe
// payment intents.
package stripepay

import (
	"context"
	"errors"
	"net/http"
	"time"

	dompay "github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentStripe = "stripe_processor"
	serviceLabel    = "stripe"
	opCreateIntent  = "payment_intents.create"
)

type Options struct {
	SecretKey string
	// APIURL overrides the API base URL, e.g. for stripe-mock.
	APIURL     string
	HTTPClient *http.Client
}

// Processor creates Stripe payment intents. A Processor without a secret key
// fails every call with dompay.ErrNotConfigured.
type Processor struct {
	api        *client.API
	tel        observability.Observability
	log        observability.Logger
	reqCounter observability.Counter
	durHist    observability.Histogram
}

var _ dompay.Processor = (*Processor)(nil)

func New(opts Options, tel observability.Observability) *Processor {
	if tel == nil {
		tel = observability.Nop()
	}
	p := &Processor{
		tel:        tel,
		log:        tel.Logger().With(observability.F("component", componentStripe)),
		reqCounter: tel.Metrics().Counter(observability.MExternalRequests),
		durHist:    tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
	if opts.SecretKey == "" {
		return p
	}

	// Retries would make the processor generate idempotency keys on our behalf.
	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		HTTPClient:        opts.HTTPClient,
	}
	if opts.APIURL != "" {
		cfg.URL = stripe.String(opts.APIURL)
	}
	p.api = client.New(opts.SecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
	})
	return p
}

func (p *Processor) CreateIntent(ctx context.Context, req dompay.IntentRequest) (_ dompay.Intent, err error) {
	ctx, span := p.tel.Tracer().Start(ctx, "stripe.PaymentIntents.Create",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("peer.service", serviceLabel),
			attribute.Int64("payment.amount_minor", req.Amount),
			attribute.String("payment.currency", string(req.Currency)),
		),
	)
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logctx.FromOr(ctx, p.log).Warn("stripe_request_failed",
				observability.F("operation", opCreateIntent),
				observability.F("error", err.Error()),
			)
		}
		span.End()
		p.reqCounter.Add(1,
			observability.L("service", serviceLabel),
			observability.L("operation", opCreateIntent),
			observability.L("outcome", outcome),
		)
		p.durHist.Observe(time.Since(start).Seconds(),
			observability.L("service", serviceLabel),
			observability.L("operation", opCreateIntent),
		)
	}()

	if p.api == nil {
		return dompay.Intent{}, &dompay.ProcessorError{Err: dompay.ErrNotConfigured}
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(string(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(req.AutomaticPaymentMethods),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return dompay.Intent{}, toProcessorError(err)
	}

	span.SetAttributes(attribute.String("payment.intent_id", pi.ID))
	return dompay.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     dompay.Currency(pi.Currency),
	}, nil
}

// toProcessorError keeps Stripe's human-readable message, which is what the
// storefront shows, rather than the JSON rendering of *stripe.Error.
func toProcessorError(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return &dompay.ProcessorError{
			Message:    serr.Msg,
			Code:       string(serr.Code),
			StatusCode: serr.HTTPStatusCode,
			Opaque:     true,
			Err:        err,
		}
	}
	return &dompay.ProcessorError{Err: err}
}
