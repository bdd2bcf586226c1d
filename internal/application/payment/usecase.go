package payment

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	dompay "github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	paymentService         = "payment-service"
	useCaseCreateIntent    = "payment.create_intent"
	createIntentSpanName   = "CreatePaymentIntent"
	spanPrefix             = "UC."
	statusProcessorFailure = "PROCESSOR_FAILED"
)

type CreateIntentInput struct {
	// Amount in major currency units.
	Amount         float64
	IdempotencyKey string
}

type CreateIntentResult struct {
	IntentID     string
	ClientSecret string
	AmountMinor  int64
}

var _ application.UseCase[CreateIntentInput, *CreateIntentResult] = (*CreateIntentUseCase)(nil)

// CreateIntentUseCase turns a storefront checkout amount into a processor payment intent.
type CreateIntentUseCase struct {
	processor  dompay.Processor
	tel        observability.Observability
	log        observability.Logger
	reqCounter observability.Counter
	durHist    observability.Histogram
}

func NewCreateIntentUseCase(processor dompay.Processor, tel observability.Observability) *CreateIntentUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &CreateIntentUseCase{
		processor:  processor,
		tel:        tel,
		log:        tel.Logger().With(observability.F("service", paymentService)),
		reqCounter: metrics.Counter(observability.MUsecaseRequests),
		durHist:    metrics.Histogram(observability.MUsecaseDuration),
	}
}

// Execute converts the amount to minor units and asks the processor for an intent
// in USD with automatic payment methods. It makes exactly one processor call.
func (uc *CreateIntentUseCase) Execute(ctx context.Context, cmd CreateIntentInput) (_ *CreateIntentResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseCreateIntent),
		observability.F("amount", cmd.Amount),
	)

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+createIntentSpanName,
		trace.WithAttributes(
			attribute.String("use_case", useCaseCreateIntent),
			attribute.Float64("payment.amount_major", cmd.Amount),
			attribute.Bool("payment.idempotency_key_present", cmd.IdempotencyKey != ""),
		),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var minor int64

	defer func() {
		span.SetAttributes(attribute.Int64("payment.amount_minor", minor))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		latency := time.Since(start).Seconds()
		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseCreateIntent),
			observability.L("outcome", outcome),
		)
		uc.durHist.Observe(latency,
			observability.L("use_case", useCaseCreateIntent),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
			observability.F("amount_minor", minor),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
			logger.Warn("use_case_done", fields...)
			return
		}
		logger.Info("use_case_done", fields...)
	}()

	minor, err = dompay.ToMinorUnits(cmd.Amount)
	if err != nil {
		outcome, statusText = "error", "AMOUNT_INVALID"
		return nil, err
	}
	if uc.processor == nil {
		outcome, statusText = "error", statusProcessorFailure
		return nil, &dompay.ProcessorError{Err: dompay.ErrNotConfigured}
	}

	intent, err := uc.processor.CreateIntent(ctx, dompay.IntentRequest{
		Amount:                  minor,
		Currency:                dompay.CurrencyUSD,
		AutomaticPaymentMethods: true,
		IdempotencyKey:          cmd.IdempotencyKey,
	})
	if err != nil {
		outcome, statusText = "error", statusProcessorFailure
		var perr *dompay.ProcessorError
		if !errors.As(err, &perr) {
			err = &dompay.ProcessorError{Err: err}
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("payment.intent_id", intent.ID))
	return &CreateIntentResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountMinor:  minor,
	}, nil
}
