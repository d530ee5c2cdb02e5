package payment

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"paystack-checkout/internal/gateway"
	"paystack-checkout/internal/models"
	"paystack-checkout/internal/telemetry"
	"paystack-checkout/internal/webhook"
)

const (
	FlowPopup    = "popup"
	FlowRedirect = "redirect"
)

type Gateway interface {
	Initialize(ctx context.Context, params gateway.InitializeParams) (*gateway.InitializeData, error)
	Verify(ctx context.Context, reference string) (*gateway.VerifyData, error)
}

type EventHandler interface {
	Handle(ctx context.Context, ev models.WebhookEvent) error
}

type TransactionLister interface {
	List(ctx context.Context) ([]models.TransactionRecord, error)
}

type Options struct {
	// WebhookSecret keys the webhook HMAC. For Paystack it is the API secret key.
	WebhookSecret string
	// DefaultCallbackURL is used by the redirect flow when the request has none.
	DefaultCallbackURL string
}

type UseCase struct {
	gateway      Gateway
	events       EventHandler
	transactions TransactionLister
	opts         Options
	metrics      *telemetry.Metrics
	log          *zap.Logger
	tracer       trace.Tracer
}

func NewUseCase(gw Gateway, events EventHandler, transactions TransactionLister, opts Options, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) *UseCase {
	return &UseCase{
		gateway:      gw,
		events:       events,
		transactions: transactions,
		opts:         opts,
		metrics:      metrics,
		log:          log,
		tracer:       tracer,
	}
}

func (uc *UseCase) InitializePopup(ctx context.Context, req models.InitializeRequest) (*models.InitializeResult, error) {
	req.CallbackURL = ""
	return uc.initialize(ctx, FlowPopup, req)
}

func (uc *UseCase) InitializeRedirect(ctx context.Context, req models.InitializeRequest) (*models.InitializeResult, error) {
	if req.CallbackURL == "" {
		req.CallbackURL = uc.opts.DefaultCallbackURL
	}
	return uc.initialize(ctx, FlowRedirect, req)
}

func (uc *UseCase) initialize(ctx context.Context, flow string, req models.InitializeRequest) (*models.InitializeResult, error) {
	ctx, span := uc.tracer.Start(ctx, "InitializeTransaction",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("payment.flow", flow)),
	)
	defer span.End()

	email := strings.TrimSpace(req.Email)
	if email == "" || !req.Amount.IsPositive() || !models.FitsMinor(req.Amount) {
		span.SetStatus(codes.Error, ErrValidation.Error())
		return nil, ErrValidation
	}

	params := gateway.InitializeParams{
		Email:       email,
		Amount:      models.ToMinor(req.Amount),
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}
	span.SetAttributes(attribute.Int64("payment.amount_minor", params.Amount))

	data, err := uc.gateway.Initialize(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.metrics.TransactionsInitialized.Add(ctx, 1, metric.WithAttributes(
			attribute.String("flow", flow), attribute.String("status", "error")))
		return nil, fmt.Errorf("initialize %s transaction: %w", flow, err)
	}

	uc.metrics.TransactionsInitialized.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow), attribute.String("status", "ok")))
	span.SetAttributes(attribute.String("payment.reference", data.Reference))
	span.SetStatus(codes.Ok, "")

	uc.log.Info("transaction initialized",
		zap.String("flow", flow),
		zap.String("reference", data.Reference),
		zap.Int64("amount_minor", params.Amount),
	)

	return &models.InitializeResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (uc *UseCase) VerifyTransaction(ctx context.Context, reference string) (*models.Verification, error) {
	ctx, span := uc.tracer.Start(ctx, "VerifyTransaction",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("payment.reference", reference)),
	)
	defer span.End()

	data, err := uc.gateway.Verify(ctx, reference)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.metrics.TransactionsVerified.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		return nil, fmt.Errorf("verify transaction %s: %w", reference, err)
	}

	uc.metrics.TransactionsVerified.Add(ctx, 1, metric.WithAttributes(attribute.String("status", data.Status)))
	span.SetStatus(codes.Ok, "")
	uc.log.Info("transaction verified",
		zap.String("reference", reference),
		zap.String("status", data.Status),
	)

	return &models.Verification{
		Status:          data.Status,
		Reference:       data.Reference,
		Amount:          models.ToMajor(data.Amount),
		Currency:        data.Currency,
		CustomerEmail:   data.Customer.Email,
		PaidAt:          data.PaidAt,
		Channel:         data.Channel,
		GatewayResponse: data.GatewayResponse,
	}, nil
}

func (uc *UseCase) ListTransactions(ctx context.Context) ([]models.TransactionRecord, error) {
	return uc.transactions.List(ctx)
}

// AuthenticateWebhook checks the delivery's signature against the raw body.
func (uc *UseCase) AuthenticateWebhook(ctx context.Context, payload []byte, signature string) error {
	if !webhook.Verify(payload, signature, uc.opts.WebhookSecret) {
		uc.metrics.SignatureRejected.Add(ctx, 1)
		return ErrInvalidSignature
	}
	return nil
}

// ProcessWebhook parses an authenticated delivery and hands it to intake.
// A panic in intake is converted to an error.
func (uc *UseCase) ProcessWebhook(ctx context.Context, payload []byte) (err error) {
	ctx, span := uc.tracer.Start(ctx, "ProcessWebhook", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("webhook intake panicked: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	ev, err := webhook.ParseEvent(payload)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("webhook.event_type", ev.EventType))
	uc.log.Info("webhook received", zap.String("event_type", ev.EventType))

	return uc.events.Handle(ctx, ev)
}
