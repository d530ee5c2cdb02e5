package payment

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"paystack-checkout/internal/gateway"
	"paystack-checkout/internal/models"
	"paystack-checkout/internal/webhook"
)

type Controller struct {
	useCase *UseCase
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewController(useCase *UseCase, log *zap.Logger, tracer trace.Tracer) *Controller {
	return &Controller{useCase: useCase, log: log, tracer: tracer}
}

// Register mounts the payment routes on r.
func (ct *Controller) Register(r fiber.Router) {
	r.Post("/initialize-popup", ct.InitializePopup)
	r.Post("/initialize-redirect", ct.InitializeRedirect)
	r.Get("/verify/:reference", ct.Verify)
	r.Post("/webhook", ct.Webhook)
	r.Get("/transactions", ct.Transactions)
}

func (ct *Controller) InitializePopup(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.InitializePopup",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var req models.InitializeRequest
	if err := c.BodyParser(&req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		return ct.fail(c, ErrValidation, "Failed to initialize transaction")
	}

	result, err := ct.useCase.InitializePopup(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ct.log.Error("popup initialization failed", zap.Error(err))
		return ct.fail(c, err, "Failed to initialize transaction")
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"access_code": result.AccessCode,
			"reference":   result.Reference,
		},
	})
}

func (ct *Controller) InitializeRedirect(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.InitializeRedirect",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var req models.InitializeRequest
	if err := c.BodyParser(&req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		return ct.fail(c, ErrValidation, "Failed to initialize transaction")
	}

	result, err := ct.useCase.InitializeRedirect(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ct.log.Error("redirect initialization failed", zap.Error(err))
		return ct.fail(c, err, "Failed to initialize transaction")
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"authorization_url": result.AuthorizationURL,
			"reference":         result.Reference,
		},
	})
}

func (ct *Controller) Verify(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.Verify",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	result, err := ct.useCase.VerifyTransaction(ctx, c.Params("reference"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ct.log.Error("verification failed", zap.Error(err))
		return ct.fail(c, err, "Failed to verify transaction")
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(fiber.Map{"success": true, "data": result})
}

// Webhook answers 401 only when the signature does not match. Once the
// delivery is authenticated it is always acknowledged with 200 so the
// gateway does not keep redelivering; intake failures are only logged.
func (ct *Controller) Webhook(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.Webhook",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	payload := c.Body()
	signature := c.Get(webhook.SignatureHeader)
	if signature == "" {
		signature = c.Get(webhook.AltSignatureHeader)
	}

	if err := ct.useCase.AuthenticateWebhook(ctx, payload, signature); err != nil {
		span.SetStatus(codes.Error, "invalid signature")
		ct.log.Warn("invalid webhook signature", zap.String("ip", c.IP()))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid signature"})
	}

	if err := ct.useCase.ProcessWebhook(ctx, payload); err != nil {
		span.RecordError(err)
		ct.log.Error("webhook processing failed", zap.Error(err))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

func (ct *Controller) Transactions(c *fiber.Ctx) error {
	recs, err := ct.useCase.ListTransactions(c.UserContext())
	if err != nil {
		ct.log.Error("failed to list transactions", zap.Error(err))
		return ct.fail(c, err, "Failed to list transactions")
	}
	return c.JSON(fiber.Map{"success": true, "data": recs})
}

func (ct *Controller) fail(c *fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, ErrValidation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Email and amount are required",
		})
	}

	message := fallback
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		message = gwErr.Message
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
