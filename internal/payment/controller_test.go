package payment

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"paystack-checkout/internal/gateway"
	"paystack-checkout/internal/models"
	"paystack-checkout/internal/store"
	"paystack-checkout/internal/telemetry"
	"paystack-checkout/internal/webhook"
)

const testSecret = "sk_test_webhook_secret"

// stubGateway stands in for the remote API; unset funcs fail the call.
type stubGateway struct {
	InitializeFunc func(ctx context.Context, params gateway.InitializeParams) (*gateway.InitializeData, error)
	VerifyFunc     func(ctx context.Context, reference string) (*gateway.VerifyData, error)
	calls          int
}

func (s *stubGateway) Initialize(ctx context.Context, params gateway.InitializeParams) (*gateway.InitializeData, error) {
	s.calls++
	if s.InitializeFunc != nil {
		return s.InitializeFunc(ctx, params)
	}
	return nil, errors.New("initialize not stubbed")
}

func (s *stubGateway) Verify(ctx context.Context, reference string) (*gateway.VerifyData, error) {
	s.calls++
	if s.VerifyFunc != nil {
		return s.VerifyFunc(ctx, reference)
	}
	return nil, errors.New("verify not stubbed")
}

type handlerFunc func(ctx context.Context, ev models.WebhookEvent) error

func (f handlerFunc) Handle(ctx context.Context, ev models.WebhookEvent) error { return f(ctx, ev) }

type testEnv struct {
	app   *fiber.App
	gw    *stubGateway
	store *store.MemoryStore
}

func newTestEnv(t *testing.T, events EventHandler) *testEnv {
	t.Helper()
	tracer, metrics := telemetry.Discard()
	log := zap.NewNop()

	gw := &stubGateway{}
	st := store.NewMemoryStore()
	if events == nil {
		events = webhook.NewIntake(st, nil, metrics, log, tracer)
	}

	uc := NewUseCase(gw, events, st, Options{
		WebhookSecret:      testSecret,
		DefaultCallbackURL: "https://shop.example.com/callback.html",
	}, metrics, log, tracer)
	app := NewApp(ServerConfig{AllowedOrigin: "*", RoutePrefix: "/api/payment"}, NewController(uc, log, tracer), log)

	return &testEnv{app: app, gw: gw, store: st}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	return resp.StatusCode, body
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func signedWebhook(t *testing.T, ev models.WebhookEvent) *http.Request {
	t.Helper()
	payload, err := webhook.EncodeEvent(ev)
	require.NoError(t, err)
	req := jsonRequest(http.MethodPost, "/api/payment/webhook", string(payload))
	req.Header.Set(webhook.SignatureHeader, webhook.Sign(payload, testSecret))
	return req
}

func TestInitializePopup(t *testing.T) {
	env := newTestEnv(t, nil)
	var sent gateway.InitializeParams
	env.gw.InitializeFunc = func(_ context.Context, params gateway.InitializeParams) (*gateway.InitializeData, error) {
		sent = params
		return &gateway.InitializeData{AccessCode: "acc_123", Reference: "ref_123", AuthorizationURL: "https://checkout/acc_123"}, nil
	}

	status, body := env.do(t, jsonRequest(http.MethodPost, "/api/payment/initialize-popup",
		`{"email":"a@b.com","amount":50.00,"metadata":{"name":"Ada"}}`))

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "acc_123", data["access_code"])
	assert.Equal(t, "ref_123", data["reference"])
	assert.NotContains(t, data, "authorization_url")

	assert.Equal(t, "a@b.com", sent.Email)
	assert.Equal(t, int64(5000), sent.Amount)
	assert.Empty(t, sent.CallbackURL)
	assert.Equal(t, "Ada", sent.Metadata["name"])
}

func TestInitializeRoundsToMinorUnits(t *testing.T) {
	env := newTestEnv(t, nil)
	var sent gateway.InitializeParams
	env.gw.InitializeFunc = func(_ context.Context, params gateway.InitializeParams) (*gateway.InitializeData, error) {
		sent = params
		return &gateway.InitializeData{Reference: "ref"}, nil
	}

	status, _ := env.do(t, jsonRequest(http.MethodPost, "/api/payment/initialize-popup", `{"email":"a@b.com","amount":19.999}`))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(2000), sent.Amount)
}

func TestInitializeValidation(t *testing.T) {
	cases := map[string]string{
		"missing email":   `{"amount":50}`,
		"missing amount":  `{"email":"a@b.com"}`,
		"zero amount":     `{"email":"a@b.com","amount":0}`,
		"blank email":     `{"email":"   ","amount":10}`,
		"not json":        `email=a@b.com`,
		"amount too big":  `{"email":"a@b.com","amount":100000000000000000}`,
		"exponent amount": `{"email":"a@b.com","amount":1e20}`,
	}

	for name, body := range cases {
		for _, path := range []string{"/api/payment/initialize-popup", "/api/payment/initialize-redirect"} {
			t.Run(name+" "+path, func(t *testing.T) {
				env := newTestEnv(t, nil)

				status, resp := env.do(t, jsonRequest(http.MethodPost, path, body))

				assert.Equal(t, http.StatusBadRequest, status)
				assert.Equal(t, false, resp["success"])
				assert.Equal(t, "Email and amount are required", resp["message"])
				assert.Zero(t, env.gw.calls)
			})
		}
	}
}

func TestInitializeRedirect(t *testing.T) {
	env := newTestEnv(t, nil)
	var sent []gateway.InitializeParams
	env.gw.InitializeFunc = func(_ context.Context, params gateway.InitializeParams) (*gateway.InitializeData, error) {
		sent = append(sent, params)
		return &gateway.InitializeData{AccessCode: "acc", Reference: "ref_r", AuthorizationURL: "https://checkout.paystack.com/acc"}, nil
	}

	status, body := env.do(t, jsonRequest(http.MethodPost, "/api/payment/initialize-redirect",
		`{"email":"a@b.com","amount":"12.5","callback_url":"https://other.example.com/done"}`))
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "https://checkout.paystack.com/acc", data["authorization_url"])
	assert.Equal(t, "ref_r", data["reference"])
	assert.NotContains(t, data, "access_code")

	status, _ = env.do(t, jsonRequest(http.MethodPost, "/api/payment/initialize-redirect", `{"email":"a@b.com","amount":3}`))
	require.Equal(t, http.StatusOK, status)

	require.Len(t, sent, 2)
	assert.Equal(t, int64(1250), sent[0].Amount)
	assert.Equal(t, "https://other.example.com/done", sent[0].CallbackURL)
	assert.Equal(t, "https://shop.example.com/callback.html", sent[1].CallbackURL)
}

func TestInitializeGatewayFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gw.InitializeFunc = func(context.Context, gateway.InitializeParams) (*gateway.InitializeData, error) {
		return nil, &gateway.Error{StatusCode: http.StatusUnauthorized, Message: "Invalid key"}
	}

	status, body := env.do(t, jsonRequest(http.MethodPost, "/api/payment/initialize-popup", `{"email":"a@b.com","amount":1}`))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid key", body["message"])
}

func TestInitializeTransportFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gw.InitializeFunc = func(context.Context, gateway.InitializeParams) (*gateway.InitializeData, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	status, body := env.do(t, jsonRequest(http.MethodPost, "/api/payment/initialize-redirect", `{"email":"a@b.com","amount":1}`))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to initialize transaction", body["message"])
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gw.VerifyFunc = func(_ context.Context, reference string) (*gateway.VerifyData, error) {
		assert.Equal(t, "ref_abc", reference)
		return &gateway.VerifyData{
			Status:          "success",
			Reference:       reference,
			Amount:          5000,
			Currency:        "NGN",
			Customer:        gateway.Customer{Email: "a@b.com"},
			PaidAt:          "2026-03-01T12:00:00.000Z",
			Channel:         "card",
			GatewayResponse: "Successful",
		}, nil
	}

	status, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/payment/verify/ref_abc", nil))

	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(50), data["amount"])
	assert.Equal(t, "success", data["status"])
	assert.Equal(t, "NGN", data["currency"])
	assert.Equal(t, "a@b.com", data["customer_email"])
	assert.Equal(t, "card", data["channel"])
	assert.Equal(t, "Successful", data["gateway_response"])
	assert.Equal(t, "2026-03-01T12:00:00.000Z", data["paid_at"])
}

func TestVerifySpansKeepTheirOwnReference(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tracer := tp.Tracer("payment-test")
	_, metrics := telemetry.Discard()
	log := zap.NewNop()

	gw := &stubGateway{VerifyFunc: func(_ context.Context, reference string) (*gateway.VerifyData, error) {
		return &gateway.VerifyData{Status: "success", Reference: reference, Amount: 100}, nil
	}}
	st := store.NewMemoryStore()
	uc := NewUseCase(gw, webhook.NewIntake(st, nil, metrics, log, tracer), st, Options{WebhookSecret: testSecret}, metrics, log, tracer)
	env := &testEnv{
		app:   NewApp(ServerConfig{AllowedOrigin: "*", RoutePrefix: "/api/payment"}, NewController(uc, log, tracer), log),
		gw:    gw,
		store: st,
	}

	refs := []string{"ref_AAAAAAAA", "ref_BBBBBBBB", "ref_CCCCCCCC"}
	for _, ref := range refs {
		status, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/api/payment/verify/"+ref, nil))
		require.Equal(t, http.StatusOK, status)
	}

	var got []string
	for _, span := range rec.Ended() {
		if span.Name() != "VerifyTransaction" {
			continue
		}
		for _, kv := range span.Attributes() {
			if kv.Key == "payment.reference" {
				got = append(got, kv.Value.AsString())
			}
		}
	}
	assert.Equal(t, refs, got)
}

func TestVerifyGatewayFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gw.VerifyFunc = func(context.Context, string) (*gateway.VerifyData, error) {
		return nil, &gateway.Error{StatusCode: http.StatusBadRequest, Message: "Transaction reference not found"}
	}

	status, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/payment/verify/missing", nil))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Transaction reference not found", body["message"])
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t, nil)
	req := signedWebhook(t, models.WebhookEvent{EventType: models.EventChargeSuccess, Reference: "ref_1", Amount: 100})
	req.Header.Set(webhook.SignatureHeader, webhook.Sign([]byte("something else"), testSecret))

	status, body := env.do(t, req)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid signature", body["message"])
	recs, _ := env.store.List(context.Background())
	assert.Empty(t, recs)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	env := newTestEnv(t, nil)
	req := jsonRequest(http.MethodPost, "/api/payment/webhook", `{"event":"charge.success","data":{"reference":"r"}}`)

	status, _ := env.do(t, req)

	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestWebhookRedeliveryKeepsOneRecord(t *testing.T) {
	env := newTestEnv(t, nil)
	ev := models.WebhookEvent{
		EventType:     models.EventChargeSuccess,
		Reference:     "ref_dup",
		Amount:        5000,
		CustomerEmail: "first@example.com",
		Status:        "success",
	}

	status, body := env.do(t, signedWebhook(t, ev))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["received"])

	ev.CustomerEmail = "second@example.com"
	ev.Amount = 7550
	status, _ = env.do(t, signedWebhook(t, ev))
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/payment/transactions", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	data := body["data"].([]any)
	require.Len(t, data, 1)
	rec := data[0].(map[string]any)
	assert.Equal(t, "ref_dup", rec["reference"])
	assert.Equal(t, "second@example.com", rec["customer_email"])
	assert.Equal(t, 75.5, rec["amount"])
}

func TestWebhookChargeFailedStoresNothing(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _ := env.do(t, signedWebhook(t, models.WebhookEvent{EventType: models.EventChargeFailed, Reference: "ref_f", Amount: 100}))
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, signedWebhook(t, models.WebhookEvent{EventType: "transfer.success", Reference: "ref_t", Amount: 100}))
	require.Equal(t, http.StatusOK, status)

	recs, err := env.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestWebhookAcknowledgesIntakeFailures(t *testing.T) {
	cases := map[string]EventHandler{
		"error": handlerFunc(func(context.Context, models.WebhookEvent) error {
			return errors.New("store unavailable")
		}),
		"panic": handlerFunc(func(context.Context, models.WebhookEvent) error {
			panic("boom")
		}),
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, handler)

			status, body := env.do(t, signedWebhook(t, models.WebhookEvent{EventType: models.EventChargeSuccess, Reference: "ref_x", Amount: 1}))

			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, true, body["received"])
		})
	}
}

func TestWebhookAcknowledgesUnparseablePayload(t *testing.T) {
	env := newTestEnv(t, nil)
	payload := []byte(`not json at all`)
	req := jsonRequest(http.MethodPost, "/api/payment/webhook", string(payload))
	req.Header.Set(webhook.AltSignatureHeader, webhook.Sign(payload, testSecret))

	status, body := env.do(t, req)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["received"])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}
