package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"paystack-checkout/internal/models"
	"paystack-checkout/internal/telemetry"
	"paystack-checkout/internal/webhook"
)

var customers = []string{"ada@example.com", "kofi@example.com", "ngozi@example.com", "yaw@example.com", "amara@example.com"}

type simOptions struct {
	target        string
	secret        string
	interval      time.Duration
	count         int
	failureRate   float64
	duplicateRate float64
	otlpEndpoint  string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := simOptions{}

	cmd := &cobra.Command{
		Use:   "webhook-sim",
		Short: "Send signed charge events to the payment-api webhook endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.secret == "" {
				return fmt.Errorf("a signing secret is required (--secret or PAYSTACK_SECRET_KEY)")
			}
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.target, "target", envOr("WEBHOOK_URL", "http://localhost:3000/api/payment/webhook"), "Webhook URL")
	cmd.Flags().StringVar(&opts.secret, "secret", os.Getenv("PAYSTACK_SECRET_KEY"), "Secret used to sign payloads")
	cmd.Flags().DurationVar(&opts.interval, "interval", 2*time.Second, "Delay between deliveries")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 0, "Number of deliveries (0 runs until interrupted)")
	cmd.Flags().Float64Var(&opts.failureRate, "failure-rate", 0.2, "Fraction of charge.failed events")
	cmd.Flags().Float64Var(&opts.duplicateRate, "duplicate-rate", 0.1, "Fraction of deliveries that repeat the previous reference")
	cmd.Flags().StringVar(&opts.otlpEndpoint, "otlp-endpoint", envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"), "OTLP gRPC endpoint")

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(parent context.Context, opts simOptions) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, _, _, shutdown, err := telemetry.Setup(ctx, "webhook-sim", opts.otlpEndpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdown(context.Background())

	client := &http.Client{Timeout: 5 * time.Second}
	gen := &generator{failureRate: opts.failureRate, duplicateRate: opts.duplicateRate}

	log.Info("webhook-sim started",
		zap.String("target", opts.target),
		zap.Duration("interval", opts.interval),
		zap.Int("count", opts.count),
	)

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	for sent := 0; opts.count == 0 || sent < opts.count; sent++ {
		if sent > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
		deliver(ctx, client, opts, gen.next(), log)
	}
	return nil
}

type generator struct {
	failureRate   float64
	duplicateRate float64
	last          *models.WebhookEvent
}

// next returns a fresh event, or the previous reference again to exercise
// redelivery handling.
func (g *generator) next() models.WebhookEvent {
	if g.last != nil && rand.Float64() < g.duplicateRate {
		return *g.last
	}

	ev := models.WebhookEvent{
		EventType:     models.EventChargeSuccess,
		Reference:     "sim_" + uuid.NewString(),
		Amount:        int64(100 + rand.IntN(999_900)),
		CustomerEmail: customers[rand.IntN(len(customers))],
		Status:        "success",
		Currency:      "NGN",
		Channel:       "card",
	}
	if rand.Float64() < g.failureRate {
		ev.EventType = models.EventChargeFailed
		ev.Status = "failed"
	}
	g.last = &ev
	return ev
}

func deliver(ctx context.Context, client *http.Client, opts simOptions, ev models.WebhookEvent, log *zap.Logger) {
	payload, err := webhook.EncodeEvent(ev)
	if err != nil {
		log.Error("failed to encode event", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.target, bytes.NewReader(payload))
	if err != nil {
		log.Error("failed to build request", zap.String("target", opts.target), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.SignatureHeader, webhook.Sign(payload, opts.secret))

	resp, err := client.Do(req)
	if err != nil {
		log.Warn("delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	log.Info("event delivered",
		zap.String("event_type", ev.EventType),
		zap.String("reference", ev.Reference),
		zap.Int64("amount", ev.Amount),
		zap.Int("http_status", resp.StatusCode),
	)
}
