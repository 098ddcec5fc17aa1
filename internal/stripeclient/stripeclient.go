// Package stripeclient реализует клиент платёжного шлюза Stripe.
package stripeclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/magabrotheeeer/vpn-storefront/internal/config"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// SignatureTolerance максимальный возраст вебхука до отклонения подписи.
const SignatureTolerance = 5 * time.Minute

// StripeClient обёртка над API Stripe для оформления подписок картой.
type StripeClient struct {
	sc            *client.API
	webhookSecret string
	successURL    string
	log           *slog.Logger
}

// New создаёт клиент Stripe с ключом магазина.
func New(cfg config.Stripe, logger *slog.Logger) *StripeClient {
	sc := &client.API{}
	sc.Init(cfg.APIKey, nil)
	return &StripeClient{
		sc:            sc,
		webhookSecret: cfg.StripeWebhookSecret,
		successURL:    cfg.SuccessURL,
		log:           logger.With(slog.String("module", "stripe")),
	}
}

// CreateIntent создаёт PaymentIntent на сумму тарифа. Сумма передаётся
// в минимальных единицах валюты, метаданные связывают платёж с аккаунтом.
func (s *StripeClient) CreateIntent(plan models.Plan, userUID string) (*models.PaymentIntent, error) {
	const op = "stripeclient.CreateIntent"

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(plan.Price * 100)),
		Currency: stripe.String(strings.ToLower(plan.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("user_uid", userUID)
	params.AddMetadata("plan", plan.ID)

	intent, err := s.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.PaymentIntent{
		ID:              intent.ID,
		ConfirmationURL: s.successURL,
	}, nil
}

// VerifySignature проверяет подпись вебхука Stripe из заголовка
// Stripe-Signature (пары t=<unix> и v1=<hex hmac>). Слишком старые
// события отклоняются.
func (s *StripeClient) VerifySignature(payload []byte, header string, tolerance time.Duration) bool {
	parts := strings.Split(header, ",")
	var ts, sig string
	for _, p := range parts {
		if strings.HasPrefix(p, "t=") {
			ts = strings.TrimPrefix(p, "t=")
		}
		if strings.HasPrefix(p, "v1=") {
			sig = strings.TrimPrefix(p, "v1=")
		}
	}
	if ts == "" || sig == "" {
		s.log.Warn("missing timestamp or signature in header")
		return false
	}

	tsInt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		s.log.With(slog.Any("error", err)).Warn("failed to parse timestamp")
		return false
	}

	eventTime := time.Unix(tsInt, 0)
	if time.Since(eventTime) > tolerance {
		s.log.With(
			slog.Time("timestamp", eventTime),
			slog.Duration("tolerance", tolerance),
		).Warn("webhook timestamp too old")
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sig))
}
