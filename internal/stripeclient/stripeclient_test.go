package stripeclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/vpn-storefront/internal/config"
)

func newTestClient() *StripeClient {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(config.Stripe{
		APIKey:              "sk_test",
		StripeWebhookSecret: "whsec_test",
		SuccessURL:          "https://example.com/success",
	}, logger)
}

func signStripe(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestStripeClient_VerifySignature(t *testing.T) {
	client := newTestClient()
	payload := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)
	now := time.Now().Unix()

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{
			name:   "корректная подпись",
			header: fmt.Sprintf("t=%d,v1=%s", now, signStripe("whsec_test", now, payload)),
			want:   true,
		},
		{
			name:   "подпись другим секретом",
			header: fmt.Sprintf("t=%d,v1=%s", now, signStripe("whsec_other", now, payload)),
			want:   false,
		},
		{
			name: "просроченная метка времени",
			header: fmt.Sprintf("t=%d,v1=%s",
				now-600, signStripe("whsec_test", now-600, payload)),
			want: false,
		},
		{
			name:   "нет метки времени",
			header: "v1=deadbeef",
			want:   false,
		},
		{
			name:   "нет подписи",
			header: fmt.Sprintf("t=%d", now),
			want:   false,
		},
		{
			name:   "нечисловая метка времени",
			header: "t=abc,v1=deadbeef",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.VerifySignature(payload, tt.header, SignatureTolerance))
		})
	}
}

func TestStripeClient_VerifySignature_PayloadTampered(t *testing.T) {
	client := newTestClient()
	payload := []byte(`{"type":"payment_intent.succeeded"}`)
	now := time.Now().Unix()
	header := fmt.Sprintf("t=%d,v1=%s", now, signStripe("whsec_test", now, payload))

	tampered := []byte(`{"type":"payment_intent.canceled"}`)
	assert.False(t, client.VerifySignature(tampered, header, SignatureTolerance))
}
