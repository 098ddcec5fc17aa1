// Package paymentprovider реализует клиент платёжного шлюза ЮKassa.
package paymentprovider

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client клиент REST API ЮKassa с basic-авторизацией магазина.
type Client struct {
	shopID        string
	secretKey     string
	webhookSecret string
	apiURL        string
	httpClient    *http.Client
}

// NewClient создаёт новый клиент ЮKassa.
func NewClient(shopID, secretKey, webhookSecret string) *Client {
	return &Client{
		shopID:        shopID,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		apiURL:        "https://api.yookassa.ru/v3",
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(method, path string, body interface{}) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.shopID + ":" + c.secretKey))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreatePayment отправляет запрос на создание платежа. Заголовок
// Idempotence-Key защищает от двойного списания при сетевых повторах.
func (c *Client) CreatePayment(reqParams CreatePaymentRequest) (*CreatePaymentResponse, error) {
	req, err := c.newRequest("POST", "/payments", reqParams)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Idempotence-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var paymentResp CreatePaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&paymentResp); err != nil {
		return nil, err
	}
	return &paymentResp, nil
}

// GetPayment запрашивает текущий статус платежа.
func (c *Client) GetPayment(paymentID string) (*CreatePaymentResponse, error) {
	req, err := c.newRequest("GET", "/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var paymentResp CreatePaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&paymentResp); err != nil {
		return nil, err
	}
	return &paymentResp, nil
}

// VerifySignature проверяет HMAC-подпись вебхука (заголовок X-Api-Signature).
func (c *Client) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}
