package paymentprovider

import "time"

// Amount представляет денежную сумму.
type Amount struct {
	Value    string `json:"value"`    // сумма, например "450.00"
	Currency string `json:"currency"` // валюта, например "RUB"
}

// Confirmation способ подтверждения платежа покупателем.
type Confirmation struct {
	Type            string `json:"type"`                       // redirect
	ReturnURL       string `json:"return_url,omitempty"`       // куда вернуть после оплаты
	ConfirmationURL string `json:"confirmation_url,omitempty"` // ссылка для оплаты (в ответе)
}

// CreatePaymentRequest представляет запрос на создание платежа.
type CreatePaymentRequest struct {
	Amount       Amount            `json:"amount"`
	Confirmation Confirmation      `json:"confirmation"`
	Description  string            `json:"description,omitempty"`
	Capture      bool              `json:"capture"`
	Metadata     map[string]string `json:"metadata,omitempty"` // user_uid, plan и др.
}

// CreatePaymentResponse представляет ответ на создание платежа.
type CreatePaymentResponse struct {
	ID           string            `json:"id"`     // ID платежа в ЮKassa
	Status       string            `json:"status"` // статус платежа, например "pending"
	Amount       Amount            `json:"amount"`
	Confirmation Confirmation      `json:"confirmation"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}
