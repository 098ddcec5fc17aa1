package models

import "time"

// Payment представляет платёж пользователя за подписку.
// Жизненный цикл: создаётся в статусе pending, переходит ровно в один
// из терминальных статусов по подтверждению шлюза, терминальный статус финален.
type Payment struct {
	ID              string            // Уникальный идентификатор платежа
	UserUID         string            // Плательщик
	PaymentIntentID string            // Идентификатор платежа на стороне шлюза
	Status          string            // pending, succeeded, failed, canceled
	Plan            string            // Оплачиваемый тариф
	Amount          float64           // Сумма платежа
	Currency        string            // Валюта, по умолчанию RUB
	DurationDays    int               // Срок продления подписки
	Metadata        map[string]string // Произвольные данные шлюза
	CreatedAt       time.Time
}

const (
	// PaymentStatusPending платёж создан, ожидает подтверждения шлюза.
	PaymentStatusPending = "pending"
	// PaymentStatusSucceeded платёж подтверждён.
	PaymentStatusSucceeded = "succeeded"
	// PaymentStatusFailed платёж не прошёл.
	PaymentStatusFailed = "failed"
	// PaymentStatusCanceled платёж отменён.
	PaymentStatusCanceled = "canceled"
)

// IsTerminalPaymentStatus сообщает, является ли статус финальным.
func IsTerminalPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCanceled:
		return true
	}
	return false
}

const (
	// GatewayYooKassa платёж через ЮKassa.
	GatewayYooKassa = "yookassa"
	// GatewayStripe платёж через Stripe.
	GatewayStripe = "stripe"
)

// PaymentIntent результат создания платежа на стороне шлюза:
// идентификатор и ссылка, по которой клиент завершает оплату.
type PaymentIntent struct {
	ID              string `json:"id"`
	ConfirmationURL string `json:"confirmation_url"`
}
