package models

import "time"

// UsageRecord запись об использовании трафика по ключу за сутки.
// На пару (key_id, date) приходится не более одной строки, объёмы
// аккумулируются upsert-ом.
type UsageRecord struct {
	KeyID           string    `json:"key_id"`
	UserUID         string    `json:"user_uid"`
	Date            time.Time `json:"date"`
	BytesUploaded   int64     `json:"bytes_uploaded"`
	BytesDownloaded int64     `json:"bytes_downloaded"`
}

// UsageDay агрегированная статистика за день для выдачи клиенту.
type UsageDay struct {
	Date     time.Time `json:"date"`
	Upload   int64     `json:"upload"`
	Download int64     `json:"download"`
	Total    int64     `json:"total"`
}

// NotificationEvent сообщение для очереди уведомлений.
// Доставка best-effort: ошибка публикации или отправки письма логируется
// и не влияет на результат операции, породившей событие.
type NotificationEvent struct {
	UserUID   string            `json:"user_uid"`
	Email     string            `json:"email"`
	EventKind string            `json:"event_kind"`
	Data      map[string]string `json:"data,omitempty"`
}

const (
	// EventPaymentSucceeded подписка оплачена и продлена.
	EventPaymentSucceeded = "payment.succeeded"
	// EventPaymentFailed платёж не прошёл.
	EventPaymentFailed = "payment.failed"
	// EventPaymentCanceled платёж отменён.
	EventPaymentCanceled = "payment.canceled"
)
