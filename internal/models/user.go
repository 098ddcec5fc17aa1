// Package models содержит доменную модель магазина VPN-подписок:
// пользователей, VPN-ключи, платежи и записи об использовании трафика.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID                  string     // Уникальный идентификатор пользователя
	Email                string     // Электронная почта (уникальная)
	PasswordHash         string     // Хэш пароля пользователя
	TelegramID           *int64     // Привязанный Telegram-аккаунт, уникален при наличии
	Role                 string     // Роль пользователя, admin или user
	SubscriptionActive   bool       // Флаг активности подписки (справочный, истечение проверяется по дате)
	SubscriptionExpireAt *time.Time // Дата истечения оплаченной подписки
	ReferralCode         string     // Реферальный код из 8 символов, выдаётся при регистрации
	ReferredBy           *string    // UID пользователя, по чьему коду прошла регистрация
	ReferralEarnings     float64    // Накопленные реферальные начисления
	CreatedAt            time.Time
}

const (
	// RoleUser обычный пользователь.
	RoleUser = "user"
	// RoleAdmin администратор.
	RoleAdmin = "admin"
)

// IsEntitled возвращает true, если подписка активна и ещё не истекла.
// Флаг SubscriptionActive сам по себе недостаточен: фоновых задач,
// снимающих его по истечении, нет, поэтому дата проверяется при каждом чтении.
func (u *User) IsEntitled(now time.Time) bool {
	if !u.SubscriptionActive || u.SubscriptionExpireAt == nil {
		return false
	}
	return u.SubscriptionExpireAt.After(now)
}

// ReferralStats агрегированная информация для раздела "реферальная программа".
type ReferralStats struct {
	ReferralCode     string  `json:"referral_code"`
	ReferredUsers    int     `json:"referred_users"`
	ReferralEarnings float64 `json:"referral_earnings"`
}
