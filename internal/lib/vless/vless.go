// Package vless генерирует токены VPN-ключей и клиентские конфигурации.
//
// Токен — непрозрачная строка вида "<префикс>-<uuid>" (префикс "vpn" для
// оплаченных ключей, "trial" для пробных); криптографического протокола за
// ним нет, это учётный идентификатор, который позже можно заменить настоящей
// схемой выдачи без изменения логики квот и подписок.
package vless

import (
	"fmt"

	"github.com/google/uuid"
)

// KeyMaterial сгенерированный токен ключа.
type KeyMaterial struct {
	UUID  string // Идентификатор ключа в формате uuid
	Token string // Полный токен, сохраняемый в базе
}

// GenerateKey возвращает новый токен ключа с заданным префиксом.
// Коллизия токена отлавливается уникальным индексом базы, поэтому
// вызывающий код повторяет генерацию при нарушении ограничения.
func GenerateKey(prefix string) KeyMaterial {
	id := uuid.New().String()
	return KeyMaterial{
		UUID:  id,
		Token: fmt.Sprintf("%s-%s", prefix, id),
	}
}

// ServerParams параметры сервера, подставляемые в клиентскую ссылку.
type ServerParams struct {
	Host string
	Port int
	Path string
}

// FormatConfig собирает клиентскую VLESS-ссылку для выданного токена.
func FormatConfig(token string, p ServerParams) string {
	return fmt.Sprintf(
		"vless://%s@%s:%d?encryption=none&security=tls&sni=%s&type=ws&host=%s&path=%s#%s",
		token, p.Host, p.Port, p.Host, p.Host, p.Path, token,
	)
}

// ConfigDocument структура конфигурации, отдаваемая HTTP-клиентам.
type ConfigDocument struct {
	Protocol   string   `json:"protocol"`
	UUID       string   `json:"uuid"`
	Server     string   `json:"server"`
	Port       int      `json:"port"`
	Location   string   `json:"location"`
	Encryption string   `json:"encryption"`
	Network    string   `json:"network"`
	Path       string   `json:"path"`
	TLS        bool     `json:"tls"`
	SNI        string   `json:"sni"`
	ALPN       []string `json:"alpn"`
	URI        string   `json:"uri"` // Готовая VLESS-ссылка для импорта в клиент
}

// BuildConfigDocument возвращает структурированную конфигурацию клиента
// вместе с собранной VLESS-ссылкой.
func BuildConfigDocument(token, location string, p ServerParams) ConfigDocument {
	return ConfigDocument{
		Protocol:   "vless",
		UUID:       token,
		Server:     p.Host,
		Port:       p.Port,
		Location:   location,
		Encryption: "none",
		Network:    "ws",
		Path:       p.Path,
		TLS:        true,
		SNI:        p.Host,
		ALPN:       []string{"h2", "http/1.1"},
		URI:        FormatConfig(token, p),
	}
}
