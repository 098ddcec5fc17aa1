package models

import "time"

// VpnKey представляет выданный VPN-ключ пользователя.
// Поле Key хранит непрозрачный уникальный токен доступа, уникальность
// обеспечивается ограничением базы данных, а не только генератором.
type VpnKey struct {
	ID             string     // Уникальный идентификатор ключа
	UserUID        string     // Владелец ключа
	Key            string     // Токен доступа (уникальный)
	ServerLocation string     // Локация сервера из фиксированного списка
	Plan           string     // Тарифный план, унаследованный при выдаче
	Active         bool       // Флаг активности, true при создании
	ExpiresAt      *time.Time // Дата истечения, копируется из подписки владельца
	LastUsed       *time.Time // Время последнего подключения
	CreatedAt      time.Time
}

// TrialKey пробный ключ, выдаваемый только через бота. Не привязывается
// к оплаченной подписке и не сохраняется в таблице ключей.
type TrialKey struct {
	Key       string    `json:"key"`
	Category  string    `json:"category"`
	Config    string    `json:"config"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ServerLocation описывает доступную локацию VPN-сервера.
type ServerLocation struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Flag    string `json:"flag"`
	City    string `json:"city"`
	Latency string `json:"latency"`
	Status  string `json:"status"`
}

// ServerLocations фиксированный список локаций, отдаваемый клиентам.
var ServerLocations = []ServerLocation{
	{ID: "netherlands", Name: "Netherlands", Flag: "🇳🇱", City: "Amsterdam", Latency: "15ms", Status: "online"},
	{ID: "germany", Name: "Germany", Flag: "🇩🇪", City: "Frankfurt", Latency: "25ms", Status: "online"},
	{ID: "france", Name: "France", Flag: "🇫🇷", City: "Paris", Latency: "30ms", Status: "online"},
	{ID: "usa", Name: "United States", Flag: "🇺🇸", City: "New York", Latency: "120ms", Status: "online"},
	{ID: "russia", Name: "Russia", Flag: "🇷🇺", City: "Moscow", Latency: "45ms", Status: "online"},
	{ID: "kazakhstan", Name: "Kazakhstan", Flag: "🇰🇿", City: "Almaty", Latency: "60ms", Status: "online"},
}

// IsKnownLocation проверяет, что локация входит в фиксированный список.
func IsKnownLocation(id string) bool {
	for _, loc := range ServerLocations {
		if loc.ID == id {
			return true
		}
	}
	return false
}
