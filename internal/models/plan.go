package models

// Plan описывает тарифный план подписки.
type Plan struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Currency     string   `json:"currency"`
	DurationDays int      `json:"duration_days"`
	KeyLimit     int      `json:"key_limit"` // Максимум одновременно активных ключей
	Features     []string `json:"features"`
}

const (
	// PlanBasic тариф с одним ключом.
	PlanBasic = "basic"
	// PlanPremium тариф с тремя ключами.
	PlanPremium = "premium"
	// PlanPro тариф с пятью ключами.
	PlanPro = "pro"
)

// ReferralShare доля платежа, начисляемая рефереру.
const ReferralShare = 0.20

// Plans каталог тарифов: цена, срок действия и квота на ключи.
var Plans = map[string]Plan{
	PlanBasic: {
		ID:           PlanBasic,
		Name:         "Basic",
		Price:        300,
		Currency:     "RUB",
		DurationDays: 30,
		KeyLimit:     1,
		Features: []string{
			"1 VPN ключ",
			"Доступ к базовым серверам",
			"Техническая поддержка",
			"Безлимитный трафик",
		},
	},
	PlanPremium: {
		ID:           PlanPremium,
		Name:         "Premium",
		Price:        450,
		Currency:     "RUB",
		DurationDays: 60,
		KeyLimit:     3,
		Features: []string{
			"3 VPN ключа",
			"Доступ ко всем серверам",
			"Приоритетная поддержка",
			"Безлимитный трафик",
			"Статистика использования",
		},
	},
	PlanPro: {
		ID:           PlanPro,
		Name:         "Pro",
		Price:        590,
		Currency:     "RUB",
		DurationDays: 90,
		KeyLimit:     5,
		Features: []string{
			"5 VPN ключей",
			"Доступ ко всем серверам",
			"VIP поддержка",
			"Безлимитный трафик",
			"Детальная аналитика",
			"Приоритетное подключение",
		},
	},
}

// PlanByID возвращает тариф по идентификатору.
func PlanByID(id string) (Plan, bool) {
	p, ok := Plans[id]
	return p, ok
}

// PlanList возвращает тарифы в стабильном порядке для выдачи клиентам.
func PlanList() []Plan {
	return []Plan{Plans[PlanBasic], Plans[PlanPremium], Plans[PlanPro]}
}
