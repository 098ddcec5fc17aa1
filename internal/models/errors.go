package models

import "errors"

// Ошибки доменного уровня. Сервисы возвращают их (обёрнутыми через %w),
// обработчики сопоставляют через errors.Is и выбирают HTTP-статус и текст.
var (
	// ErrAccountNotFound пользователь не найден.
	ErrAccountNotFound = errors.New("account not found")
	// ErrNotEntitled у пользователя нет действующей подписки.
	ErrNotEntitled = errors.New("active subscription required")
	// ErrQuotaExceeded достигнут лимит активных ключей тарифа.
	ErrQuotaExceeded = errors.New("active key quota exceeded")
	// ErrForbidden операция запрещена для этого пользователя.
	ErrForbidden = errors.New("forbidden")
	// ErrKeyNotFound ключ не найден.
	ErrKeyNotFound = errors.New("vpn key not found")
	// ErrKeyInactive ключ деактивирован.
	ErrKeyInactive = errors.New("vpn key is inactive")
	// ErrDuplicateKeyToken коллизия токена ключа, генерацию можно повторить.
	ErrDuplicateKeyToken = errors.New("duplicate key token")
	// ErrDuplicateReferralCode коллизия реферального кода, генерацию можно повторить.
	ErrDuplicateReferralCode = errors.New("duplicate referral code")
	// ErrEmailTaken почта уже зарегистрирована.
	ErrEmailTaken = errors.New("email already registered")
	// ErrTelegramLinked Telegram-аккаунт уже привязан к другому пользователю.
	ErrTelegramLinked = errors.New("telegram account already linked")
	// ErrInvalidCredentials неверная пара почта/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSignature подпись вебхука не прошла проверку, запрос отклоняется без побочных эффектов.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrPaymentNotFound платёж не найден.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentAlreadyTerminal повторный переход платежа в терминальный статус, игнорируется.
	ErrPaymentAlreadyTerminal = errors.New("payment already in terminal status")
	// ErrUnknownPlan неизвестный тарифный план.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrUnknownLocation неизвестная локация сервера.
	ErrUnknownLocation = errors.New("unknown server location")
)
