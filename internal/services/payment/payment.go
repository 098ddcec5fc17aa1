// Package services содержит бизнес-логику платежей: создание платежа у
// шлюза и обработку подтверждающих вебхуков с активацией подписки.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
	"github.com/magabrotheeeer/vpn-storefront/internal/paymentprovider"
)

// PaymentRepository определяет методы для работы с платежами в хранилище.
type PaymentRepository interface {
	// CreatePayment вставляет платёж в статусе pending и возвращает его ID.
	CreatePayment(ctx context.Context, p models.Payment) (string, error)
	// SetPaymentIntentID привязывает к платежу идентификатор шлюза.
	SetPaymentIntentID(ctx context.Context, paymentID, intentID string) error
	// TransitionPayment переводит платёж из pending в терминальный статус.
	TransitionPayment(ctx context.Context, intentID, status string) (*models.Payment, error)
	// ListPaymentsByUser возвращает платежи пользователя с пагинацией.
	ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error)
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// YooKassaGateway описывает используемую часть клиента ЮKassa.
type YooKassaGateway interface {
	CreatePayment(req paymentprovider.CreatePaymentRequest) (*paymentprovider.CreatePaymentResponse, error)
	VerifySignature(body []byte, signature string) bool
}

// StripeGateway описывает используемую часть клиента Stripe.
type StripeGateway interface {
	CreateIntent(plan models.Plan, userUID string) (*models.PaymentIntent, error)
	VerifySignature(payload []byte, header string, tolerance time.Duration) bool
}

// SubscriptionActivator продлевает подписку после успешной оплаты.
type SubscriptionActivator interface {
	Activate(ctx context.Context, userUID string, durationDays int) (time.Time, error)
}

// ReferralCreditor начисляет реферальную долю с платежа.
type ReferralCreditor interface {
	Credit(ctx context.Context, payerUID, paymentID string, amount float64) error
}

// PaymentService реализует создание платежей и обработку вебхуков шлюзов.
type PaymentService struct {
	repo          PaymentRepository
	yookassa      YooKassaGateway
	stripe        StripeGateway
	subscriptions SubscriptionActivator
	referrals     ReferralCreditor
	notifier      Notifier
	returnURL     string
	log           *slog.Logger
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(repo PaymentRepository, yookassa YooKassaGateway, stripe StripeGateway,
	subscriptions SubscriptionActivator, referrals ReferralCreditor, notifier Notifier,
	returnURL string, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:          repo,
		yookassa:      yookassa,
		stripe:        stripe,
		subscriptions: subscriptions,
		referrals:     referrals,
		notifier:      notifier,
		returnURL:     returnURL,
		log:           log,
	}
}

// Create создаёт платёж: сначала строка в статусе pending, затем платёж
// на стороне шлюза. Идентификатор шлюза дописывается к строке после его
// получения. Возвращает ссылку, по которой клиент завершает оплату.
func (s *PaymentService) Create(ctx context.Context, userUID, planID, gateway string) (*models.PaymentIntent, error) {
	const op = "services.payment.Create"

	plan, ok := models.PlanByID(planID)
	if !ok {
		return nil, models.ErrUnknownPlan
	}

	payment := models.Payment{
		UserUID:      userUID,
		Plan:         plan.ID,
		Amount:       plan.Price,
		Currency:     plan.Currency,
		DurationDays: plan.DurationDays,
		Metadata:     map[string]string{"gateway": gateway},
	}
	paymentID, err := s.repo.CreatePayment(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var intent *models.PaymentIntent
	switch gateway {
	case models.GatewayYooKassa:
		resp, err := s.yookassa.CreatePayment(paymentprovider.CreatePaymentRequest{
			Amount: paymentprovider.Amount{
				Value:    strconv.FormatFloat(plan.Price, 'f', 2, 64),
				Currency: plan.Currency,
			},
			Confirmation: paymentprovider.Confirmation{
				Type:      "redirect",
				ReturnURL: s.returnURL,
			},
			Description: fmt.Sprintf("VPN подписка: тариф %s", plan.Name),
			Capture:     true,
			Metadata: map[string]string{
				"user_uid":   userUID,
				"plan":       plan.ID,
				"payment_id": paymentID,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		intent = &models.PaymentIntent{
			ID:              resp.ID,
			ConfirmationURL: resp.Confirmation.ConfirmationURL,
		}
	case models.GatewayStripe:
		intent, err = s.stripe.CreateIntent(plan, userUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	default:
		return nil, fmt.Errorf("%s: unknown gateway %q", op, gateway)
	}

	if err := s.repo.SetPaymentIntentID(ctx, paymentID, intent.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("payment created",
		slog.String("payment_id", paymentID),
		slog.String("intent_id", intent.ID),
		slog.String("plan", plan.ID),
		slog.String("gateway", gateway))
	return intent, nil
}

// List возвращает платежи пользователя.
func (s *PaymentService) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error) {
	return s.repo.ListPaymentsByUser(ctx, userUID, limit, offset)
}

// webhookEvent общая форма уведомления ЮKassa.
type webhookEvent struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"object"`
}

// stripeEvent используемая часть события Stripe.
type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// ProcessWebhook обрабатывает вебхук платёжного шлюза. Подпись проверяется
// до любых изменений, невалидная подпись отклоняет запрос целиком.
// Точка фиксации — условный UPDATE статуса: повторная доставка не проходит
// по условию, возвращается ErrPaymentAlreadyTerminal и побочные эффекты
// не повторяются. Уведомление пользователю публикуется best-effort.
func (s *PaymentService) ProcessWebhook(ctx context.Context, gateway string, body []byte, signature string) error {
	const op = "services.payment.ProcessWebhook"

	intentID, status, err := s.parseWebhook(gateway, body, signature)
	if err != nil {
		return err
	}
	if status == "" {
		// Событие не меняет состояние платежа, подтверждаем без действий.
		s.log.Info("ignoring webhook event without terminal status",
			slog.String("gateway", gateway))
		return nil
	}

	payment, err := s.repo.TransitionPayment(ctx, intentID, status)
	if err != nil {
		if errors.Is(err, models.ErrPaymentAlreadyTerminal) {
			s.log.Info("duplicate webhook for terminal payment",
				slog.String("intent_id", intentID),
				slog.String("status", payment.Status))
			return models.ErrPaymentAlreadyTerminal
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if status == models.PaymentStatusSucceeded {
		expiresAt, err := s.subscriptions.Activate(ctx, payment.UserUID, payment.DurationDays)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.referrals.Credit(ctx, payment.UserUID, payment.ID, payment.Amount); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.notify(ctx, payment, models.EventPaymentSucceeded, map[string]string{
			"plan":       payment.Plan,
			"amount":     strconv.FormatFloat(payment.Amount, 'f', 2, 64),
			"expires_at": expiresAt.Format(time.RFC3339),
		})
		return nil
	}

	eventKind := models.EventPaymentFailed
	if status == models.PaymentStatusCanceled {
		eventKind = models.EventPaymentCanceled
	}
	s.notify(ctx, payment, eventKind, map[string]string{"plan": payment.Plan})
	return nil
}

// parseWebhook проверяет подпись и извлекает идентификатор платежа и
// целевой статус. Пустой статус означает событие, не требующее перехода.
func (s *PaymentService) parseWebhook(gateway string, body []byte, signature string) (string, string, error) {
	const op = "services.payment.parseWebhook"

	switch gateway {
	case models.GatewayYooKassa:
		if !s.yookassa.VerifySignature(body, signature) {
			return "", "", models.ErrInvalidSignature
		}
		var evt webhookEvent
		if err := json.Unmarshal(body, &evt); err != nil {
			return "", "", fmt.Errorf("%s: %w", op, err)
		}
		var status string
		switch evt.Event {
		case "payment.succeeded":
			status = models.PaymentStatusSucceeded
		case "payment.canceled":
			status = models.PaymentStatusCanceled
		}
		return evt.Object.ID, status, nil
	case models.GatewayStripe:
		if !s.stripe.VerifySignature(body, signature, 5*time.Minute) {
			return "", "", models.ErrInvalidSignature
		}
		var evt stripeEvent
		if err := json.Unmarshal(body, &evt); err != nil {
			return "", "", fmt.Errorf("%s: %w", op, err)
		}
		var status string
		switch evt.Type {
		case "payment_intent.succeeded":
			status = models.PaymentStatusSucceeded
		case "payment_intent.payment_failed":
			status = models.PaymentStatusFailed
		case "payment_intent.canceled":
			status = models.PaymentStatusCanceled
		}
		return evt.Data.Object.ID, status, nil
	}
	return "", "", fmt.Errorf("%s: unknown gateway %q", op, gateway)
}

// notify публикует событие в очередь уведомлений. Ошибка публикации
// логируется и не влияет на результат обработки платежа.
func (s *PaymentService) notify(ctx context.Context, payment *models.Payment, eventKind string, data map[string]string) {
	user, err := s.repo.GetUser(ctx, payment.UserUID)
	if err != nil {
		s.log.Warn("failed to load user for notification", sl.Err(err))
		return
	}
	event := models.NotificationEvent{
		UserUID:   payment.UserUID,
		Email:     user.Email,
		EventKind: eventKind,
		Data:      data,
	}
	if err := s.notifier.Publish(event); err != nil {
		s.log.Warn("failed to publish notification", sl.Err(err))
	}
}
