// Package services содержит бизнес-логику выдачи и обслуживания VPN-ключей:
// проверку подписки, квоты тарифа, генерацию уникальных токенов и выдачу
// клиентских конфигураций.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/vpn-storefront/internal/config"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/vless"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// maxTokenAttempts ограничивает число повторных генераций токена ключа
// при коллизии уникального индекса.
const maxTokenAttempts = 5

// trialKeyTTL время жизни пробного ключа, выдаваемого через бота.
const trialKeyTTL = 24 * time.Hour

// keysCacheTTL время жизни кеша списка ключей пользователя.
const keysCacheTTL = 5 * time.Minute

// KeyRepository определяет методы для работы с VPN-ключами в хранилище.
type KeyRepository interface {
	// CreateKeyWithQuota вставляет ключ, если владелец не исчерпал квоту активных ключей.
	CreateKeyWithQuota(ctx context.Context, key models.VpnKey, keyLimit int) (*models.VpnKey, error)
	// GetKey возвращает ключ по ID.
	GetKey(ctx context.Context, keyID string) (*models.VpnKey, error)
	// GetKeyByToken возвращает ключ по токену доступа.
	GetKeyByToken(ctx context.Context, token string) (*models.VpnKey, error)
	// ListKeysByUser возвращает все ключи пользователя.
	ListKeysByUser(ctx context.Context, userUID string) ([]*models.VpnKey, error)
	// DeactivateKey снимает флаг активности и возвращает число затронутых строк.
	DeactivateKey(ctx context.Context, keyID string) (int, error)
	// UpsertUsage накапливает трафик ключа за сутки.
	UpsertUsage(ctx context.Context, rec models.UsageRecord) error
	// GetUsageStats возвращает агрегированный трафик по дням.
	GetUsageStats(ctx context.Context, keyID string, from, to time.Time) ([]*models.UsageDay, error)
}

// EntitlementChecker проверяет действие подписки владельца.
type EntitlementChecker interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// KeyService реализует выдачу, листинг и деактивацию VPN-ключей.
type KeyService struct {
	repo   KeyRepository
	users  EntitlementChecker
	cache  Cache
	server vless.ServerParams
	log    *slog.Logger
}

// NewKeyService создает новый экземпляр KeyService.
func NewKeyService(repo KeyRepository, users EntitlementChecker, cache Cache,
	srv config.VlessServer, log *slog.Logger) *KeyService {
	return &KeyService{
		repo:  repo,
		users: users,
		cache: cache,
		server: vless.ServerParams{
			Host: srv.Host,
			Port: srv.Port,
			Path: srv.Path,
		},
		log: log,
	}
}

func cacheKeyForUser(userUID string) string {
	return fmt.Sprintf("vpnkeys:%s", userUID)
}

// Issue выдаёт новый VPN-ключ. Порядок проверок фиксирован: сначала
// действие подписки, затем квота тарифа. Уникальность токена обеспечивает
// ограничение базы, при коллизии токен генерируется заново ограниченное
// число раз. Дата истечения ключа копируется из подписки владельца.
func (s *KeyService) Issue(ctx context.Context, userUID, location, plan string) (*models.VpnKey, error) {
	const op = "services.vpnkey.Issue"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsEntitled(time.Now().UTC()) {
		return nil, models.ErrNotEntitled
	}

	p, ok := models.PlanByID(plan)
	if !ok {
		return nil, models.ErrUnknownPlan
	}
	if !models.IsKnownLocation(location) {
		return nil, models.ErrUnknownLocation
	}

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		material := vless.GenerateKey("vpn")
		key := models.VpnKey{
			UserUID:        userUID,
			Key:            material.Token,
			ServerLocation: location,
			Plan:           plan,
			Active:         true,
			ExpiresAt:      user.SubscriptionExpireAt,
		}
		created, err := s.repo.CreateKeyWithQuota(ctx, key, p.KeyLimit)
		if errors.Is(err, models.ErrDuplicateKeyToken) {
			s.log.Warn("key token collision, regenerating", slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if err := s.cache.Invalidate(cacheKeyForUser(userUID)); err != nil {
			s.log.Warn("failed to invalidate keys cache", sl.Err(err))
		}
		return created, nil
	}
	return nil, fmt.Errorf("%s: %w", op, models.ErrDuplicateKeyToken)
}

// Deactivate отключает ключ. Разрешено владельцу и администратору, всем
// остальным возвращается ErrForbidden. Обратного пути нет: выключенный
// ключ не активируется повторно.
func (s *KeyService) Deactivate(ctx context.Context, keyID, requesterUID, requesterRole string) error {
	const op = "services.vpnkey.Deactivate"

	key, err := s.repo.GetKey(ctx, keyID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if key.UserUID != requesterUID && requesterRole != models.RoleAdmin {
		return models.ErrForbidden
	}

	if _, err := s.repo.DeactivateKey(ctx, keyID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(cacheKeyForUser(key.UserUID)); err != nil {
		s.log.Warn("failed to invalidate keys cache", sl.Err(err))
	}
	s.log.Info("vpn key deactivated",
		slog.String("key_id", keyID),
		slog.String("requester_uid", requesterUID))
	return nil
}

// Get возвращает ключ, проверяя право доступа запрашивающего.
func (s *KeyService) Get(ctx context.Context, keyID, requesterUID, requesterRole string) (*models.VpnKey, error) {
	const op = "services.vpnkey.Get"

	key, err := s.repo.GetKey(ctx, keyID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if key.UserUID != requesterUID && requesterRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	return key, nil
}

// List возвращает ключи пользователя, используя кеш или репозиторий.
func (s *KeyService) List(ctx context.Context, userUID string) ([]*models.VpnKey, error) {
	const op = "services.vpnkey.List"

	var result []*models.VpnKey
	cacheKey := cacheKeyForUser(userUID)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read keys cache", sl.Err(err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ListKeysByUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(cacheKey, result, keysCacheTTL); err != nil {
		s.log.Warn("failed to cache keys", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// Config возвращает клиентскую конфигурацию по токену ключа: VLESS-ссылку
// и её разбор по полям. Для выключенных ключей конфигурация не выдаётся.
func (s *KeyService) Config(ctx context.Context, token, requesterUID, requesterRole string) (*vless.ConfigDocument, error) {
	const op = "services.vpnkey.Config"

	key, err := s.repo.GetKeyByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if key.UserUID != requesterUID && requesterRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	if !key.Active {
		return nil, models.ErrKeyInactive
	}
	doc := vless.BuildConfigDocument(key.Key, key.ServerLocation, s.server)
	return &doc, nil
}

// Locations возвращает фиксированный список локаций серверов.
func (s *KeyService) Locations() []models.ServerLocation {
	return models.ServerLocations
}

// IssueTrial выдаёт пробный ключ на 24 часа. Ключ не привязывается к
// оплаченной подписке и не сохраняется в таблице ключей, квота и проверка
// подписки не применяются.
func (s *KeyService) IssueTrial(category string) *models.TrialKey {
	material := vless.GenerateKey("trial")
	doc := vless.BuildConfigDocument(material.Token, "netherlands", s.server)
	return &models.TrialKey{
		Key:       material.Token,
		Category:  category,
		Config:    doc.URI,
		ExpiresAt: time.Now().UTC().Add(trialKeyTTL),
	}
}

// RecordUsage накапливает суточную статистику трафика ключа. Запись
// принимается только от владельца ключа или администратора, строка учёта
// всегда относится к владельцу ключа.
func (s *KeyService) RecordUsage(ctx context.Context, rec models.UsageRecord, requesterUID, requesterRole string) error {
	const op = "services.vpnkey.RecordUsage"

	key, err := s.repo.GetKey(ctx, rec.KeyID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if key.UserUID != requesterUID && requesterRole != models.RoleAdmin {
		return models.ErrForbidden
	}

	rec.UserUID = key.UserUID
	if err := s.repo.UpsertUsage(ctx, rec); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UsageStats возвращает трафик ключа за последние 30 дней.
func (s *KeyService) UsageStats(ctx context.Context, keyID, requesterUID, requesterRole string) ([]*models.UsageDay, error) {
	const op = "services.vpnkey.UsageStats"

	key, err := s.repo.GetKey(ctx, keyID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if key.UserUID != requesterUID && requesterRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	stats, err := s.repo.GetUsageStats(ctx, keyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}
