package inventoryservice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/pkg/cache"
	"cratetrack/internal/pkg/logger"
)

// InventoryRepository define as consultas de estoque derivadas do conteúdo das caixas.
type InventoryRepository interface {
	InventorySummary(ctx context.Context, tenantID string) ([]domain.InventorySummaryLine, error)
	InventoryDetails(ctx context.Context, tenantID, goodsID string) ([]domain.InventoryDetail, error)
	CrateHistory(ctx context.Context, tenantID, crateID string) ([]domain.OperationLog, error)
}

// CrateFinder resolve a caixa a partir da tag NFC.
type CrateFinder interface {
	FindCrateByNfcUID(ctx context.Context, tenantID, nfcUID string) (domain.Crate, error)
}

// Chave do resumo de inventário por tenant.
const summaryCacheKey = "inventory:summary:%s"

// Service responde às consultas de inventário e histórico.
type Service struct {
	repo   InventoryRepository
	crates CrateFinder
	cache  cache.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Inventário.
func NewService(repo InventoryRepository, crates CrateFinder, cacheClient cache.Client, ttl time.Duration, logger logger.Logger) *Service {
	return &Service{repo: repo, crates: crates, cache: cacheClient, ttl: ttl, logger: logger}
}

// Summary retorna o conteúdo INBOUND agrupado por mercadoria (cache-aside por tenant).
func (s *Service) Summary(ctx context.Context, actor domain.Actor) ([]domain.InventorySummaryLine, error) {
	key := fmt.Sprintf(summaryCacheKey, actor.TenantID)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		var lines []domain.InventorySummaryLine
		if json.Unmarshal([]byte(cached), &lines) == nil {
			s.logger.Debug("Resumo de inventário servido do cache.", map[string]interface{}{"tenant_id": actor.TenantID})
			return lines, nil
		}
	} else if err != cache.ErrCacheMiss {
		s.logger.Warn("Falha ao ler resumo do cache.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	lines, err := s.repo.InventorySummary(ctx, actor.TenantID)
	if err != nil {
		s.logger.Error("Falha ao calcular resumo de inventário.", err)
		return nil, err
	}

	if data, err := json.Marshal(lines); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("Falha ao gravar resumo no cache.", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return lines, nil
}

// InvalidateSummary descarta o resumo em cache; chamado após conclusões e desativações.
func (s *Service) InvalidateSummary(ctx context.Context, tenantID string) {
	key := fmt.Sprintf(summaryCacheKey, tenantID)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("Falha ao invalidar resumo de inventário.", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// Details lista as caixas que guardam a mercadoria informada.
func (s *Service) Details(ctx context.Context, actor domain.Actor, goodsID string) ([]domain.InventoryDetail, error) {
	if _, err := uuid.Parse(goodsID); err != nil {
		return nil, apperror.NewValidationError("O parâmetro goodsId deve ser um UUID válido.")
	}
	return s.repo.InventoryDetails(ctx, actor.TenantID, goodsID)
}

// CrateHistory retorna o log de operações da caixa identificada pela tag.
func (s *Service) CrateHistory(ctx context.Context, actor domain.Actor, nfcUID string) ([]domain.OperationLog, error) {
	uid := strings.ToUpper(strings.TrimSpace(nfcUID))
	if uid == "" {
		return nil, apperror.NewValidationError("O parâmetro nfcUid é obrigatório.")
	}
	crate, err := s.crates.FindCrateByNfcUID(ctx, actor.TenantID, uid)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.CrateHistory(ctx, actor.TenantID, crate.ID)
	if err != nil {
		s.logger.Error("Falha ao buscar histórico da caixa.", err)
		return nil, err
	}
	return history, nil
}
