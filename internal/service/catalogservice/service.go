package catalogservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/pkg/logger"
)

// CatalogRepository define o contrato que o Serviço de Catálogo espera da camada de Persistência.
type CatalogRepository interface {
	CreateGoods(ctx context.Context, g domain.Goods) (domain.Goods, error)
	CreateSupplier(ctx context.Context, s domain.Supplier) (domain.Supplier, error)
	CreateLocation(ctx context.Context, loc domain.Location) (domain.Location, error)
	ListGoods(ctx context.Context, tenantID string) ([]domain.Goods, error)
	ListSuppliers(ctx context.Context, tenantID string) ([]domain.Supplier, error)
	ListLocations(ctx context.Context, tenantID string) ([]domain.Location, error)
}

// Service mantém o cadastro mínimo de mercadorias, fornecedores e localizações do tenant.
type Service struct {
	repo   CatalogRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Catálogo.
func NewService(repo CatalogRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// validateName é uma função auxiliar para validar nomes do catálogo.
func validateName(name, what string) error {
	if strings.TrimSpace(name) == "" {
		return apperror.NewValidationError("O nome " + what + " não pode ser vazio.")
	}
	if len(name) > 200 {
		return apperror.NewValidationError("O nome " + what + " deve ter no máximo 200 caracteres.")
	}
	return nil
}

// CreateGoods cadastra uma mercadoria.
func (s *Service) CreateGoods(ctx context.Context, actor domain.Actor, g domain.Goods) (domain.Goods, error) {
	s.logger.Debug("Iniciando criação de mercadoria no serviço.", map[string]interface{}{"tenant_id": actor.TenantID, "sku": g.SKU})

	if err := validateName(g.Name, "da mercadoria"); err != nil {
		return domain.Goods{}, err
	}
	g.SKU = strings.ToUpper(strings.TrimSpace(g.SKU))
	if g.SKU == "" {
		return domain.Goods{}, apperror.NewValidationError("O SKU da mercadoria é obrigatório.")
	}
	g.Unit = strings.ToUpper(strings.TrimSpace(g.Unit))
	if g.Unit == "" {
		g.Unit = "UN"
	}
	g.ID = uuid.NewString()
	g.TenantID = actor.TenantID
	g.Name = strings.TrimSpace(g.Name)
	g.CreatedAt = time.Now().UTC()

	created, err := s.repo.CreateGoods(ctx, g)
	if err != nil {
		s.logger.Error("Falha ao criar mercadoria no repositório.", err)
		return domain.Goods{}, err
	}
	return created, nil
}

// CreateSupplier cadastra um fornecedor.
func (s *Service) CreateSupplier(ctx context.Context, actor domain.Actor, sp domain.Supplier) (domain.Supplier, error) {
	if err := validateName(sp.Name, "do fornecedor"); err != nil {
		return domain.Supplier{}, err
	}
	sp.ID = uuid.NewString()
	sp.TenantID = actor.TenantID
	sp.Name = strings.TrimSpace(sp.Name)
	sp.CreatedAt = time.Now().UTC()

	created, err := s.repo.CreateSupplier(ctx, sp)
	if err != nil {
		s.logger.Error("Falha ao criar fornecedor no repositório.", err)
		return domain.Supplier{}, err
	}
	return created, nil
}

// CreateLocation cadastra uma localização; o código é normalizado em maiúsculas.
func (s *Service) CreateLocation(ctx context.Context, actor domain.Actor, loc domain.Location) (domain.Location, error) {
	if err := validateName(loc.Name, "da localização"); err != nil {
		return domain.Location{}, err
	}
	loc.Code = strings.ToUpper(strings.TrimSpace(loc.Code))
	if loc.Code == "" {
		return domain.Location{}, apperror.NewValidationError("O código da localização é obrigatório.")
	}
	loc.ID = uuid.NewString()
	loc.TenantID = actor.TenantID
	loc.Name = strings.TrimSpace(loc.Name)
	loc.CreatedAt = time.Now().UTC()

	created, err := s.repo.CreateLocation(ctx, loc)
	if err != nil {
		s.logger.Error("Falha ao criar localização no repositório.", err)
		return domain.Location{}, err
	}
	return created, nil
}

// ListGoods lista as mercadorias do tenant.
func (s *Service) ListGoods(ctx context.Context, actor domain.Actor) ([]domain.Goods, error) {
	return s.repo.ListGoods(ctx, actor.TenantID)
}

// ListSuppliers lista os fornecedores do tenant.
func (s *Service) ListSuppliers(ctx context.Context, actor domain.Actor) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx, actor.TenantID)
}

// ListLocations lista as localizações do tenant.
func (s *Service) ListLocations(ctx context.Context, actor domain.Actor) ([]domain.Location, error) {
	return s.repo.ListLocations(ctx, actor.TenantID)
}
