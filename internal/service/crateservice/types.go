package crateservice

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
)

func validateCrateType(req domain.CrateTypeRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperror.NewValidationError("O nome do tipo de caixa não pode ser vazio.")
	}
	if strings.TrimSpace(req.Code) == "" {
		return apperror.NewValidationError("O código do tipo de caixa não pode ser vazio.")
	}
	if req.Capacity.Valid && !req.Capacity.Decimal.IsPositive() {
		return apperror.NewValidationError("A capacidade deve ser maior que zero.")
	}
	if req.Weight.Valid && req.Weight.Decimal.IsNegative() {
		return apperror.NewValidationError("O peso não pode ser negativo.")
	}
	if (req.Capacity.Valid && !domain.FitsQuantity(req.Capacity.Decimal)) || (req.Weight.Valid && !domain.FitsQuantity(req.Weight.Decimal)) {
		return apperror.NewValidationError("Capacidade e peso aceitam no máximo duas casas decimais e devem ser menores que 100000000.")
	}
	return nil
}

// CreateCrateType cadastra um tipo de caixa no tenant do ator.
func (s *Service) CreateCrateType(ctx context.Context, actor domain.Actor, req domain.CrateTypeRequest) (domain.CrateType, error) {
	if err := validateCrateType(req); err != nil {
		return domain.CrateType{}, err
	}

	now := s.now()
	ct := domain.CrateType{
		ID:          uuid.NewString(),
		TenantID:    actor.TenantID,
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Description: strings.TrimSpace(req.Description),
		Capacity:    req.Capacity,
		Weight:      req.Weight,
		IsActive:    req.IsActive == nil || *req.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := s.types.CreateCrateType(ctx, ct)
	if err != nil {
		return domain.CrateType{}, err
	}

	s.logger.Info("Tipo de caixa criado.", map[string]interface{}{"tenant_id": actor.TenantID, "crate_type_id": created.ID, "code": created.Code})
	return created, nil
}

// ListCrateTypes lista os tipos de caixa do tenant.
func (s *Service) ListCrateTypes(ctx context.Context, actor domain.Actor) ([]domain.CrateType, error) {
	return s.types.ListCrateTypes(ctx, actor.TenantID)
}

// UpdateCrateType substitui os campos editáveis de um tipo de caixa.
func (s *Service) UpdateCrateType(ctx context.Context, actor domain.Actor, id string, req domain.CrateTypeRequest) (domain.CrateType, error) {
	if err := validateID(id, "do tipo de caixa"); err != nil {
		return domain.CrateType{}, err
	}
	if err := validateCrateType(req); err != nil {
		return domain.CrateType{}, err
	}

	current, err := s.types.FindCrateType(ctx, actor.TenantID, id)
	if err != nil {
		return domain.CrateType{}, err
	}
	current.Name = strings.TrimSpace(req.Name)
	current.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	current.Description = strings.TrimSpace(req.Description)
	current.Capacity = req.Capacity
	current.Weight = req.Weight
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}
	current.UpdatedAt = s.now()

	return s.types.UpdateCrateType(ctx, current)
}

// DeleteCrateType remove logicamente um tipo que nenhuma caixa usa.
func (s *Service) DeleteCrateType(ctx context.Context, actor domain.Actor, id string) error {
	if err := validateID(id, "do tipo de caixa"); err != nil {
		return err
	}
	if err := s.types.DeleteCrateType(ctx, actor.TenantID, id, s.now()); err != nil {
		return err
	}

	s.logger.Info("Tipo de caixa removido.", map[string]interface{}{"tenant_id": actor.TenantID, "crate_type_id": id})
	return nil
}
