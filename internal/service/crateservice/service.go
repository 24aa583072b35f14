package crateservice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/ledger"
	"cratetrack/internal/pkg/logger"
)

// Tamanho máximo aceito para o UID de uma tag NFC.
const maxNfcUIDLength = 64

// Limite de itens por requisição de lote.
const maxBatchSize = 500

// CrateRepository define o contrato que o Serviço de Caixas espera da camada de Persistência.
type CrateRepository interface {
	RegisterCrate(ctx context.Context, crate domain.Crate, entry domain.OperationLog) (domain.Crate, error)
	FindCrate(ctx context.Context, tenantID, id string) (domain.Crate, error)
	FindCrateByNfcUID(ctx context.Context, tenantID, nfcUID string) (domain.Crate, error)
	ExistingNfcUIDs(ctx context.Context, tenantID string, uids []string) (map[string]bool, error)
	ListCrates(ctx context.Context, tenantID string, filter domain.CrateFilter) ([]domain.Crate, error)
	UpdateCrate(ctx context.Context, crate domain.Crate) (domain.Crate, error)
	CountActiveCrates(ctx context.Context, tenantID string) (int, error)
	FindContent(ctx context.Context, tenantID, crateID string) (*domain.CrateContent, error)
}

// CrateTypeRepository define o contrato de persistência dos tipos de caixa.
type CrateTypeRepository interface {
	CreateCrateType(ctx context.Context, ct domain.CrateType) (domain.CrateType, error)
	FindCrateType(ctx context.Context, tenantID, id string) (domain.CrateType, error)
	ListCrateTypes(ctx context.Context, tenantID string) ([]domain.CrateType, error)
	UpdateCrateType(ctx context.Context, ct domain.CrateType) (domain.CrateType, error)
	DeleteCrateType(ctx context.Context, tenantID, id string, at time.Time) error
}

// InventoryInvalidator descarta o resumo de inventário em cache do tenant.
type InventoryInvalidator interface {
	InvalidateSummary(ctx context.Context, tenantID string)
}

// Service implementa o registro, a consulta e a desativação de caixas.
type Service struct {
	crates    CrateRepository
	types     CrateTypeRepository
	tx        ledger.Transactor
	engine    *ledger.Engine
	inventory InventoryInvalidator
	quota     int
	logger    logger.Logger
	now       func() time.Time
}

// NewService cria e retorna uma nova instância do Serviço de Caixas.
// quota <= 0 desliga o limite de caixas por tenant.
func NewService(crates CrateRepository, types CrateTypeRepository, tx ledger.Transactor, engine *ledger.Engine,
	inventory InventoryInvalidator, quota int, logger logger.Logger) *Service {
	return &Service{
		crates:    crates,
		types:     types,
		tx:        tx,
		engine:    engine,
		inventory: inventory,
		quota:     quota,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeNfcUID padroniza o UID lido pelo dispositivo (sem espaços, maiúsculo).
func NormalizeNfcUID(raw string) (string, error) {
	uid := strings.ToUpper(strings.TrimSpace(raw))
	if uid == "" {
		return "", apperror.NewValidationError("O nfcUid da caixa é obrigatório.")
	}
	if len(uid) > maxNfcUIDLength {
		return "", apperror.NewValidationError(fmt.Sprintf("O nfcUid deve ter no máximo %d caracteres.", maxNfcUIDLength))
	}
	return uid, nil
}

func validateID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("O ID %s deve ser um UUID válido.", what))
	}
	return nil
}

// RegisterCrate registra uma caixa nova no tenant do ator.
func (s *Service) RegisterCrate(ctx context.Context, actor domain.Actor, req domain.CrateRegistration) (domain.Crate, error) {
	s.logger.Debug("Iniciando registro de caixa no serviço.", map[string]interface{}{"tenant_id": actor.TenantID, "nfc_uid": req.NfcUID})

	uid, err := NormalizeNfcUID(req.NfcUID)
	if err != nil {
		return domain.Crate{}, err
	}
	if err := s.checkCrateType(ctx, actor.TenantID, req.CrateTypeID); err != nil {
		return domain.Crate{}, err
	}
	if s.quota > 0 {
		n, err := s.crates.CountActiveCrates(ctx, actor.TenantID)
		if err != nil {
			return domain.Crate{}, err
		}
		if n >= s.quota {
			s.logger.Warn("Quota de caixas atingida.", map[string]interface{}{"tenant_id": actor.TenantID, "quota": s.quota})
			return domain.Crate{}, apperror.NewBusinessValidationError(
				fmt.Sprintf("Limite de %d caixas ativas atingido para o tenant.", s.quota))
		}
	}

	crate, entry := s.newCrate(actor, uid, req.CrateTypeID)
	created, err := s.crates.RegisterCrate(ctx, crate, entry)
	if err != nil {
		if !apperror.IsDuplicateKey(err) {
			s.logger.Error("Falha ao registrar caixa no repositório.", err)
		}
		return domain.Crate{}, err
	}

	s.logger.Info("Caixa registrada com sucesso.", map[string]interface{}{"tenant_id": actor.TenantID, "crate_id": created.ID, "nfc_uid": created.NfcUID})
	return created, nil
}

func (s *Service) checkCrateType(ctx context.Context, tenantID string, typeID *string) error {
	if typeID == nil {
		return nil
	}
	if err := validateID(*typeID, "do tipo de caixa"); err != nil {
		return err
	}
	_, err := s.types.FindCrateType(ctx, tenantID, *typeID)
	return err
}

func (s *Service) newCrate(actor domain.Actor, uid string, typeID *string) (domain.Crate, domain.OperationLog) {
	now := s.now()
	crate := domain.Crate{
		ID:          uuid.NewString(),
		TenantID:    actor.TenantID,
		NfcUID:      uid,
		CrateTypeID: typeID,
		Status:      domain.CrateAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	crateID := crate.ID
	payload, _ := json.Marshal(domain.CrateLogPayload{NfcUID: uid})
	entry := domain.OperationLog{
		ID:            uuid.NewString(),
		TenantID:      actor.TenantID,
		UserID:        actor.UserID,
		EntityType:    domain.EntityCrate,
		EntityID:      crate.ID,
		CrateID:       &crateID,
		OperationType: domain.OpCrateRegister,
		Description:   fmt.Sprintf("Caixa %s registrada", uid),
		Payload:       payload,
		CreatedAt:     now,
	}
	return crate, entry
}

// BatchRegister registra várias caixas; a falha de um item nunca aborta os demais.
func (s *Service) BatchRegister(ctx context.Context, actor domain.Actor, req domain.BatchRegisterRequest) (domain.BatchRegisterResult, error) {
	s.logger.Debug("Iniciando registro em lote.", map[string]interface{}{"tenant_id": actor.TenantID, "total": len(req.Crates)})

	if len(req.Crates) == 0 {
		return domain.BatchRegisterResult{}, apperror.NewValidationError("A lista de caixas não pode ser vazia.")
	}
	if len(req.Crates) > maxBatchSize {
		return domain.BatchRegisterResult{}, apperror.NewValidationError(fmt.Sprintf("O lote aceita no máximo %d caixas.", maxBatchSize))
	}

	result := domain.BatchRegisterResult{
		TotalRequested: len(req.Crates),
		Registered:     make([]domain.Crate, 0, len(req.Crates)),
		Failures:       make([]domain.BatchFailure, 0),
	}
	fail := func(i int, uid, code, msg string) {
		result.Failures = append(result.Failures, domain.BatchFailure{Index: i, NfcUID: uid, Code: code, Message: msg})
	}

	uids := make([]string, len(req.Crates))
	valid := make([]bool, len(req.Crates))
	counts := make(map[string]int)
	for i, c := range req.Crates {
		uid, err := NormalizeNfcUID(c.NfcUID)
		if err != nil {
			fail(i, c.NfcUID, domain.FailureInvalidNfcUID, err.Error())
			continue
		}
		uids[i] = uid
		valid[i] = true
		counts[uid]++
	}

	candidates := make([]string, 0, len(counts))
	for i := range req.Crates {
		if !valid[i] {
			continue
		}
		if counts[uids[i]] > 1 {
			fail(i, uids[i], domain.FailureDuplicateInRequest, fmt.Sprintf("O nfcUid '%s' aparece mais de uma vez no lote.", uids[i]))
			valid[i] = false
			continue
		}
		candidates = append(candidates, uids[i])
	}

	existing, err := s.crates.ExistingNfcUIDs(ctx, actor.TenantID, candidates)
	if err != nil {
		s.logger.Error("Falha ao verificar nfcUids existentes.", err)
		return domain.BatchRegisterResult{}, err
	}

	remaining := -1
	if s.quota > 0 {
		n, err := s.crates.CountActiveCrates(ctx, actor.TenantID)
		if err != nil {
			return domain.BatchRegisterResult{}, err
		}
		remaining = s.quota - n
	}

	typeOK := make(map[string]bool)
	for i, c := range req.Crates {
		if !valid[i] {
			continue
		}
		uid := uids[i]
		if existing[uid] {
			fail(i, uid, domain.FailureDuplicateNfcUID, fmt.Sprintf("Já existe uma caixa com nfcUid '%s'.", uid))
			continue
		}
		if c.CrateTypeID != nil {
			ok, seen := typeOK[*c.CrateTypeID]
			if !seen {
				ok = s.checkCrateType(ctx, actor.TenantID, c.CrateTypeID) == nil
				typeOK[*c.CrateTypeID] = ok
			}
			if !ok {
				fail(i, uid, domain.FailureCrateTypeNotFound, fmt.Sprintf("Tipo de caixa %s não encontrado.", *c.CrateTypeID))
				continue
			}
		}
		if remaining == 0 {
			fail(i, uid, domain.FailureQuotaExceeded, fmt.Sprintf("Limite de %d caixas ativas atingido para o tenant.", s.quota))
			continue
		}

		crate, entry := s.newCrate(actor, uid, c.CrateTypeID)
		created, err := s.crates.RegisterCrate(ctx, crate, entry)
		if err != nil {
			if apperror.IsDuplicateKey(err) {
				fail(i, uid, domain.FailureDuplicateNfcUID, err.Error())
			} else {
				s.logger.Error("Falha ao registrar caixa do lote.", err)
				fail(i, uid, domain.FailureRegistrationError, err.Error())
			}
			continue
		}
		result.Registered = append(result.Registered, created)
		if remaining > 0 {
			remaining--
		}
	}

	result.SuccessCount = len(result.Registered)
	result.FailCount = len(result.Failures)
	result.Message = fmt.Sprintf("%d de %d caixas registradas.", result.SuccessCount, result.TotalRequested)

	s.logger.Info("Registro em lote concluído.", map[string]interface{}{
		"tenant_id": actor.TenantID, "total": result.TotalRequested, "success": result.SuccessCount, "failed": result.FailCount,
	})
	return result, nil
}

// GetCrate busca uma caixa pelo ID.
func (s *Service) GetCrate(ctx context.Context, actor domain.Actor, id string) (domain.Crate, error) {
	if err := validateID(id, "da caixa"); err != nil {
		return domain.Crate{}, err
	}
	return s.crates.FindCrate(ctx, actor.TenantID, id)
}

// ListCrates lista as caixas do tenant; status vazio não filtra.
func (s *Service) ListCrates(ctx context.Context, actor domain.Actor, status string) ([]domain.Crate, error) {
	filter := domain.CrateFilter{Status: domain.CrateStatus(strings.ToUpper(status))}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("Status de caixa inválido: '%s'.", status))
	}

	crates, err := s.crates.ListCrates(ctx, actor.TenantID, filter)
	if err != nil {
		s.logger.Error("Falha ao listar caixas no repositório.", err)
		return nil, err
	}
	return crates, nil
}

// UpdateCrate altera nfcUid e/ou tipo de uma caixa que não esteja inativa.
func (s *Service) UpdateCrate(ctx context.Context, actor domain.Actor, id string, upd domain.CrateUpdate) (domain.Crate, error) {
	s.logger.Debug("Iniciando atualização de caixa no serviço.", map[string]interface{}{"tenant_id": actor.TenantID, "crate_id": id})

	if err := validateID(id, "da caixa"); err != nil {
		return domain.Crate{}, err
	}
	crate, err := s.crates.FindCrate(ctx, actor.TenantID, id)
	if err != nil {
		return domain.Crate{}, err
	}
	if crate.Status == domain.CrateInactive {
		return domain.Crate{}, apperror.NewStateConflictError(fmt.Sprintf("A caixa %s está inativa e não pode ser alterada.", crate.NfcUID))
	}

	if upd.NfcUID != nil {
		uid, err := NormalizeNfcUID(*upd.NfcUID)
		if err != nil {
			return domain.Crate{}, err
		}
		crate.NfcUID = uid
	}
	if upd.CrateTypeID != nil {
		if err := s.checkCrateType(ctx, actor.TenantID, upd.CrateTypeID); err != nil {
			return domain.Crate{}, err
		}
		crate.CrateTypeID = upd.CrateTypeID
	}
	crate.UpdatedAt = s.now()

	updated, err := s.crates.UpdateCrate(ctx, crate)
	if err != nil {
		return domain.Crate{}, err
	}

	s.logger.Info("Caixa atualizada com sucesso.", map[string]interface{}{"tenant_id": actor.TenantID, "crate_id": updated.ID})
	return updated, nil
}

// LookupByNfcUID retorna a caixa e o conteúdo atual a partir da tag lida.
func (s *Service) LookupByNfcUID(ctx context.Context, actor domain.Actor, nfcUID string) (domain.CrateDetails, error) {
	uid, err := NormalizeNfcUID(nfcUID)
	if err != nil {
		return domain.CrateDetails{}, err
	}
	crate, err := s.crates.FindCrateByNfcUID(ctx, actor.TenantID, uid)
	if err != nil {
		return domain.CrateDetails{}, err
	}
	content, err := s.crates.FindContent(ctx, actor.TenantID, crate.ID)
	if err != nil {
		return domain.CrateDetails{}, err
	}
	return domain.CrateDetails{Crate: crate, Content: content}, nil
}

// DeactivateCrate move a caixa para INACTIVE; o conteúdo de uma caixa em uso é descartado.
func (s *Service) DeactivateCrate(ctx context.Context, actor domain.Actor, id, reason string) (domain.Crate, error) {
	s.logger.Debug("Iniciando desativação de caixa.", map[string]interface{}{"tenant_id": actor.TenantID, "crate_id": id})

	if err := validateID(id, "da caixa"); err != nil {
		return domain.Crate{}, err
	}

	var res ledger.DeactivationResult
	err := s.tx.InTx(ctx, func(l ledger.Ledger) error {
		var err error
		res, err = s.engine.Deactivate(ctx, l, actor.TenantID, id, actor.UserID, strings.TrimSpace(reason))
		return err
	})
	if err != nil {
		s.logger.Warn("Falha ao desativar caixa.", map[string]interface{}{"tenant_id": actor.TenantID, "crate_id": id, "error": err.Error()})
		return domain.Crate{}, err
	}

	if res.ContentCleared {
		s.inventory.InvalidateSummary(ctx, actor.TenantID)
	}
	s.logger.Info("Caixa desativada com sucesso.", map[string]interface{}{
		"tenant_id": actor.TenantID, "crate_id": id, "content_cleared": res.ContentCleared,
	})
	return res.Crate, nil
}

// BatchDeactivate desativa cada caixa de forma independente e devolve o relatório.
func (s *Service) BatchDeactivate(ctx context.Context, actor domain.Actor, req domain.BatchDeactivateRequest) (domain.BatchDeactivateResult, error) {
	if len(req.CrateIDs) == 0 {
		return domain.BatchDeactivateResult{}, apperror.NewValidationError("A lista de caixas não pode ser vazia.")
	}
	if len(req.CrateIDs) > maxBatchSize {
		return domain.BatchDeactivateResult{}, apperror.NewValidationError(fmt.Sprintf("O lote aceita no máximo %d caixas.", maxBatchSize))
	}

	result := domain.BatchDeactivateResult{
		TotalRequested: len(req.CrateIDs),
		Deactivated:    make([]string, 0, len(req.CrateIDs)),
		Failures:       make([]domain.BatchFailure, 0),
	}
	for i, id := range req.CrateIDs {
		_, err := s.DeactivateCrate(ctx, actor, id, req.Reason)
		if err == nil {
			result.Deactivated = append(result.Deactivated, id)
			continue
		}
		code := domain.FailureDeactivationError
		switch err.(type) {
		case *apperror.NotFoundError, *apperror.ValidationError:
			code = domain.FailureNotFound
		case *apperror.StateConflictError:
			code = domain.FailureAlreadyInactive
		}
		result.Failures = append(result.Failures, domain.BatchFailure{Index: i, CrateID: id, Code: code, Message: err.Error()})
	}

	result.SuccessCount = len(result.Deactivated)
	result.FailCount = len(result.Failures)
	result.Message = fmt.Sprintf("%d de %d caixas desativadas.", result.SuccessCount, result.TotalRequested)

	s.logger.Info("Desativação em lote concluída.", map[string]interface{}{
		"tenant_id": actor.TenantID, "total": result.TotalRequested, "success": result.SuccessCount, "failed": result.FailCount,
	})
	return result, nil
}
