package crate

import (
	"context"
	"net/http"

	"cratetrack/internal/api/response"
	"cratetrack/internal/domain"
	"cratetrack/internal/pkg/logger"
)

// CrateService define o contrato que o Handler espera da camada de Serviço.
type CrateService interface {
	RegisterCrate(ctx context.Context, actor domain.Actor, req domain.CrateRegistration) (domain.Crate, error)
	BatchRegister(ctx context.Context, actor domain.Actor, req domain.BatchRegisterRequest) (domain.BatchRegisterResult, error)
	GetCrate(ctx context.Context, actor domain.Actor, id string) (domain.Crate, error)
	ListCrates(ctx context.Context, actor domain.Actor, status string) ([]domain.Crate, error)
	UpdateCrate(ctx context.Context, actor domain.Actor, id string, upd domain.CrateUpdate) (domain.Crate, error)
	LookupByNfcUID(ctx context.Context, actor domain.Actor, nfcUID string) (domain.CrateDetails, error)
	DeactivateCrate(ctx context.Context, actor domain.Actor, id, reason string) (domain.Crate, error)
	BatchDeactivate(ctx context.Context, actor domain.Actor, req domain.BatchDeactivateRequest) (domain.BatchDeactivateResult, error)

	CreateCrateType(ctx context.Context, actor domain.Actor, req domain.CrateTypeRequest) (domain.CrateType, error)
	ListCrateTypes(ctx context.Context, actor domain.Actor) ([]domain.CrateType, error)
	UpdateCrateType(ctx context.Context, actor domain.Actor, id string, req domain.CrateTypeRequest) (domain.CrateType, error)
	DeleteCrateType(ctx context.Context, actor domain.Actor, id string) error
}

// Handler agrupa todos os métodos de Handler de caixas e tipos de caixa.
type Handler struct {
	Service CrateService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CrateService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, data interface{}, err error, status int) {
	response.Handle(w, r, h.Logger, data, err, status)
}

// RegisterCrateHandler lida com a requisição POST /api/v1/crates.
// @Summary Registra uma caixa
// @Description Registra uma caixa identificada pela tag NFC no tenant do usuário. O nfcUid é normalizado em maiúsculas.
// @Tags crates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param crate body domain.CrateRegistration true "Caixa a registrar"
// @Success 201 {object} domain.Crate
// @Failure 400 {object} domain.ErrorResponse "nfcUid inválido ou quota excedida"
// @Failure 404 {object} domain.ErrorResponse "Tipo de caixa não encontrado"
// @Failure 409 {object} domain.ErrorResponse "nfcUid já registrado"
// @Router /crates [post]
func (h *Handler) RegisterCrateHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	var req domain.CrateRegistration
	if err := response.Decode(r, &req, false); err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	crate, err := h.Service.RegisterCrate(r.Context(), actor, req)
	h.respond(w, r, crate, err, http.StatusCreated)
}

// BatchRegisterHandler lida com a requisição POST /api/v1/batch/crates/register.
// @Summary Registra caixas em lote
// @Description Cada item é validado e registrado de forma independente. Responde 207 quando algum item falha.
// @Tags crates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param batch body domain.BatchRegisterRequest true "Caixas a registrar"
// @Success 201 {object} domain.BatchRegisterResult "Todas registradas"
// @Success 207 {object} domain.BatchRegisterResult "Registro parcial"
// @Failure 400 {object} domain.ErrorResponse "Lista vazia ou acima do limite"
// @Router /batch/crates/register [post]
func (h *Handler) BatchRegisterHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	var req domain.BatchRegisterRequest
	if err := response.Decode(r, &req, false); err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	result, err := h.Service.BatchRegister(r.Context(), actor, req)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}
	h.respond(w, r, result, nil, response.BatchStatus(result.FailCount, http.StatusCreated))
}

// ListCratesHandler lida com a requisição GET /api/v1/crates.
// @Summary Lista caixas
// @Tags crates
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filtro de status (AVAILABLE, IN_USE, OUTBOUND, INACTIVE)"
// @Success 200 {array} domain.Crate
// @Failure 400 {object} domain.ErrorResponse "Status inválido"
// @Router /crates [get]
func (h *Handler) ListCratesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	crates, err := h.Service.ListCrates(r.Context(), actor, r.URL.Query().Get("status"))
	h.respond(w, r, crates, err, http.StatusOK)
}

// GetCrateHandler lida com a requisição GET /api/v1/crates/{id}.
// @Summary Busca uma caixa pelo ID
// @Tags crates
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da caixa"
// @Success 200 {object} domain.Crate
// @Failure 404 {object} domain.ErrorResponse "Caixa não encontrada"
// @Router /crates/{id} [get]
func (h *Handler) GetCrateHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	crate, err := h.Service.GetCrate(r.Context(), actor, r.PathValue("id"))
	h.respond(w, r, crate, err, http.StatusOK)
}

// UpdateCrateHandler lida com a requisição PUT /api/v1/crates/{id}.
// @Summary Atualiza nfcUid e/ou tipo de uma caixa
// @Tags crates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da caixa"
// @Param crate body domain.CrateUpdate true "Campos a alterar"
// @Success 200 {object} domain.Crate
// @Failure 409 {object} domain.ErrorResponse "Caixa inativa ou nfcUid em uso"
// @Router /crates/{id} [put]
func (h *Handler) UpdateCrateHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	var upd domain.CrateUpdate
	if err := response.Decode(r, &upd, false); err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	crate, err := h.Service.UpdateCrate(r.Context(), actor, r.PathValue("id"), upd)
	h.respond(w, r, crate, err, http.StatusOK)
}

// LookupHandler lida com a requisição GET /api/v1/crates/nfc/lookup.
// @Summary Consulta caixa e conteúdo pela tag NFC
// @Tags crates
// @Produce json
// @Security BearerAuth
// @Param nfcUid query string true "UID da tag NFC"
// @Success 200 {object} domain.CrateDetails "content é null quando a caixa está vazia"
// @Failure 404 {object} domain.ErrorResponse "Caixa não encontrada"
// @Router /crates/nfc/lookup [get]
func (h *Handler) LookupHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	details, err := h.Service.LookupByNfcUID(r.Context(), actor, r.URL.Query().Get("nfcUid"))
	h.respond(w, r, details, err, http.StatusOK)
}

// DeactivateCrateHandler lida com a requisição PUT /api/v1/crates/{id}/deactivate.
// @Summary Desativa uma caixa
// @Description Move a caixa para INACTIVE. O conteúdo de uma caixa IN_USE é removido e registrado no log.
// @Tags crates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da caixa"
// @Param body body domain.DeactivateRequest false "Motivo opcional"
// @Success 200 {object} domain.Crate
// @Failure 404 {object} domain.ErrorResponse "Caixa não encontrada"
// @Failure 409 {object} domain.ErrorResponse "Caixa já inativa"
// @Router /crates/{id}/deactivate [put]
func (h *Handler) DeactivateCrateHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	var req domain.DeactivateRequest
	if err := response.Decode(r, &req, true); err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	crate, err := h.Service.DeactivateCrate(r.Context(), actor, r.PathValue("id"), req.Reason)
	h.respond(w, r, crate, err, http.StatusOK)
}

// BatchDeactivateHandler lida com a requisição PUT /api/v1/batch/crates/deactivate.
// @Summary Desativa caixas em lote
// @Description Cada caixa é desativada em sua própria transação. Responde 207 quando alguma falha.
// @Tags crates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param batch body domain.BatchDeactivateRequest true "IDs das caixas"
// @Success 200 {object} domain.BatchDeactivateResult "Todas desativadas"
// @Success 207 {object} domain.BatchDeactivateResult "Desativação parcial"
// @Failure 400 {object} domain.ErrorResponse "Lista vazia ou acima do limite"
// @Router /batch/crates/deactivate [put]
func (h *Handler) BatchDeactivateHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	var req domain.BatchDeactivateRequest
	if err := response.Decode(r, &req, false); err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	result, err := h.Service.BatchDeactivate(r.Context(), actor, req)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}
	h.respond(w, r, result, nil, response.BatchStatus(result.FailCount, http.StatusOK))
}

// --- Tipos de caixa ---

// CreateCrateTypeHandler lida com a requisição POST /api/v1/crate-types.
// @Summary Cadastra um tipo de caixa
// @Tags crate-types
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param crateType body domain.CrateTypeRequest true "Tipo de caixa"
// @Success 201 {object} domain.CrateType
// @Failure 400 {object} domain.ErrorResponse "Campos inválidos"
// @Failure 409 {object} domain.ErrorResponse "Código já cadastrado"
// @Router /crate-types [post]
func (h *Handler) CreateCrateTypeHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	var req domain.CrateTypeRequest
	if err := response.Decode(r, &req, false); err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	ct, err := h.Service.CreateCrateType(r.Context(), actor, req)
	h.respond(w, r, ct, err, http.StatusCreated)
}

// ListCrateTypesHandler lida com a requisição GET /api/v1/crate-types.
// @Summary Lista os tipos de caixa
// @Tags crate-types
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.CrateType
// @Router /crate-types [get]
func (h *Handler) ListCrateTypesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	types, err := h.Service.ListCrateTypes(r.Context(), actor)
	h.respond(w, r, types, err, http.StatusOK)
}

// UpdateCrateTypeHandler lida com a requisição PUT /api/v1/crate-types/{id}.
// @Summary Atualiza um tipo de caixa
// @Tags crate-types
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do tipo"
// @Param crateType body domain.CrateTypeRequest true "Tipo de caixa"
// @Success 200 {object} domain.CrateType
// @Failure 404 {object} domain.ErrorResponse "Tipo não encontrado"
// @Router /crate-types/{id} [put]
func (h *Handler) UpdateCrateTypeHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	var req domain.CrateTypeRequest
	if err := response.Decode(r, &req, false); err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	ct, err := h.Service.UpdateCrateType(r.Context(), actor, r.PathValue("id"), req)
	h.respond(w, r, ct, err, http.StatusOK)
}

// DeleteCrateTypeHandler lida com a requisição DELETE /api/v1/crate-types/{id}.
// @Summary Remove um tipo de caixa
// @Description Remoção lógica; falha com 409 enquanto alguma caixa usa o tipo.
// @Tags crate-types
// @Security BearerAuth
// @Param id path string true "ID do tipo"
// @Success 204 "Removido"
// @Failure 409 {object} domain.ErrorResponse "Tipo em uso"
// @Router /crate-types/{id} [delete]
func (h *Handler) DeleteCrateTypeHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	err = h.Service.DeleteCrateType(r.Context(), actor, r.PathValue("id"))
	h.respond(w, r, nil, err, http.StatusNoContent)
}
