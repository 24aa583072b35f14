package inventory

import (
	"context"
	"net/http"

	"cratetrack/internal/api/response"
	"cratetrack/internal/domain"
	"cratetrack/internal/pkg/logger"
)

// InventoryService define as consultas de inventário e histórico usadas pelo Handler.
type InventoryService interface {
	Summary(ctx context.Context, actor domain.Actor) ([]domain.InventorySummaryLine, error)
	Details(ctx context.Context, actor domain.Actor, goodsID string) ([]domain.InventoryDetail, error)
	CrateHistory(ctx context.Context, actor domain.Actor, nfcUID string) ([]domain.OperationLog, error)
}

// Handler agrupa os handlers de consulta de inventário.
type Handler struct {
	Service InventoryService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(svc InventoryService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// SummaryHandler lida com a requisição GET /api/v1/inventory/summary.
// @Summary Resumo do inventário por mercadoria
// @Description Soma o conteúdo INBOUND das caixas agrupado por mercadoria.
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.InventorySummaryLine
// @Router /inventory/summary [get]
func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, 0)
		return
	}

	lines, err := h.Service.Summary(r.Context(), actor)
	response.Handle(w, r, h.Logger, lines, err, http.StatusOK)
}

// DetailsHandler lida com a requisição GET /api/v1/inventory/details.
// @Summary Caixas que guardam uma mercadoria
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param goodsId query string true "ID da mercadoria"
// @Success 200 {array} domain.InventoryDetail
// @Failure 400 {object} domain.ErrorResponse "goodsId inválido"
// @Router /inventory/details [get]
func (h *Handler) DetailsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, 0)
		return
	}

	details, err := h.Service.Details(r.Context(), actor, r.URL.Query().Get("goodsId"))
	response.Handle(w, r, h.Logger, details, err, http.StatusOK)
}

// CrateHistoryHandler lida com a requisição GET /api/v1/history/crates.
// @Summary Histórico de operações de uma caixa
// @Description Linhas do log de operações que tocaram a caixa, mais recentes primeiro.
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param nfcUid query string true "UID da tag NFC"
// @Success 200 {array} domain.OperationLog
// @Failure 404 {object} domain.ErrorResponse "Caixa não encontrada"
// @Router /history/crates [get]
func (h *Handler) CrateHistoryHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, 0)
		return
	}

	history, err := h.Service.CrateHistory(r.Context(), actor, r.URL.Query().Get("nfcUid"))
	response.Handle(w, r, h.Logger, history, err, http.StatusOK)
}
