package shipment

import (
	"context"
	"net/http"

	"cratetrack/internal/api/response"
	"cratetrack/internal/domain"
	"cratetrack/internal/pkg/logger"
)

// ShipmentService define o contrato que o Handler espera da camada de Serviço.
type ShipmentService interface {
	CreateOrder(ctx context.Context, actor domain.Actor, req domain.CreateOrderRequest) (domain.ShipmentOrder, error)
	ListOrders(ctx context.Context, actor domain.Actor, orderType, status string) ([]domain.OrderSummary, error)
	GetOrder(ctx context.Context, actor domain.Actor, id string) (domain.ShipmentOrder, error)
	AddItem(ctx context.Context, actor domain.Actor, orderID string, req domain.AddItemRequest) (domain.ShipmentOrderItem, error)
	AddScan(ctx context.Context, actor domain.Actor, itemID string, req domain.AddScanRequest) (domain.ShipmentOrderItemScan, error)
	CompleteOrder(ctx context.Context, actor domain.Actor, id string) (domain.ShipmentOrder, error)
	CancelOrder(ctx context.Context, actor domain.Actor, id string) (domain.ShipmentOrder, error)
	DeleteOrder(ctx context.Context, actor domain.Actor, id string) error
}

// Handler agrupa os handlers de ordens de movimentação.
type Handler struct {
	Service ShipmentService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ShipmentService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, data interface{}, err error, status int) {
	response.Handle(w, r, h.Logger, data, err, status)
}

// CreateOrderHandler lida com a requisição POST /api/v1/shipment-orders.
// @Summary Cria uma ordem de movimentação
// @Description Cria a ordem em PENDING com número {prefixo}{yyyyMMddHHmmss}{4 caracteres}.
// @Tags shipment-orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param order body domain.CreateOrderRequest true "Tipo, prioridade e observações"
// @Success 201 {object} domain.ShipmentOrder
// @Failure 400 {object} domain.ErrorResponse "Tipo ou prioridade inválidos"
// @Router /shipment-orders [post]
func (h *Handler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	var req domain.CreateOrderRequest
	if err := response.Decode(r, &req, false); err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	order, err := h.Service.CreateOrder(r.Context(), actor, req)
	h.respond(w, r, order, err, http.StatusCreated)
}

// ListOrdersHandler lida com a requisição GET /api/v1/shipment-orders.
// @Summary Lista ordens
// @Tags shipment-orders
// @Produce json
// @Security BearerAuth
// @Param type query string false "INBOUND, OUTBOUND, INBOUND_ADJUSTMENT ou OUTBOUND_ADJUSTMENT"
// @Param status query string false "PENDING, IN_PROGRESS, COMPLETED ou CANCELED"
// @Success 200 {array} domain.OrderSummary
// @Failure 400 {object} domain.ErrorResponse "Filtro inválido"
// @Router /shipment-orders [get]
func (h *Handler) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	q := r.URL.Query()
	orders, err := h.Service.ListOrders(r.Context(), actor, q.Get("type"), q.Get("status"))
	h.respond(w, r, orders, err, http.StatusOK)
}

// GetOrderHandler lida com a requisição GET /api/v1/shipment-orders/{id}.
// @Summary Detalha uma ordem com itens e leituras
// @Tags shipment-orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da ordem"
// @Success 200 {object} domain.ShipmentOrder
// @Failure 404 {object} domain.ErrorResponse "Ordem não encontrada"
// @Router /shipment-orders/{id} [get]
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	order, err := h.Service.GetOrder(r.Context(), actor, r.PathValue("id"))
	h.respond(w, r, order, err, http.StatusOK)
}

// AddItemHandler lida com a requisição POST /api/v1/shipment-orders/{id}/items.
// @Summary Inclui um item na ordem
// @Description Só permitido enquanto a ordem está PENDING.
// @Tags shipment-orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da ordem"
// @Param item body domain.AddItemRequest true "Item"
// @Success 201 {object} domain.ShipmentOrderItem
// @Failure 404 {object} domain.ErrorResponse "Ordem ou mercadoria não encontrada"
// @Failure 409 {object} domain.ErrorResponse "Ordem fora de PENDING"
// @Router /shipment-orders/{id}/items [post]
func (h *Handler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	var req domain.AddItemRequest
	if err := response.Decode(r, &req, false); err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	item, err := h.Service.AddItem(r.Context(), actor, r.PathValue("id"), req)
	h.respond(w, r, item, err, http.StatusCreated)
}

// AddScanHandler lida com a requisição POST /api/v1/shipment-order-items/{itemId}/scans.
// @Summary Registra a leitura NFC de uma caixa para o item
// @Description A primeira leitura move a ordem para IN_PROGRESS. Uma caixa só pode ser lida uma vez por ordem.
// @Tags shipment-orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "ID do item"
// @Param scan body domain.AddScanRequest true "Leitura"
// @Success 201 {object} domain.ShipmentOrderItemScan
// @Failure 404 {object} domain.ErrorResponse "Item, caixa ou localização não encontrados"
// @Failure 409 {object} domain.ErrorResponse "Leitura repetida, caixa inativa ou ordem encerrada"
// @Router /shipment-order-items/{itemId}/scans [post]
func (h *Handler) AddScanHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	var req domain.AddScanRequest
	if err := response.Decode(r, &req, false); err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	scan, err := h.Service.AddScan(r.Context(), actor, r.PathValue("itemId"), req)
	h.respond(w, r, scan, err, http.StatusCreated)
}

// CompleteOrderHandler lida com a requisição POST /api/v1/shipment-orders/{id}/complete.
// @Summary Conclui a ordem aplicando todas as leituras
// @Description Tudo ou nada: qualquer leitura inválida aborta a conclusão sem alterar conteúdo, caixas ou a ordem.
// @Tags shipment-orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da ordem"
// @Success 200 {object} domain.ShipmentOrder
// @Failure 400 {object} domain.ErrorResponse "Ordem sem leituras"
// @Failure 404 {object} domain.ErrorResponse "Ordem não encontrada"
// @Failure 409 {object} domain.ErrorResponse "Estado da ordem ou de alguma caixa não permite a conclusão"
// @Router /shipment-orders/{id}/complete [post]
func (h *Handler) CompleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	order, err := h.Service.CompleteOrder(r.Context(), actor, r.PathValue("id"))
	h.respond(w, r, order, err, http.StatusOK)
}

// CancelOrderHandler lida com a requisição POST /api/v1/shipment-orders/{id}/cancel.
// @Summary Cancela uma ordem não concluída
// @Tags shipment-orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da ordem"
// @Success 200 {object} domain.ShipmentOrder
// @Failure 409 {object} domain.ErrorResponse "Ordem já concluída ou cancelada"
// @Router /shipment-orders/{id}/cancel [post]
func (h *Handler) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	order, err := h.Service.CancelOrder(r.Context(), actor, r.PathValue("id"))
	h.respond(w, r, order, err, http.StatusOK)
}

// DeleteOrderHandler lida com a requisição DELETE /api/v1/shipment-orders/{id}.
// @Summary Remove uma ordem com itens e leituras
// @Tags shipment-orders
// @Security BearerAuth
// @Param id path string true "ID da ordem"
// @Success 204 "Removida"
// @Failure 409 {object} domain.ErrorResponse "Ordem concluída"
// @Router /shipment-orders/{id} [delete]
func (h *Handler) DeleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	err = h.Service.DeleteOrder(r.Context(), actor, r.PathValue("id"))
	h.respond(w, r, nil, err, http.StatusNoContent)
}
