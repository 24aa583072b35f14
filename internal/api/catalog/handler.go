package catalog

import (
	"context"
	"net/http"

	"cratetrack/internal/api/response"
	"cratetrack/internal/domain"
	"cratetrack/internal/pkg/logger"
)

// CatalogService define o contrato do cadastro de mercadorias, fornecedores e localizações.
type CatalogService interface {
	CreateGoods(ctx context.Context, actor domain.Actor, g domain.Goods) (domain.Goods, error)
	CreateSupplier(ctx context.Context, actor domain.Actor, s domain.Supplier) (domain.Supplier, error)
	CreateLocation(ctx context.Context, actor domain.Actor, loc domain.Location) (domain.Location, error)
	ListGoods(ctx context.Context, actor domain.Actor) ([]domain.Goods, error)
	ListSuppliers(ctx context.Context, actor domain.Actor) ([]domain.Supplier, error)
	ListLocations(ctx context.Context, actor domain.Actor) ([]domain.Location, error)
}

// Handler agrupa os handlers do catálogo.
type Handler struct {
	Service CatalogService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(svc CatalogService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// create decodifica o corpo em T e chama fn com o ator autenticado.
func create[T any](h *Handler, w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.Actor, T) (T, error)) {
	actor, err := response.Actor(r)
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, 0)
		return
	}

	var body T
	if err := response.Decode(r, &body, false); err != nil {
		response.Handle(w, r, h.Logger, nil, err, 0)
		return
	}

	created, err := fn(r.Context(), actor, body)
	response.Handle(w, r, h.Logger, created, err, http.StatusCreated)
}

func list[T any](h *Handler, w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.Actor) ([]T, error)) {
	actor, err := response.Actor(r)
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, 0)
		return
	}

	items, err := fn(r.Context(), actor)
	response.Handle(w, r, h.Logger, items, err, http.StatusOK)
}

// CreateGoodsHandler lida com a requisição POST /api/v1/goods.
// @Summary Cadastra uma mercadoria
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param goods body domain.Goods true "sku, name e unit"
// @Success 201 {object} domain.Goods
// @Failure 409 {object} domain.ErrorResponse "SKU já cadastrado"
// @Router /goods [post]
func (h *Handler) CreateGoodsHandler(w http.ResponseWriter, r *http.Request) {
	create(h, w, r, h.Service.CreateGoods)
}

// ListGoodsHandler lida com a requisição GET /api/v1/goods.
// @Summary Lista as mercadorias
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Goods
// @Router /goods [get]
func (h *Handler) ListGoodsHandler(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, h.Service.ListGoods)
}

// CreateSupplierHandler lida com a requisição POST /api/v1/suppliers.
// @Summary Cadastra um fornecedor
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param supplier body domain.Supplier true "name"
// @Success 201 {object} domain.Supplier
// @Router /suppliers [post]
func (h *Handler) CreateSupplierHandler(w http.ResponseWriter, r *http.Request) {
	create(h, w, r, h.Service.CreateSupplier)
}

// ListSuppliersHandler lida com a requisição GET /api/v1/suppliers.
// @Summary Lista os fornecedores
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Supplier
// @Router /suppliers [get]
func (h *Handler) ListSuppliersHandler(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, h.Service.ListSuppliers)
}

// CreateLocationHandler lida com a requisição POST /api/v1/locations.
// @Summary Cadastra uma localização
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param location body domain.Location true "code e name"
// @Success 201 {object} domain.Location
// @Failure 409 {object} domain.ErrorResponse "Código já cadastrado"
// @Router /locations [post]
func (h *Handler) CreateLocationHandler(w http.ResponseWriter, r *http.Request) {
	create(h, w, r, h.Service.CreateLocation)
}

// ListLocationsHandler lida com a requisição GET /api/v1/locations.
// @Summary Lista as localizações
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Location
// @Router /locations [get]
func (h *Handler) ListLocationsHandler(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, h.Service.ListLocations)
}
