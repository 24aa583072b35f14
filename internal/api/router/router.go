package router

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "cratetrack/docs" // registra a especificação gerada pelo swag

	"cratetrack/internal/api/catalog"
	"cratetrack/internal/api/crate"
	"cratetrack/internal/api/inventory"
	"cratetrack/internal/api/shipment"
	"cratetrack/internal/api/user"
	"cratetrack/internal/domain"
	"cratetrack/internal/pkg/middleware"
)

// Handlers reúne os handlers já inicializados por injeção de dependências.
type Handlers struct {
	Crate     *crate.Handler
	Shipment  *shipment.Handler
	Inventory *inventory.Handler
	Catalog   *catalog.Handler
	User      *user.Handler
}

// NewRouter configura e retorna o roteador HTTP principal.
// rateLimit é opcional (nil quando o Redis não está configurado).
func NewRouter(h Handlers, validator middleware.TokenValidator, rateLimit func(http.Handler) http.Handler) http.Handler {
	api := http.NewServeMux()

	// Leitura para qualquer role autenticada; escrita só para admin e operator.
	writer := middleware.RequireRoles(domain.RoleAdmin, domain.RoleOperator)
	admin := middleware.RequireRoles(domain.RoleAdmin)
	read := func(pattern string, fn http.HandlerFunc) { api.Handle(pattern, fn) }
	write := func(pattern string, fn http.HandlerFunc) { api.Handle(pattern, writer(fn)) }

	// --- Caixas ---
	write("POST /api/v1/crates", h.Crate.RegisterCrateHandler)
	read("GET /api/v1/crates", h.Crate.ListCratesHandler)
	read("GET /api/v1/crates/nfc/lookup", h.Crate.LookupHandler)
	read("GET /api/v1/crates/{id}", h.Crate.GetCrateHandler)
	write("PUT /api/v1/crates/{id}", h.Crate.UpdateCrateHandler)
	write("PUT /api/v1/crates/{id}/deactivate", h.Crate.DeactivateCrateHandler)
	write("POST /api/v1/batch/crates/register", h.Crate.BatchRegisterHandler)
	write("POST /api/v1/batch/crates/import", h.Crate.ImportCratesHandler)
	write("PUT /api/v1/batch/crates/deactivate", h.Crate.BatchDeactivateHandler)

	// --- Tipos de caixa ---
	write("POST /api/v1/crate-types", h.Crate.CreateCrateTypeHandler)
	read("GET /api/v1/crate-types", h.Crate.ListCrateTypesHandler)
	write("PUT /api/v1/crate-types/{id}", h.Crate.UpdateCrateTypeHandler)
	write("DELETE /api/v1/crate-types/{id}", h.Crate.DeleteCrateTypeHandler)

	// --- Ordens de movimentação ---
	write("POST /api/v1/shipment-orders", h.Shipment.CreateOrderHandler)
	read("GET /api/v1/shipment-orders", h.Shipment.ListOrdersHandler)
	read("GET /api/v1/shipment-orders/{id}", h.Shipment.GetOrderHandler)
	write("DELETE /api/v1/shipment-orders/{id}", h.Shipment.DeleteOrderHandler)
	write("POST /api/v1/shipment-orders/{id}/items", h.Shipment.AddItemHandler)
	write("POST /api/v1/shipment-orders/{id}/complete", h.Shipment.CompleteOrderHandler)
	write("POST /api/v1/shipment-orders/{id}/cancel", h.Shipment.CancelOrderHandler)
	write("POST /api/v1/shipment-order-items/{itemId}/scans", h.Shipment.AddScanHandler)

	// --- Inventário e histórico ---
	read("GET /api/v1/inventory/summary", h.Inventory.SummaryHandler)
	read("GET /api/v1/inventory/details", h.Inventory.DetailsHandler)
	read("GET /api/v1/history/crates", h.Inventory.CrateHistoryHandler)

	// --- Catálogo ---
	write("POST /api/v1/goods", h.Catalog.CreateGoodsHandler)
	read("GET /api/v1/goods", h.Catalog.ListGoodsHandler)
	write("POST /api/v1/suppliers", h.Catalog.CreateSupplierHandler)
	read("GET /api/v1/suppliers", h.Catalog.ListSuppliersHandler)
	write("POST /api/v1/locations", h.Catalog.CreateLocationHandler)
	read("GET /api/v1/locations", h.Catalog.ListLocationsHandler)

	// --- Usuários ---
	api.Handle("POST /api/v1/users", admin(http.HandlerFunc(h.User.CreateUserHandler)))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	mux.HandleFunc("POST /api/v1/auth/login", h.User.LoginUserHandler)
	mux.Handle("/api/v1/", middleware.NewAuthMiddleware(validator)(api))

	if rateLimit != nil {
		return rateLimit(mux)
	}
	return mux
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
