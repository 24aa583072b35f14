package shipmentservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/ledger"
	"cratetrack/internal/pkg/logger"
)

// Tentativas de gerar um número de ordem inédito.
const orderNumberAttempts = 3

// OrderRepository define o contrato que o Serviço de Ordens espera da camada de Persistência.
// Os métodos que recebem OrderGuard avaliam a guarda com a ordem bloqueada.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order domain.ShipmentOrder) (domain.ShipmentOrder, error)
	FindOrder(ctx context.Context, tenantID, id string) (domain.ShipmentOrder, error)
	ListOrders(ctx context.Context, tenantID string, filter domain.OrderFilter) ([]domain.OrderSummary, error)
	FindItem(ctx context.Context, tenantID, itemID string) (domain.ShipmentOrderItem, error)
	AddItem(ctx context.Context, tenantID, orderID string, item domain.ShipmentOrderItem, guard domain.OrderGuard) (domain.ShipmentOrderItem, error)
	AddScan(ctx context.Context, tenantID, orderID string, scan domain.ShipmentOrderItemScan, guard domain.OrderGuard) (domain.ShipmentOrderItemScan, error)
	CancelOrder(ctx context.Context, tenantID, orderID string, guard domain.OrderGuard, at time.Time) (domain.ShipmentOrder, error)
	DeleteOrder(ctx context.Context, tenantID, orderID string, guard domain.OrderGuard) error
}

// CrateFinder resolve a caixa a partir da tag NFC.
type CrateFinder interface {
	FindCrateByNfcUID(ctx context.Context, tenantID, nfcUID string) (domain.Crate, error)
}

// CatalogLookup consulta as referências de catálogo usadas por itens e leituras.
type CatalogLookup interface {
	FindGoods(ctx context.Context, tenantID, id string) (domain.Goods, error)
	FindSupplier(ctx context.Context, tenantID, id string) (domain.Supplier, error)
	FindLocation(ctx context.Context, tenantID, id string) (domain.Location, error)
}

// InventoryInvalidator descarta o resumo de inventário em cache do tenant.
type InventoryInvalidator interface {
	InvalidateSummary(ctx context.Context, tenantID string)
}

// Service implementa a máquina de estados das ordens de movimentação.
type Service struct {
	orders    OrderRepository
	crates    CrateFinder
	catalog   CatalogLookup
	tx        ledger.Transactor
	engine    *ledger.Engine
	inventory InventoryInvalidator
	logger    logger.Logger
	now       func() time.Time
}

// NewService cria e retorna uma nova instância do Serviço de Ordens.
func NewService(orders OrderRepository, crates CrateFinder, catalog CatalogLookup, tx ledger.Transactor,
	engine *ledger.Engine, inventory InventoryInvalidator, logger logger.Logger) *Service {
	return &Service{
		orders:    orders,
		crates:    crates,
		catalog:   catalog,
		tx:        tx,
		engine:    engine,
		inventory: inventory,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock substitui o relógio (usado em testes).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func validateID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("O ID %s deve ser um UUID válido.", what))
	}
	return nil
}

// NewOrderNumber gera {prefixo}{yyyyMMddHHmmss}{4 caracteres aleatórios}.
func NewOrderNumber(t domain.OrderType, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return t.Prefix() + at.Format("20060102150405") + suffix
}

// CreateOrder cria a ordem em PENDING.
func (s *Service) CreateOrder(ctx context.Context, actor domain.Actor, req domain.CreateOrderRequest) (domain.ShipmentOrder, error) {
	s.logger.Debug("Iniciando criação de ordem no serviço.", map[string]interface{}{"tenant_id": actor.TenantID, "type": req.Type})

	req.Type = domain.OrderType(strings.ToUpper(string(req.Type)))
	if !req.Type.Valid() {
		return domain.ShipmentOrder{}, apperror.NewValidationError(
			fmt.Sprintf("Tipo de ordem inválido: '%s'. Use INBOUND, OUTBOUND, INBOUND_ADJUSTMENT ou OUTBOUND_ADJUSTMENT.", req.Type))
	}
	priority := domain.Priority(strings.ToUpper(string(req.Priority)))
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !priority.Valid() {
		return domain.ShipmentOrder{}, apperror.NewValidationError(fmt.Sprintf("Prioridade inválida: '%s'.", req.Priority))
	}

	now := s.now()
	order := domain.ShipmentOrder{
		TenantID:             actor.TenantID,
		Type:                 req.Type,
		Status:               domain.OrderPending,
		Priority:             priority,
		Notes:                strings.TrimSpace(req.Notes),
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		CreatedByUserID:      actor.UserID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	var err error
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		order.ID = uuid.NewString()
		order.OrderNumber = NewOrderNumber(order.Type, now)

		var created domain.ShipmentOrder
		created, err = s.orders.CreateOrder(ctx, order)
		if err == nil {
			s.logger.Info("Ordem criada com sucesso.", map[string]interface{}{
				"tenant_id": actor.TenantID, "order_id": created.ID, "order_number": created.OrderNumber,
			})
			return created, nil
		}
		if !apperror.IsDuplicateKey(err) {
			s.logger.Error("Falha ao criar ordem no repositório.", err)
			return domain.ShipmentOrder{}, err
		}
		s.logger.Warn("Número de ordem repetido, gerando outro.", map[string]interface{}{"order_number": order.OrderNumber, "attempt": attempt})
	}
	return domain.ShipmentOrder{}, err
}

// ListOrders lista as ordens do tenant com filtros opcionais de tipo e status.
func (s *Service) ListOrders(ctx context.Context, actor domain.Actor, orderType, status string) ([]domain.OrderSummary, error) {
	filter := domain.OrderFilter{
		Type:   domain.OrderType(strings.ToUpper(orderType)),
		Status: domain.OrderStatus(strings.ToUpper(status)),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("Tipo de ordem inválido: '%s'.", orderType))
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("Status de ordem inválido: '%s'.", status))
	}
	return s.orders.ListOrders(ctx, actor.TenantID, filter)
}

// GetOrder retorna a ordem com itens e leituras.
func (s *Service) GetOrder(ctx context.Context, actor domain.Actor, id string) (domain.ShipmentOrder, error) {
	if err := validateID(id, "da ordem"); err != nil {
		return domain.ShipmentOrder{}, err
	}
	return s.orders.FindOrder(ctx, actor.TenantID, id)
}

// AddItem inclui uma linha na ordem; só é permitido enquanto a ordem está PENDING.
func (s *Service) AddItem(ctx context.Context, actor domain.Actor, orderID string, req domain.AddItemRequest) (domain.ShipmentOrderItem, error) {
	s.logger.Debug("Iniciando inclusão de item.", map[string]interface{}{"tenant_id": actor.TenantID, "order_id": orderID, "goods_id": req.GoodsID})

	if err := validateID(orderID, "da ordem"); err != nil {
		return domain.ShipmentOrderItem{}, err
	}
	if err := validateID(req.GoodsID, "da mercadoria"); err != nil {
		return domain.ShipmentOrderItem{}, err
	}
	if !req.ExpectedQuantity.IsPositive() {
		return domain.ShipmentOrderItem{}, apperror.NewValidationError("A quantidade esperada deve ser maior que zero.")
	}
	if !domain.FitsQuantity(req.ExpectedQuantity) {
		return domain.ShipmentOrderItem{}, apperror.NewValidationError("A quantidade esperada aceita no máximo duas casas decimais e deve ser menor que 100000000.")
	}
	if _, err := s.catalog.FindGoods(ctx, actor.TenantID, req.GoodsID); err != nil {
		return domain.ShipmentOrderItem{}, err
	}
	if req.SupplierID != nil {
		if err := validateID(*req.SupplierID, "do fornecedor"); err != nil {
			return domain.ShipmentOrderItem{}, err
		}
		if _, err := s.catalog.FindSupplier(ctx, actor.TenantID, *req.SupplierID); err != nil {
			return domain.ShipmentOrderItem{}, err
		}
	}

	item := domain.ShipmentOrderItem{
		ID:               uuid.NewString(),
		GoodsID:          req.GoodsID,
		SupplierID:       req.SupplierID,
		ExpectedQuantity: req.ExpectedQuantity,
		BatchNumber:      strings.TrimSpace(req.BatchNumber),
		ProductionDate:   req.ProductionDate,
		CreatedAt:        s.now(),
	}
	created, err := s.orders.AddItem(ctx, actor.TenantID, orderID, item, func(o domain.ShipmentOrder) error {
		if !o.Status.AcceptsItems() {
			return apperror.NewStateConflictError(
				fmt.Sprintf("A ordem %s está %s; itens só podem ser incluídos em ordens PENDING.", o.OrderNumber, o.Status))
		}
		return nil
	})
	if err != nil {
		return domain.ShipmentOrderItem{}, err
	}

	s.logger.Info("Item incluído na ordem.", map[string]interface{}{"tenant_id": actor.TenantID, "order_id": orderID, "item_id": created.ID})
	return created, nil
}

// AddScan registra a leitura de uma caixa para o item; a primeira leitura leva a ordem a IN_PROGRESS.
func (s *Service) AddScan(ctx context.Context, actor domain.Actor, itemID string, req domain.AddScanRequest) (domain.ShipmentOrderItemScan, error) {
	s.logger.Debug("Iniciando registro de leitura.", map[string]interface{}{"tenant_id": actor.TenantID, "item_id": itemID, "nfc_uid": req.NfcUID})

	if err := validateID(itemID, "do item"); err != nil {
		return domain.ShipmentOrderItemScan{}, err
	}
	uid := strings.ToUpper(strings.TrimSpace(req.NfcUID))
	if uid == "" {
		return domain.ShipmentOrderItemScan{}, apperror.NewValidationError("O nfcUid da caixa é obrigatório.")
	}
	if !req.ActualQuantity.IsPositive() {
		return domain.ShipmentOrderItemScan{}, apperror.NewValidationError("A quantidade lida deve ser maior que zero.")
	}
	if !domain.FitsQuantity(req.ActualQuantity) {
		return domain.ShipmentOrderItemScan{}, apperror.NewValidationError("A quantidade lida aceita no máximo duas casas decimais e deve ser menor que 100000000.")
	}
	if err := validateID(req.LocationID, "da localização"); err != nil {
		return domain.ShipmentOrderItemScan{}, err
	}

	item, err := s.orders.FindItem(ctx, actor.TenantID, itemID)
	if err != nil {
		return domain.ShipmentOrderItemScan{}, err
	}
	if _, err := s.catalog.FindLocation(ctx, actor.TenantID, req.LocationID); err != nil {
		return domain.ShipmentOrderItemScan{}, err
	}
	crate, err := s.crates.FindCrateByNfcUID(ctx, actor.TenantID, uid)
	if err != nil {
		return domain.ShipmentOrderItemScan{}, err
	}
	if crate.Status == domain.CrateInactive {
		return domain.ShipmentOrderItemScan{}, apperror.NewStateConflictError(fmt.Sprintf("A caixa %s está inativa.", crate.NfcUID))
	}

	scannedAt := s.now()
	if req.ScannedAt != nil {
		scannedAt = req.ScannedAt.UTC()
	}
	scan := domain.ShipmentOrderItemScan{
		ID:              uuid.NewString(),
		OrderItemID:     item.ID,
		CrateID:         crate.ID,
		CrateNfcUID:     crate.NfcUID,
		ActualQuantity:  req.ActualQuantity,
		LocationID:      req.LocationID,
		ScannedByUserID: actor.UserID,
		ScannedAt:       scannedAt,
	}
	created, err := s.orders.AddScan(ctx, actor.TenantID, item.OrderID, scan, func(o domain.ShipmentOrder) error {
		if !o.Status.AcceptsScans() {
			return apperror.NewStateConflictError(
				fmt.Sprintf("A ordem %s está %s e não aceita leituras.", o.OrderNumber, o.Status))
		}
		return nil
	})
	if err != nil {
		if apperror.IsDuplicateKey(err) {
			s.logger.Warn("Leitura repetida rejeitada.", map[string]interface{}{"item_id": itemID, "crate_id": crate.ID})
		}
		return domain.ShipmentOrderItemScan{}, err
	}

	s.logger.Info("Leitura registrada.", map[string]interface{}{
		"tenant_id": actor.TenantID, "order_id": item.OrderID, "item_id": item.ID, "crate_id": crate.ID,
	})
	return created, nil
}

// CompleteOrder aplica todas as leituras ao conteúdo das caixas numa única transação.
func (s *Service) CompleteOrder(ctx context.Context, actor domain.Actor, id string) (domain.ShipmentOrder, error) {
	s.logger.Debug("Iniciando conclusão de ordem.", map[string]interface{}{"tenant_id": actor.TenantID, "order_id": id})

	if err := validateID(id, "da ordem"); err != nil {
		return domain.ShipmentOrder{}, err
	}

	var res ledger.CompletionResult
	err := s.tx.InTx(ctx, func(l ledger.Ledger) error {
		var err error
		res, err = s.engine.Complete(ctx, l, actor.TenantID, id, actor.UserID)
		return err
	})
	if err != nil {
		s.logger.Warn("Conclusão da ordem falhou; nenhuma alteração persistida.", map[string]interface{}{
			"tenant_id": actor.TenantID, "order_id": id, "error": err.Error(),
		})
		return domain.ShipmentOrder{}, err
	}

	s.inventory.InvalidateSummary(ctx, actor.TenantID)
	s.logger.Info("Ordem concluída com sucesso.", map[string]interface{}{
		"tenant_id": actor.TenantID, "order_id": id, "processed_scans": res.ProcessedScans,
	})
	return s.orders.FindOrder(ctx, actor.TenantID, id)
}

// CancelOrder cancela uma ordem ainda não concluída.
func (s *Service) CancelOrder(ctx context.Context, actor domain.Actor, id string) (domain.ShipmentOrder, error) {
	if err := validateID(id, "da ordem"); err != nil {
		return domain.ShipmentOrder{}, err
	}
	order, err := s.orders.CancelOrder(ctx, actor.TenantID, id, func(o domain.ShipmentOrder) error {
		if !o.Status.Cancelable() {
			return apperror.NewStateConflictError(fmt.Sprintf("A ordem %s está %s e não pode ser cancelada.", o.OrderNumber, o.Status))
		}
		return nil
	}, s.now())
	if err != nil {
		return domain.ShipmentOrder{}, err
	}

	s.logger.Info("Ordem cancelada.", map[string]interface{}{"tenant_id": actor.TenantID, "order_id": id})
	return order, nil
}

// DeleteOrder remove a ordem com itens e leituras; ordens concluídas são preservadas.
func (s *Service) DeleteOrder(ctx context.Context, actor domain.Actor, id string) error {
	if err := validateID(id, "da ordem"); err != nil {
		return err
	}
	err := s.orders.DeleteOrder(ctx, actor.TenantID, id, func(o domain.ShipmentOrder) error {
		if o.Status == domain.OrderCompleted {
			return apperror.NewStateConflictError(fmt.Sprintf("A ordem %s está concluída e não pode ser removida.", o.OrderNumber))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Ordem removida.", map[string]interface{}{"tenant_id": actor.TenantID, "order_id": id})
	return nil
}
