package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType é o tipo da ordem de movimentação.
type OrderType string

const (
	OrderInbound            OrderType = "INBOUND"
	OrderOutbound           OrderType = "OUTBOUND"
	OrderInboundAdjustment  OrderType = "INBOUND_ADJUSTMENT"
	OrderOutboundAdjustment OrderType = "OUTBOUND_ADJUSTMENT"
)

var orderPrefixes = map[OrderType]string{
	OrderInbound:            "IN",
	OrderOutbound:           "OUT",
	OrderInboundAdjustment:  "INA",
	OrderOutboundAdjustment: "OUTA",
}

// Valid informa se o tipo é um dos quatro tipos conhecidos.
func (t OrderType) Valid() bool {
	_, ok := orderPrefixes[t]
	return ok
}

// Prefix retorna o prefixo usado no número da ordem.
func (t OrderType) Prefix() string {
	return orderPrefixes[t]
}

// OrderStatus é o estado do ciclo de vida da ordem.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderInProgress OrderStatus = "IN_PROGRESS"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCanceled   OrderStatus = "CANCELED"
)

// Valid informa se o status é conhecido.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderInProgress, OrderCompleted, OrderCanceled:
		return true
	}
	return false
}

// AcceptsItems: itens só entram enquanto nenhuma leitura foi registrada.
func (s OrderStatus) AcceptsItems() bool { return s == OrderPending }

// AcceptsScans informa se leituras podem ser registradas.
func (s OrderStatus) AcceptsScans() bool { return s == OrderPending || s == OrderInProgress }

// Completable informa se a ordem pode ser concluída.
func (s OrderStatus) Completable() bool { return s == OrderPending || s == OrderInProgress }

// Cancelable informa se a ordem pode ser cancelada.
func (s OrderStatus) Cancelable() bool { return s == OrderPending || s == OrderInProgress }

// Priority é a prioridade de atendimento da ordem.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid informa se a prioridade é conhecida.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ShipmentOrder é a ordem de trabalho (entrada, saída ou ajuste).
type ShipmentOrder struct {
	ID                   string              `json:"id"`
	TenantID             string              `json:"-"`
	OrderNumber          string              `json:"orderNumber"`
	Type                 OrderType           `json:"type"`
	Status               OrderStatus         `json:"status"`
	Priority             Priority            `json:"priority"`
	Notes                string              `json:"notes,omitempty"`
	ExpectedDeliveryDate *time.Time          `json:"expectedDeliveryDate,omitempty"`
	ActualDeliveryDate   *time.Time          `json:"actualDeliveryDate,omitempty"`
	CreatedByUserID      string              `json:"createdByUserId"`
	CompletedByUserID    *string             `json:"completedByUserId,omitempty"`
	CompletedAt          *time.Time          `json:"completedAt,omitempty"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
	Items                []ShipmentOrderItem `json:"items"`
}

// ScanCount soma as leituras de todos os itens.
func (o ShipmentOrder) ScanCount() int {
	n := 0
	for _, it := range o.Items {
		n += len(it.Scans)
	}
	return n
}

// ShipmentOrderItem é uma linha da ordem.
type ShipmentOrderItem struct {
	ID               string                  `json:"id"`
	OrderID          string                  `json:"orderId"`
	GoodsID          string                  `json:"goodsId"`
	SupplierID       *string                 `json:"supplierId,omitempty"`
	ExpectedQuantity decimal.Decimal         `json:"expectedQuantity" swaggertype:"string"`
	BatchNumber      string                  `json:"batchNumber,omitempty"`
	ProductionDate   *time.Time              `json:"productionDate,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
	Scans            []ShipmentOrderItemScan `json:"scans"`
}

// ShipmentOrderItemScan é a evidência física de uma caixa lida para um item.
type ShipmentOrderItemScan struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"orderId"`
	OrderItemID     string          `json:"orderItemId"`
	CrateID         string          `json:"crateId"`
	CrateNfcUID     string          `json:"crateNfcUid"`
	ActualQuantity  decimal.Decimal `json:"actualQuantity" swaggertype:"string"`
	LocationID      string          `json:"locationId"`
	ScannedByUserID string          `json:"scannedByUserId"`
	ScannedAt       time.Time       `json:"scannedAt"`
}

// CreateOrderRequest é o payload de criação da ordem.
type CreateOrderRequest struct {
	Type                 OrderType  `json:"type"`
	Priority             Priority   `json:"priority,omitempty"`
	Notes                string     `json:"notes,omitempty"`
	ExpectedDeliveryDate *time.Time `json:"expectedDeliveryDate,omitempty"`
}

// AddItemRequest é o payload de inclusão de item.
type AddItemRequest struct {
	GoodsID          string          `json:"goodsId"`
	SupplierID       *string         `json:"supplierId,omitempty"`
	ExpectedQuantity decimal.Decimal `json:"expectedQuantity" swaggertype:"string"`
	BatchNumber      string          `json:"batchNumber,omitempty"`
	ProductionDate   *time.Time      `json:"productionDate,omitempty"`
}

// AddScanRequest é o payload de uma leitura NFC já validada pelo dispositivo.
type AddScanRequest struct {
	NfcUID         string          `json:"nfcUid"`
	ActualQuantity decimal.Decimal `json:"actualQuantity" swaggertype:"string"`
	LocationID     string          `json:"locationId"`
	ScannedAt      *time.Time      `json:"scannedAt,omitempty"`
}

// OrderFilter restringe a listagem de ordens.
type OrderFilter struct {
	Type   OrderType
	Status OrderStatus
}

// OrderSummary é a linha de listagem de ordens.
type OrderSummary struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	Type        OrderType   `json:"type"`
	Status      OrderStatus `json:"status"`
	Priority    Priority    `json:"priority"`
	ItemCount   int         `json:"itemCount"`
	ScanCount   int         `json:"scanCount"`
	CreatedAt   time.Time   `json:"createdAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

// OrderGuard é avaliada com a ordem já bloqueada pelo armazenamento; um erro aborta a operação.
type OrderGuard func(order ShipmentOrder) error
