package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContentStatus indica se o conteúdo está no armazém ou expedido.
type ContentStatus string

const (
	ContentInbound  ContentStatus = "INBOUND"
	ContentOutbound ContentStatus = "OUTBOUND"
)

// CrateContent é o registro único de "conteúdo atual" de uma caixa.
// A ausência do registro significa caixa vazia.
type CrateContent struct {
	ID                   string          `json:"id"`
	TenantID             string          `json:"-"`
	CrateID              string          `json:"crateId"`
	GoodsID              string          `json:"goodsId"`
	SupplierID           *string         `json:"supplierId,omitempty"`
	BatchNumber          string          `json:"batchNumber,omitempty"`
	Quantity             decimal.Decimal `json:"quantity" swaggertype:"string"`
	Status               ContentStatus   `json:"status"`
	LastUpdatedAt        time.Time       `json:"lastUpdatedAt"`
	LastUpdatedByOrderID *string         `json:"lastUpdatedByOrderId,omitempty"`
	LastUpdatedByUserID  string          `json:"lastUpdatedByUserId"`
}

// InventorySummaryLine agrega o conteúdo INBOUND por mercadoria.
type InventorySummaryLine struct {
	GoodsID       string          `json:"goodsId"`
	GoodsName     string          `json:"goodsName"`
	TotalQuantity decimal.Decimal `json:"totalQuantity" swaggertype:"string"`
	CrateCount    int             `json:"crateCount"`
}

// InventoryDetail é uma caixa com conteúdo INBOUND de uma mercadoria.
type InventoryDetail struct {
	CrateID             string          `json:"crateId"`
	NfcUID              string          `json:"nfcUid"`
	GoodsID             string          `json:"goodsId"`
	SupplierID          *string         `json:"supplierId,omitempty"`
	BatchNumber         string          `json:"batchNumber,omitempty"`
	Quantity            decimal.Decimal `json:"quantity" swaggertype:"string"`
	LastKnownLocationID *string         `json:"lastKnownLocationId,omitempty"`
	LastUpdatedAt       time.Time       `json:"lastUpdatedAt"`
}
