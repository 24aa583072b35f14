package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de entidade registrados no log de operações.
const (
	EntityShipmentScan = "SHIPMENT_SCAN"
	EntityCrate        = "CRATE"
)

// Tipos de operação sobre caixas. Leituras usam o tipo da ordem como operação.
const (
	OpCrateRegister       = "REGISTER"
	OpCrateDeactivate     = "DEACTIVATE"
	OpCrateContentCleared = "CONTENT_CLEARED"
)

// OperationLog é o rastro append-only de toda ação que muta conteúdo ou caixa.
type OperationLog struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"-"`
	UserID        string          `json:"userId"`
	EntityType    string          `json:"entityType"`
	EntityID      string          `json:"entityId"`
	CrateID       *string         `json:"crateId,omitempty"`
	OperationType string          `json:"operationType"`
	Description   string          `json:"description"`
	Payload       json.RawMessage `json:"payload,omitempty" swaggertype:"object"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ScanLogPayload é o payload gravado para cada leitura processada na conclusão.
type ScanLogPayload struct {
	ScanID         string          `json:"scanId"`
	CrateID        string          `json:"crateId"`
	CrateNfcUID    string          `json:"crateNfcUid"`
	ActualQuantity decimal.Decimal `json:"actualQuantity"`
	ScannedAt      time.Time       `json:"scannedAt"`
	CompletedBy    string          `json:"completedByUserId"`
}

// CrateLogPayload é o payload gravado para registro e desativação de caixas.
type CrateLogPayload struct {
	NfcUID         string      `json:"nfcUid"`
	Reason         string      `json:"reason,omitempty"`
	PreviousStatus CrateStatus `json:"previousStatus,omitempty"`
}
