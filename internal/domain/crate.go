package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CrateStatus é o estado físico de uma caixa.
type CrateStatus string

const (
	CrateAvailable CrateStatus = "AVAILABLE"
	CrateInUse     CrateStatus = "IN_USE"
	CrateOutbound  CrateStatus = "OUTBOUND"
	CrateInactive  CrateStatus = "INACTIVE" // terminal, nunca reutilizada
)

// Valid informa se o status é conhecido.
func (s CrateStatus) Valid() bool {
	switch s {
	case CrateAvailable, CrateInUse, CrateOutbound, CrateInactive:
		return true
	}
	return false
}

// CrateType é o modelo (capacidade, peso) que uma caixa pode referenciar.
type CrateType struct {
	ID          string              `json:"id"`
	TenantID    string              `json:"-"`
	Name        string              `json:"name"`
	Code        string              `json:"code"`
	Description string              `json:"description,omitempty"`
	Capacity    decimal.NullDecimal `json:"capacity" swaggertype:"string"`
	Weight      decimal.NullDecimal `json:"weight" swaggertype:"string"`
	IsActive    bool                `json:"isActive"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
	DeletedAt   *time.Time          `json:"-"`
}

// CrateTypeRequest é o payload de criação e atualização de tipos de caixa.
type CrateTypeRequest struct {
	Name        string              `json:"name"`
	Code        string              `json:"code"`
	Description string              `json:"description"`
	Capacity    decimal.NullDecimal `json:"capacity" swaggertype:"string"`
	Weight      decimal.NullDecimal `json:"weight" swaggertype:"string"`
	IsActive    *bool               `json:"isActive"`
}

// Crate é a unidade física identificada pela tag NFC.
type Crate struct {
	ID                  string      `json:"id"`
	TenantID            string      `json:"-"`
	NfcUID              string      `json:"nfcUid"`
	CrateTypeID         *string     `json:"crateTypeId,omitempty"`
	Status              CrateStatus `json:"status"`
	LastKnownLocationID *string     `json:"lastKnownLocationId,omitempty"`
	LastSeenAt          *time.Time  `json:"lastSeenAt,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
	DeletedAt           *time.Time  `json:"-"`
}

// CrateRegistration é o payload de registro de uma caixa.
type CrateRegistration struct {
	NfcUID      string  `json:"nfcUid"`
	CrateTypeID *string `json:"crateTypeId,omitempty"`
}

// CrateUpdate é o payload de atualização parcial de uma caixa.
type CrateUpdate struct {
	NfcUID      *string `json:"nfcUid,omitempty"`
	CrateTypeID *string `json:"crateTypeId,omitempty"`
}

// CrateFilter restringe a listagem de caixas.
type CrateFilter struct {
	Status CrateStatus
}

// CrateDetails é a caixa junto com o conteúdo atual (nil quando vazia).
type CrateDetails struct {
	Crate   Crate         `json:"crate"`
	Content *CrateContent `json:"content"`
}

// Códigos de falha por item nas operações em lote.
const (
	FailureInvalidNfcUID      = "INVALID_NFC_UID"
	FailureDuplicateInRequest = "DUPLICATE_IN_REQUEST"
	FailureDuplicateNfcUID    = "DUPLICATE_NFC_UID"
	FailureCrateTypeNotFound  = "CRATE_TYPE_NOT_FOUND"
	FailureQuotaExceeded      = "QUOTA_EXCEEDED"
	FailureRegistrationError  = "REGISTRATION_ERROR"
	FailureNotFound           = "NOT_FOUND"
	FailureAlreadyInactive    = "ALREADY_INACTIVE"
	FailureDeactivationError  = "DEACTIVATION_ERROR"
)

// BatchFailure descreve a falha de um item dentro de uma operação em lote.
type BatchFailure struct {
	Index   int    `json:"index"`
	NfcUID  string `json:"nfcUid,omitempty"`
	CrateID string `json:"crateId,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchRegisterRequest é o payload do registro em lote.
type BatchRegisterRequest struct {
	Crates []CrateRegistration `json:"crates"`
}

// BatchRegisterResult é o relatório do registro em lote.
// TotalRequested = SuccessCount + FailCount sempre.
type BatchRegisterResult struct {
	TotalRequested int            `json:"totalRequested"`
	SuccessCount   int            `json:"successCount"`
	FailCount      int            `json:"failCount"`
	Registered     []Crate        `json:"registered"`
	Failures       []BatchFailure `json:"failures"`
	Message        string         `json:"message"`
}

// DeactivateRequest é o payload opcional da desativação de uma caixa.
type DeactivateRequest struct {
	Reason string `json:"reason"`
}

// BatchDeactivateRequest é o payload da desativação em lote.
type BatchDeactivateRequest struct {
	CrateIDs []string `json:"crateIds"`
	Reason   string   `json:"reason"`
}

// BatchDeactivateResult é o relatório da desativação em lote.
type BatchDeactivateResult struct {
	TotalRequested int            `json:"totalRequested"`
	SuccessCount   int            `json:"successCount"`
	FailCount      int            `json:"failCount"`
	Deactivated    []string       `json:"deactivated"`
	Failures       []BatchFailure `json:"failures"`
	Message        string         `json:"message"`
}
