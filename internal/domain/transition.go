package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ScanInput é tudo que uma transição precisa saber sobre a leitura sendo aplicada.
type ScanInput struct {
	TenantID    string
	CrateID     string
	OrderID     string
	UserID      string
	GoodsID     string
	SupplierID  *string
	BatchNumber string
	Quantity    decimal.Decimal
	At          time.Time
}

// Transition é o novo estado de uma caixa após aplicar uma leitura.
// Content nil significa que o registro de conteúdo deve ser removido.
type Transition struct {
	Content     *CrateContent
	CrateStatus CrateStatus
}

// TransitionFunc deriva a transição a partir do conteúdo persistido (nil = caixa vazia).
type TransitionFunc func(current *CrateContent, in ScanInput) (Transition, error)

// TransitionError indica que o conteúdo atual não permite a transição pedida.
type TransitionError struct {
	OrderType OrderType
	CrateID   string
	Required  ContentStatus
	Actual    *ContentStatus
}

func (e *TransitionError) Error() string {
	actual := "vazia"
	if e.Actual != nil {
		actual = string(*e.Actual)
	}
	return fmt.Sprintf("caixa %s não pode ser processada por ordem %s: conteúdo exigido %s, atual %s",
		e.CrateID, e.OrderType, e.Required, actual)
}

var transitions = map[OrderType]TransitionFunc{
	OrderInbound:            inboundTransition,
	OrderOutbound:           outboundTransition,
	OrderInboundAdjustment:  inboundAdjustmentTransition,
	OrderOutboundAdjustment: outboundAdjustmentTransition,
}

// ApplyScan escolhe a transição do tipo da ordem e a aplica. Não altera current.
func ApplyScan(orderType OrderType, current *CrateContent, in ScanInput) (Transition, error) {
	fn, ok := transitions[orderType]
	if !ok {
		return Transition{}, fmt.Errorf("tipo de ordem desconhecido: %s", orderType)
	}
	return fn(current, in)
}

// ENTRADA: sempre permitida, sobrescreve o conteúdo.
func inboundTransition(current *CrateContent, in ScanInput) (Transition, error) {
	next := CrateContent{
		TenantID:             in.TenantID,
		CrateID:              in.CrateID,
		GoodsID:              in.GoodsID,
		SupplierID:           in.SupplierID,
		BatchNumber:          in.BatchNumber,
		Quantity:             in.Quantity,
		Status:               ContentInbound,
		LastUpdatedAt:        in.At,
		LastUpdatedByOrderID: &in.OrderID,
		LastUpdatedByUserID:  in.UserID,
	}
	if current != nil {
		next.ID = current.ID
	}
	return Transition{Content: &next, CrateStatus: CrateInUse}, nil
}

func outboundTransition(current *CrateContent, in ScanInput) (Transition, error) {
	if err := requireContent(OrderOutbound, current, in, ContentInbound); err != nil {
		return Transition{}, err
	}
	next := touched(current, in)
	next.Status = ContentOutbound
	return Transition{Content: &next, CrateStatus: CrateOutbound}, nil
}

// Estorno de entrada: o conteúdo some e a caixa volta a ficar disponível.
func inboundAdjustmentTransition(current *CrateContent, in ScanInput) (Transition, error) {
	if err := requireContent(OrderInboundAdjustment, current, in, ContentInbound); err != nil {
		return Transition{}, err
	}
	return Transition{Content: nil, CrateStatus: CrateAvailable}, nil
}

func outboundAdjustmentTransition(current *CrateContent, in ScanInput) (Transition, error) {
	if err := requireContent(OrderOutboundAdjustment, current, in, ContentOutbound); err != nil {
		return Transition{}, err
	}
	next := touched(current, in)
	next.Status = ContentInbound
	return Transition{Content: &next, CrateStatus: CrateInUse}, nil
}

func requireContent(t OrderType, current *CrateContent, in ScanInput, required ContentStatus) error {
	if current != nil && current.Status == required {
		return nil
	}
	terr := &TransitionError{OrderType: t, CrateID: in.CrateID, Required: required}
	if current != nil {
		status := current.Status
		terr.Actual = &status
	}
	return terr
}

func touched(current *CrateContent, in ScanInput) CrateContent {
	next := *current
	next.LastUpdatedAt = in.At
	next.LastUpdatedByOrderID = &in.OrderID
	next.LastUpdatedByUserID = in.UserID
	return next
}
