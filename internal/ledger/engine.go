package ledger

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/pkg/logger"
)

// Engine executa a conclusão de ordens e a desativação de caixas sobre um Ledger.
type Engine struct {
	logger logger.Logger
	now    func() time.Time
}

// NewEngine cria o motor de conclusão.
func NewEngine(log logger.Logger) *Engine {
	return &Engine{logger: log, now: time.Now}
}

// WithClock substitui o relógio (usado em testes).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// CompletionResult resume o efeito de uma conclusão bem sucedida.
type CompletionResult struct {
	Order          domain.ShipmentOrder
	ProcessedScans int
	TouchedCrates  []string
}

type pendingScan struct {
	item domain.ShipmentOrderItem
	scan domain.ShipmentOrderItemScan
}

// Complete aplica todas as leituras da ordem e a marca como COMPLETED.
// Qualquer falha retorna erro e o chamador deve descartar a transação inteira.
func (e *Engine) Complete(ctx context.Context, l Ledger, tenantID, orderID, userID string) (CompletionResult, error) {
	e.logger.Debug("Iniciando conclusão de ordem.", map[string]interface{}{"tenant_id": tenantID, "order_id": orderID})

	order, err := l.LockOrder(ctx, tenantID, orderID)
	if err != nil {
		return CompletionResult{}, err
	}

	if !order.Status.Completable() {
		return CompletionResult{}, apperror.NewStateConflictError(
			fmt.Sprintf("A ordem %s está %s e não pode ser concluída.", order.OrderNumber, order.Status))
	}

	scans := make([]pendingScan, 0, order.ScanCount())
	seen := make(map[string]string)
	for _, item := range order.Items {
		for _, sc := range item.Scans {
			if other, dup := seen[sc.CrateID]; dup {
				return CompletionResult{}, apperror.NewBusinessValidationError(
					fmt.Sprintf("A caixa %s foi lida nos itens %s e %s da mesma ordem.", sc.CrateNfcUID, other, item.ID))
			}
			seen[sc.CrateID] = item.ID
			scans = append(scans, pendingScan{item: item, scan: sc})
		}
	}

	if len(scans) == 0 {
		return CompletionResult{}, apperror.NewBusinessValidationError(
			fmt.Sprintf("A ordem %s não possui leituras de caixas.", order.OrderNumber))
	}

	// Ordem fixa de bloqueio entre conclusões concorrentes.
	sort.Slice(scans, func(i, j int) bool { return scans[i].scan.CrateID < scans[j].scan.CrateID })

	now := e.now()
	touched := make([]string, 0, len(scans))
	for _, ps := range scans {
		if err := e.applyScan(ctx, l, order, ps, userID, now); err != nil {
			e.logger.Warn("Conclusão abortada por leitura inválida.", map[string]interface{}{
				"tenant_id": tenantID, "order_id": orderID, "scan_id": ps.scan.ID, "crate_id": ps.scan.CrateID, "error": err.Error(),
			})
			return CompletionResult{}, err
		}
		touched = append(touched, ps.scan.CrateID)
	}

	order.Status = domain.OrderCompleted
	order.CompletedByUserID = &userID
	order.CompletedAt = &now
	order.ActualDeliveryDate = &now
	order.UpdatedAt = now
	if err := l.SaveOrderCompletion(ctx, order); err != nil {
		return CompletionResult{}, err
	}

	e.logger.Info("Ordem concluída no ledger.", map[string]interface{}{
		"tenant_id": tenantID, "order_id": orderID, "order_type": order.Type, "scans": len(scans),
	})
	return CompletionResult{Order: order, ProcessedScans: len(scans), TouchedCrates: touched}, nil
}

func (e *Engine) applyScan(ctx context.Context, l Ledger, order domain.ShipmentOrder, ps pendingScan, userID string, now time.Time) error {
	crate, err := l.LockCrate(ctx, order.TenantID, ps.scan.CrateID)
	if err != nil {
		return err
	}
	if crate.Status == domain.CrateInactive {
		return apperror.NewStateConflictError(fmt.Sprintf("A caixa %s está inativa.", crate.NfcUID))
	}

	current, err := l.FindContentForUpdate(ctx, order.TenantID, crate.ID)
	if err != nil {
		return err
	}

	tr, err := domain.ApplyScan(order.Type, current, domain.ScanInput{
		TenantID:    order.TenantID,
		CrateID:     crate.ID,
		OrderID:     order.ID,
		UserID:      userID,
		GoodsID:     ps.item.GoodsID,
		SupplierID:  ps.item.SupplierID,
		BatchNumber: ps.item.BatchNumber,
		Quantity:    ps.scan.ActualQuantity,
		At:          now,
	})
	if err != nil {
		var terr *domain.TransitionError
		if stderrors.As(err, &terr) {
			return apperror.NewStateConflictError(fmt.Sprintf("Caixa %s: %s", crate.NfcUID, terr.Error()))
		}
		return apperror.NewInternalError("Falha ao derivar transição da caixa.", err)
	}

	if tr.Content == nil {
		if err := l.DeleteContent(ctx, order.TenantID, crate.ID); err != nil {
			return err
		}
	} else if _, err := l.SaveContent(ctx, *tr.Content); err != nil {
		return err
	}

	crate.Status = tr.CrateStatus
	location := ps.scan.LocationID
	seenAt := ps.scan.ScannedAt
	crate.LastKnownLocationID = &location
	crate.LastSeenAt = &seenAt
	crate.UpdatedAt = now
	if err := l.SaveCrateState(ctx, crate); err != nil {
		return err
	}

	payload, err := json.Marshal(domain.ScanLogPayload{
		ScanID:         ps.scan.ID,
		CrateID:        crate.ID,
		CrateNfcUID:    crate.NfcUID,
		ActualQuantity: ps.scan.ActualQuantity,
		ScannedAt:      ps.scan.ScannedAt,
		CompletedBy:    userID,
	})
	if err != nil {
		return apperror.NewInternalError("Falha ao serializar payload da leitura.", err)
	}

	// A entrada pertence a quem leu a caixa; quem concluiu fica no payload.
	scannedBy := ps.scan.ScannedByUserID
	if scannedBy == "" {
		scannedBy = userID
	}
	crateID := crate.ID
	return l.AppendOperationLog(ctx, domain.OperationLog{
		ID:            uuid.NewString(),
		TenantID:      order.TenantID,
		UserID:        scannedBy,
		EntityType:    domain.EntityShipmentScan,
		EntityID:      ps.scan.ID,
		CrateID:       &crateID,
		OperationType: string(order.Type),
		Description:   fmt.Sprintf("Leitura da caixa %s processada na ordem %s", crate.NfcUID, order.OrderNumber),
		Payload:       payload,
		CreatedAt:     now,
	})
}

// DeactivationResult resume o efeito de uma desativação.
type DeactivationResult struct {
	Crate          domain.Crate
	ContentCleared bool
}

// Deactivate move a caixa para INACTIVE. Uma caixa IN_USE tem o conteúdo removido antes.
func (e *Engine) Deactivate(ctx context.Context, l Ledger, tenantID, crateID, userID, reason string) (DeactivationResult, error) {
	crate, err := l.LockCrate(ctx, tenantID, crateID)
	if err != nil {
		return DeactivationResult{}, err
	}
	if crate.Status == domain.CrateInactive {
		return DeactivationResult{}, apperror.NewStateConflictError(fmt.Sprintf("A caixa %s já está inativa.", crate.NfcUID))
	}

	now := e.now()
	previous := crate.Status
	cleared := false

	if crate.Status == domain.CrateInUse {
		content, err := l.FindContentForUpdate(ctx, tenantID, crate.ID)
		if err != nil {
			return DeactivationResult{}, err
		}
		if content != nil {
			if err := l.DeleteContent(ctx, tenantID, crate.ID); err != nil {
				return DeactivationResult{}, err
			}
			cleared = true
			e.logger.Info("Conteúdo removido de caixa em uso durante desativação.", map[string]interface{}{
				"tenant_id": tenantID, "crate_id": crate.ID, "goods_id": content.GoodsID, "quantity": content.Quantity.String(),
			})
			if err := e.appendCrateLog(ctx, l, crate, userID, domain.OpCrateContentCleared, reason, previous, now,
				fmt.Sprintf("Conteúdo da caixa %s removido na desativação", crate.NfcUID)); err != nil {
				return DeactivationResult{}, err
			}
		}
	}

	crate.Status = domain.CrateInactive
	crate.UpdatedAt = now
	if err := l.SaveCrateState(ctx, crate); err != nil {
		return DeactivationResult{}, err
	}
	if err := e.appendCrateLog(ctx, l, crate, userID, domain.OpCrateDeactivate, reason, previous, now,
		fmt.Sprintf("Caixa %s desativada", crate.NfcUID)); err != nil {
		return DeactivationResult{}, err
	}

	return DeactivationResult{Crate: crate, ContentCleared: cleared}, nil
}

func (e *Engine) appendCrateLog(ctx context.Context, l Ledger, crate domain.Crate, userID, op, reason string,
	previous domain.CrateStatus, now time.Time, description string) error {
	payload, err := json.Marshal(domain.CrateLogPayload{NfcUID: crate.NfcUID, Reason: reason, PreviousStatus: previous})
	if err != nil {
		return apperror.NewInternalError("Falha ao serializar payload da caixa.", err)
	}
	crateID := crate.ID
	return l.AppendOperationLog(ctx, domain.OperationLog{
		ID:            uuid.NewString(),
		TenantID:      crate.TenantID,
		UserID:        userID,
		EntityType:    domain.EntityCrate,
		EntityID:      crate.ID,
		CrateID:       &crateID,
		OperationType: op,
		Description:   description,
		Payload:       payload,
		CreatedAt:     now,
	})
}
