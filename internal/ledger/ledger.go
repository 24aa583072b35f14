// Package ledger aplica as leituras de uma ordem ao conteúdo das caixas.
// Tudo roda dentro de uma única transação fornecida pela camada de armazenamento.
package ledger

import (
	"context"

	"cratetrack/internal/domain"
)

// Ledger é a visão transacional que o motor de conclusão precisa do armazenamento.
// Todas as leituras filtram por tenant; linhas de outro tenant retornam NotFoundError.
type Ledger interface {
	// LockOrder bloqueia a ordem e retorna seus itens e leituras.
	LockOrder(ctx context.Context, tenantID, orderID string) (domain.ShipmentOrder, error)
	// LockCrate bloqueia a linha da caixa (SELECT ... FOR UPDATE no Postgres).
	LockCrate(ctx context.Context, tenantID, crateID string) (domain.Crate, error)
	// FindContentForUpdate retorna nil quando a caixa está vazia.
	FindContentForUpdate(ctx context.Context, tenantID, crateID string) (*domain.CrateContent, error)
	SaveContent(ctx context.Context, content domain.CrateContent) (domain.CrateContent, error)
	DeleteContent(ctx context.Context, tenantID, crateID string) error
	SaveCrateState(ctx context.Context, crate domain.Crate) error
	AppendOperationLog(ctx context.Context, entry domain.OperationLog) error
	SaveOrderCompletion(ctx context.Context, order domain.ShipmentOrder) error
}

// Transactor abre uma transação e entrega o Ledger ligado a ela.
// Se fn retornar erro, nada do que foi escrito é persistido.
type Transactor interface {
	InTx(ctx context.Context, fn func(l Ledger) error) error
}
