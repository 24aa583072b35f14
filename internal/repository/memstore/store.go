// Package memstore é o driver de armazenamento em memória (STORAGE_DRIVER=memory).
// Cada escrita trabalha sobre uma cópia do estado, que só substitui o estado
// confirmado quando a operação inteira termina sem erro.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/ledger"
)

type state struct {
	users      map[string]domain.User
	goods      map[string]domain.Goods
	suppliers  map[string]domain.Supplier
	locations  map[string]domain.Location
	crateTypes map[string]domain.CrateType
	crates     map[string]domain.Crate
	contents   map[string]domain.CrateContent // chave: crate ID
	orders     map[string]domain.ShipmentOrder
	items      map[string]domain.ShipmentOrderItem
	scans      map[string]domain.ShipmentOrderItemScan
	logs       []domain.OperationLog
	seq        map[string]int64 // ordem de inserção de itens e leituras
	nextSeq    int64
}

func newState() state {
	return state{
		users:      map[string]domain.User{},
		goods:      map[string]domain.Goods{},
		suppliers:  map[string]domain.Supplier{},
		locations:  map[string]domain.Location{},
		crateTypes: map[string]domain.CrateType{},
		crates:     map[string]domain.Crate{},
		contents:   map[string]domain.CrateContent{},
		orders:     map[string]domain.ShipmentOrder{},
		items:      map[string]domain.ShipmentOrderItem{},
		scans:      map[string]domain.ShipmentOrderItemScan{},
		seq:        map[string]int64{},
	}
}

// clone copia os mapas; os valores são structs substituídas por inteiro, nunca alteradas no lugar.
func (st state) clone() state {
	return state{
		users:      maps.Clone(st.users),
		goods:      maps.Clone(st.goods),
		suppliers:  maps.Clone(st.suppliers),
		locations:  maps.Clone(st.locations),
		crateTypes: maps.Clone(st.crateTypes),
		crates:     maps.Clone(st.crates),
		contents:   maps.Clone(st.contents),
		orders:     maps.Clone(st.orders),
		items:      maps.Clone(st.items),
		scans:      maps.Clone(st.scans),
		logs:       slices.Clone(st.logs),
		seq:        maps.Clone(st.seq),
		nextSeq:    st.nextSeq,
	}
}

func (st *state) stamp(id string) {
	st.nextSeq++
	st.seq[id] = st.nextSeq
}

// Store implementa todos os repositórios e o ledger.Transactor em memória.
type Store struct {
	mu    sync.RWMutex
	state state
}

// New cria um Store vazio.
func New() *Store {
	return &Store{state: newState()}
}

func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.state)
}

func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(&work); err != nil {
		return err
	}
	s.state = work
	return nil
}

// InTx executa fn com um Ledger sobre uma cópia do estado; só confirma se fn retornar nil.
func (s *Store) InTx(ctx context.Context, fn func(l ledger.Ledger) error) error {
	return s.write(ctx, func(st *state) error {
		return fn(&txLedger{st: st})
	})
}

// --- Buscas com filtro de tenant ---

func (st *state) crate(tenantID, id string) (domain.Crate, error) {
	c, ok := st.crates[id]
	if !ok || c.TenantID != tenantID || c.DeletedAt != nil {
		return domain.Crate{}, apperror.NewNotFoundError("Caixa não encontrada.")
	}
	return c, nil
}

func (st *state) crateByNfc(tenantID, nfcUID string) (domain.Crate, bool) {
	for _, c := range st.crates {
		if c.TenantID == tenantID && c.NfcUID == nfcUID && c.DeletedAt == nil {
			return c, true
		}
	}
	return domain.Crate{}, false
}

func (st *state) crateType(tenantID, id string) (domain.CrateType, error) {
	ct, ok := st.crateTypes[id]
	if !ok || ct.TenantID != tenantID || ct.DeletedAt != nil {
		return domain.CrateType{}, apperror.NewNotFoundError("Tipo de caixa não encontrado.")
	}
	return ct, nil
}

func (st *state) order(tenantID, id string) (domain.ShipmentOrder, error) {
	o, ok := st.orders[id]
	if !ok || o.TenantID != tenantID {
		return domain.ShipmentOrder{}, apperror.NewNotFoundError("Ordem não encontrada.")
	}
	return o, nil
}

// assemble monta a ordem com itens e leituras na ordem de inserção.
func (st *state) assemble(o domain.ShipmentOrder) domain.ShipmentOrder {
	items := make([]domain.ShipmentOrderItem, 0)
	for _, it := range st.items {
		if it.OrderID == o.ID {
			it.Scans = st.scansOf(it.ID)
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return st.seq[items[i].ID] < st.seq[items[j].ID] })
	o.Items = items
	return o
}

func (st *state) scansOf(itemID string) []domain.ShipmentOrderItemScan {
	scans := make([]domain.ShipmentOrderItemScan, 0)
	for _, sc := range st.scans {
		if sc.OrderItemID == itemID {
			if c, ok := st.crates[sc.CrateID]; ok {
				sc.CrateNfcUID = c.NfcUID
			}
			scans = append(scans, sc)
		}
	}
	sort.Slice(scans, func(i, j int) bool { return st.seq[scans[i].ID] < st.seq[scans[j].ID] })
	return scans
}

func (st *state) activeCratesOfType(tenantID, typeID string) int {
	n := 0
	for _, c := range st.crates {
		if c.TenantID == tenantID && c.DeletedAt == nil && c.CrateTypeID != nil && *c.CrateTypeID == typeID {
			n++
		}
	}
	return n
}

func timePtr(t time.Time) *time.Time { return &t }
