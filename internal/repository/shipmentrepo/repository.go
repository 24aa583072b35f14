package shipmentrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/repository/pgutil"
)

// Repository implementa a persistência de ordens, itens e leituras sobre PostgreSQL.
type Repository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewShipmentRepository cria e retorna uma nova instância do repositório de ordens.
func NewShipmentRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *Repository {
	return &Repository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

const orderColumns = `id, tenant_id, order_number, type, status, priority, notes, expected_delivery_date, actual_delivery_date,
                      created_by_user_id, completed_by_user_id, completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (domain.ShipmentOrder, error) {
	var (
		o                        domain.ShipmentOrder
		expected, actual, compAt sql.NullTime
		completedBy              sql.NullString
	)
	err := row.Scan(&o.ID, &o.TenantID, &o.OrderNumber, &o.Type, &o.Status, &o.Priority, &o.Notes, &expected, &actual,
		&o.CreatedByUserID, &completedBy, &compAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.ShipmentOrder{}, err
	}
	o.ExpectedDeliveryDate = pgutil.TimePtr(expected)
	o.ActualDeliveryDate = pgutil.TimePtr(actual)
	o.CompletedByUserID = pgutil.StringPtr(completedBy)
	o.CompletedAt = pgutil.TimePtr(compAt)
	return o, nil
}

// LoadOrder busca a ordem do tenant com itens e leituras.
// Com forUpdate a linha da ordem fica bloqueada até o fim da transação.
func LoadOrder(ctx context.Context, q pgutil.Querier, tenantID, id string, forUpdate bool) (domain.ShipmentOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM shipment_orders WHERE id = $1 AND tenant_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(q.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return domain.ShipmentOrder{}, apperror.NewNotFoundError("Ordem não encontrada.")
	}
	if err != nil {
		return domain.ShipmentOrder{}, apperror.NewDBError("Falha ao buscar ordem", err)
	}

	items, err := loadItems(ctx, q, o.ID)
	if err != nil {
		return domain.ShipmentOrder{}, err
	}
	o.Items = items
	return o, nil
}

func loadItems(ctx context.Context, q pgutil.Querier, orderID string) ([]domain.ShipmentOrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, goods_id, supplier_id, expected_quantity, batch_number, production_date, created_at
         FROM shipment_order_items WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao buscar itens da ordem", err)
	}
	defer rows.Close()

	items := make([]domain.ShipmentOrderItem, 0)
	index := map[string]int{}
	for rows.Next() {
		var (
			it         domain.ShipmentOrderItem
			supplierID sql.NullString
			prodDate   sql.NullTime
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.GoodsID, &supplierID, &it.ExpectedQuantity, &it.BatchNumber, &prodDate, &it.CreatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao ler item da ordem", err)
		}
		it.SupplierID = pgutil.StringPtr(supplierID)
		it.ProductionDate = pgutil.TimePtr(prodDate)
		it.Scans = make([]domain.ShipmentOrderItemScan, 0)
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar itens da ordem", err)
	}

	scans, err := loadScans(ctx, q, `s.order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	for _, sc := range scans {
		if i, ok := index[sc.OrderItemID]; ok {
			items[i].Scans = append(items[i].Scans, sc)
		}
	}
	return items, nil
}

func loadScans(ctx context.Context, q pgutil.Querier, where string, arg string) ([]domain.ShipmentOrderItemScan, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT s.id, s.order_id, s.order_item_id, s.crate_id, c.nfc_uid, s.actual_quantity, s.location_id, s.scanned_by_user_id, s.scanned_at
         FROM shipment_order_item_scans s
         JOIN crates c ON c.id = s.crate_id
         WHERE `+where+` ORDER BY s.scanned_at, s.id`, arg)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao buscar leituras", err)
	}
	defer rows.Close()

	scans := make([]domain.ShipmentOrderItemScan, 0)
	for rows.Next() {
		var sc domain.ShipmentOrderItemScan
		if err := rows.Scan(&sc.ID, &sc.OrderID, &sc.OrderItemID, &sc.CrateID, &sc.CrateNfcUID, &sc.ActualQuantity,
			&sc.LocationID, &sc.ScannedByUserID, &sc.ScannedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao ler leitura", err)
		}
		scans = append(scans, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar leituras", err)
	}
	return scans, nil
}

// SaveOrderCompletion grava o fechamento da ordem.
func SaveOrderCompletion(ctx context.Context, q pgutil.Querier, o domain.ShipmentOrder) error {
	_, err := q.ExecContext(ctx,
		`UPDATE shipment_orders
         SET status = $3, completed_by_user_id = $4, completed_at = $5, actual_delivery_date = $6, updated_at = $7
         WHERE id = $1 AND tenant_id = $2`,
		o.ID, o.TenantID, o.Status, pgutil.NullString(o.CompletedByUserID), pgutil.NullTime(o.CompletedAt),
		pgutil.NullTime(o.ActualDeliveryDate), o.UpdatedAt)
	if err != nil {
		return apperror.NewDBError("Falha ao concluir ordem", err)
	}
	return nil
}

// CreateOrder insere a ordem; o número é único por tenant.
func (r *Repository) CreateOrder(ctx context.Context, order domain.ShipmentOrder) (domain.ShipmentOrder, error) {
	r.logger.Debug("Inserindo ordem no repositório.", map[string]interface{}{"tenant_id": order.TenantID, "order_number": order.OrderNumber})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctxTimeout,
		`INSERT INTO shipment_orders (id, tenant_id, order_number, type, status, priority, notes, expected_delivery_date,
                                      created_by_user_id, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		order.ID, order.TenantID, order.OrderNumber, order.Type, order.Status, order.Priority, order.Notes,
		pgutil.NullTime(order.ExpectedDeliveryDate), order.CreatedByUserID, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return domain.ShipmentOrder{}, pgutil.Translate(err, "Falha ao inserir ordem", fmt.Sprintf("Número de ordem '%s' já existe.", order.OrderNumber))
	}

	order.Items = []domain.ShipmentOrderItem{}
	return order, nil
}

// FindOrder retorna a ordem completa (itens e leituras).
func (r *Repository) FindOrder(ctx context.Context, tenantID, id string) (domain.ShipmentOrder, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()
	return LoadOrder(ctxTimeout, r.DB, tenantID, id, false)
}

// ListOrders lista resumos das ordens do tenant, mais recentes primeiro.
func (r *Repository) ListOrders(ctx context.Context, tenantID string, filter domain.OrderFilter) ([]domain.OrderSummary, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT o.id, o.order_number, o.type, o.status, o.priority, o.created_at, o.completed_at,
                (SELECT COUNT(*) FROM shipment_order_items i WHERE i.order_id = o.id),
                (SELECT COUNT(*) FROM shipment_order_item_scans s WHERE s.order_id = o.id)
         FROM shipment_orders o
         WHERE o.tenant_id = $1 AND ($2 = '' OR o.type = $2) AND ($3 = '' OR o.status = $3)
         ORDER BY o.created_at DESC`,
		tenantID, string(filter.Type), string(filter.Status))
	if err != nil {
		r.logger.Error("Falha ao listar ordens.", err)
		return nil, apperror.NewDBError("Falha ao listar ordens", err)
	}
	defer rows.Close()

	out := make([]domain.OrderSummary, 0)
	for rows.Next() {
		var (
			s           domain.OrderSummary
			completedAt sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.OrderNumber, &s.Type, &s.Status, &s.Priority, &s.CreatedAt, &completedAt, &s.ItemCount, &s.ScanCount); err != nil {
			return nil, apperror.NewDBError("Falha ao ler ordem", err)
		}
		s.CompletedAt = pgutil.TimePtr(completedAt)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar ordens", err)
	}
	return out, nil
}

// FindItem busca um item cuja ordem pertence ao tenant.
func (r *Repository) FindItem(ctx context.Context, tenantID, itemID string) (domain.ShipmentOrderItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		it         domain.ShipmentOrderItem
		supplierID sql.NullString
		prodDate   sql.NullTime
	)
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT i.id, i.order_id, i.goods_id, i.supplier_id, i.expected_quantity, i.batch_number, i.production_date, i.created_at
         FROM shipment_order_items i
         JOIN shipment_orders o ON o.id = i.order_id
         WHERE i.id = $1 AND o.tenant_id = $2`, itemID, tenantID).
		Scan(&it.ID, &it.OrderID, &it.GoodsID, &supplierID, &it.ExpectedQuantity, &it.BatchNumber, &prodDate, &it.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.ShipmentOrderItem{}, apperror.NewNotFoundError("Item da ordem não encontrado.")
	}
	if err != nil {
		return domain.ShipmentOrderItem{}, apperror.NewDBError("Falha ao buscar item da ordem", err)
	}
	it.SupplierID = pgutil.StringPtr(supplierID)
	it.ProductionDate = pgutil.TimePtr(prodDate)

	scans, err := loadScans(ctxTimeout, r.DB, `s.order_item_id = $1`, it.ID)
	if err != nil {
		return domain.ShipmentOrderItem{}, err
	}
	it.Scans = scans
	return it, nil
}

// AddItem inclui um item com a ordem bloqueada; guard decide se a ordem aceita itens.
func (r *Repository) AddItem(ctx context.Context, tenantID, orderID string, item domain.ShipmentOrderItem, guard domain.OrderGuard) (domain.ShipmentOrderItem, error) {
	err := pgutil.InTx(ctx, r.DB, r.DBTimeout, func(ctx context.Context, tx *sql.Tx) error {
		order, err := LoadOrder(ctx, tx, tenantID, orderID, true)
		if err != nil {
			return err
		}
		if err := guard(order); err != nil {
			return err
		}

		item.OrderID = order.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO shipment_order_items (id, order_id, goods_id, supplier_id, expected_quantity, batch_number, production_date, created_at)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, item.OrderID, item.GoodsID, pgutil.NullString(item.SupplierID), item.ExpectedQuantity, item.BatchNumber,
			pgutil.NullTime(item.ProductionDate), item.CreatedAt)
		if err != nil {
			return apperror.NewDBError("Falha ao inserir item da ordem", err)
		}
		return nil
	})
	if err != nil {
		return domain.ShipmentOrderItem{}, err
	}

	item.Scans = []domain.ShipmentOrderItemScan{}
	return item, nil
}

// AddScan registra a leitura com a ordem bloqueada e promove PENDING para IN_PROGRESS.
// Os índices únicos (order_item_id, crate_id) e (order_id, crate_id) rejeitam leituras repetidas.
func (r *Repository) AddScan(ctx context.Context, tenantID, orderID string, scan domain.ShipmentOrderItemScan, guard domain.OrderGuard) (domain.ShipmentOrderItemScan, error) {
	err := pgutil.InTx(ctx, r.DB, r.DBTimeout, func(ctx context.Context, tx *sql.Tx) error {
		order, err := LoadOrder(ctx, tx, tenantID, orderID, true)
		if err != nil {
			return err
		}
		if err := guard(order); err != nil {
			return err
		}

		scan.OrderID = order.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO shipment_order_item_scans (id, order_id, order_item_id, crate_id, actual_quantity, location_id, scanned_by_user_id, scanned_at)
             SELECT $1, $2, i.id, c.id, $5, $6, $7, $8
             FROM shipment_order_items i, crates c
             WHERE i.id = $3 AND i.order_id = $2 AND c.id = $4 AND c.tenant_id = $9 AND c.deleted_at IS NULL`,
			scan.ID, scan.OrderID, scan.OrderItemID, scan.CrateID, scan.ActualQuantity, scan.LocationID, scan.ScannedByUserID, scan.ScannedAt, tenantID)
		if err != nil {
			return pgutil.Translate(err, "Falha ao inserir leitura", fmt.Sprintf("A caixa '%s' já foi lida nesta ordem.", scan.CrateNfcUID))
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperror.NewNotFoundError("Item da ordem ou caixa não encontrado.")
		}

		if order.Status == domain.OrderPending {
			if _, err := tx.ExecContext(ctx,
				`UPDATE shipment_orders SET status = $3, updated_at = $4 WHERE id = $1 AND tenant_id = $2`,
				order.ID, tenantID, domain.OrderInProgress, scan.ScannedAt); err != nil {
				return apperror.NewDBError("Falha ao iniciar ordem", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.ShipmentOrderItemScan{}, err
	}

	r.logger.Info("Leitura registrada no repositório.", map[string]interface{}{"order_id": orderID, "crate_id": scan.CrateID})
	return scan, nil
}

// CancelOrder move a ordem para CANCELED.
func (r *Repository) CancelOrder(ctx context.Context, tenantID, orderID string, guard domain.OrderGuard, at time.Time) (domain.ShipmentOrder, error) {
	var out domain.ShipmentOrder
	err := pgutil.InTx(ctx, r.DB, r.DBTimeout, func(ctx context.Context, tx *sql.Tx) error {
		order, err := LoadOrder(ctx, tx, tenantID, orderID, true)
		if err != nil {
			return err
		}
		if err := guard(order); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE shipment_orders SET status = $3, updated_at = $4 WHERE id = $1 AND tenant_id = $2`,
			order.ID, tenantID, domain.OrderCanceled, at); err != nil {
			return apperror.NewDBError("Falha ao cancelar ordem", err)
		}
		order.Status = domain.OrderCanceled
		order.UpdatedAt = at
		out = order
		return nil
	})
	return out, err
}

// DeleteOrder remove leituras, itens e a ordem, nesta ordem, numa única transação.
func (r *Repository) DeleteOrder(ctx context.Context, tenantID, orderID string, guard domain.OrderGuard) error {
	return pgutil.InTx(ctx, r.DB, r.DBTimeout, func(ctx context.Context, tx *sql.Tx) error {
		order, err := LoadOrder(ctx, tx, tenantID, orderID, true)
		if err != nil {
			return err
		}
		if err := guard(order); err != nil {
			return err
		}

		steps := []struct {
			query string
			what  string
		}{
			{`DELETE FROM shipment_order_item_scans WHERE order_id = $1`, "leituras"},
			{`DELETE FROM shipment_order_items WHERE order_id = $1`, "itens"},
			{`DELETE FROM shipment_orders WHERE id = $1`, "ordem"},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, order.ID); err != nil {
				return apperror.NewDBError(fmt.Sprintf("Falha ao remover %s", step.what), err)
			}
		}
		return nil
	})
}
