package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arjunmehta/tradejournal/internal/domain/enums"
	"github.com/arjunmehta/tradejournal/internal/domain/model"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderInvalid        = errors.New("invalid order payload")
	ErrDuplicateProviderTx = errors.New("provider tx already attached to another order")
)

const orderColumns = `id, user_id, amount, currency, method, provider, status, period, provider_tx_id, meta, review_chat_id, telegram_message_id, created_at, updated_at`

type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

type CreateOrderInput struct {
	UserID       int64
	Amount       int64
	Currency     string
	Method       enums.PaymentMethod
	Provider     enums.PaymentProvider
	Period       enums.PlanPeriod
	ProviderTxID *string
	Meta         map[string]any
	ReviewChatID *int64
}

func (r *OrderRepo) Create(ctx context.Context, in CreateOrderInput) (model.Order, error) {
	if r.pool == nil {
		return model.Order{}, fmt.Errorf("postgres pool is nil")
	}
	if in.UserID <= 0 || in.Amount <= 0 {
		return model.Order{}, ErrOrderInvalid
	}

	metaJSON, err := marshalMeta(in.Meta)
	if err != nil {
		return model.Order{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "INR"
	}

	orderID := uuid.NewString()
	row := r.pool.QueryRow(ctx, `
INSERT INTO orders (
	id,
	user_id,
	amount,
	currency,
	method,
	provider,
	status,
	period,
	provider_tx_id,
	meta,
	review_chat_id,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, 'created', $7, $8, $9::jsonb, $10, NOW(), NOW())
RETURNING `+orderColumns,
		orderID, in.UserID, in.Amount, currency, in.Method, in.Provider, in.Period, in.ProviderTxID, metaJSON, in.ReviewChatID)

	order, err := scanOrder(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Order{}, ErrDuplicateProviderTx
		}
		return model.Order{}, fmt.Errorf("create order: %w", err)
	}

	return order, nil
}

func (r *OrderRepo) FindByID(ctx context.Context, orderID model.OrderID) (model.Order, error) {
	if r.pool == nil {
		return model.Order{}, fmt.Errorf("postgres pool is nil")
	}
	if orderID.IsZero() {
		return model.Order{}, ErrOrderInvalid
	}

	order, err := scanOrder(r.pool.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE id = $1
LIMIT 1
`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, fmt.Errorf("find order by id: %w", err)
	}

	return order, nil
}

func (r *OrderRepo) FindByProviderTx(ctx context.Context, provider enums.PaymentProvider, providerTxID string) (model.Order, error) {
	if r.pool == nil {
		return model.Order{}, fmt.Errorf("postgres pool is nil")
	}
	providerTxID = strings.TrimSpace(providerTxID)
	if provider == "" || providerTxID == "" {
		return model.Order{}, ErrOrderInvalid
	}

	order, err := scanOrder(r.pool.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE provider = $1
  AND provider_tx_id = $2
LIMIT 1
`, provider, providerTxID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, fmt.Errorf("find order by provider tx: %w", err)
	}

	return order, nil
}

func (r *OrderRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]model.Order, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, ErrOrderInvalid
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders for user: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func (r *OrderRepo) ListByStatus(ctx context.Context, status enums.OrderStatus, limit int) ([]model.Order, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if status == "" {
		return nil, ErrOrderInvalid
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE status = $1
ORDER BY created_at ASC
LIMIT $2
`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

// UpdateStatus is the authoritative status transition: a direct update with no
// revision check. Concurrent writers race and the last write wins.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID model.OrderID, status enums.OrderStatus) (model.Order, error) {
	if r.pool == nil {
		return model.Order{}, fmt.Errorf("postgres pool is nil")
	}
	if orderID.IsZero() || status == "" {
		return model.Order{}, ErrOrderInvalid
	}

	order, err := scanOrder(r.pool.QueryRow(ctx, `
UPDATE orders
SET status = $2,
    updated_at = NOW()
WHERE id = $1
RETURNING `+orderColumns, orderID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, fmt.Errorf("update order status: %w", err)
	}

	return order, nil
}

// MarkPaid attaches the provider transaction id and moves the order to paid
// in one statement. The second return reports whether this call changed the
// row; a replayed confirmation finds the order already paid and returns it
// with changed=false.
func (r *OrderRepo) MarkPaid(ctx context.Context, orderID model.OrderID, providerTxID string) (model.Order, bool, error) {
	if r.pool == nil {
		return model.Order{}, false, fmt.Errorf("postgres pool is nil")
	}
	if orderID.IsZero() || strings.TrimSpace(providerTxID) == "" {
		return model.Order{}, false, ErrOrderInvalid
	}

	var (
		order   model.Order
		changed bool
	)
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		var err error
		order, err = scanOrder(tx.QueryRow(txCtx, `
UPDATE orders
SET status = 'paid',
    provider_tx_id = $2,
    updated_at = NOW()
WHERE id = $1
  AND status <> 'paid'
RETURNING `+orderColumns, orderID, providerTxID))
		if err == nil {
			changed = true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		// The order is already paid or missing; read it in the same snapshot.
		order, err = scanOrder(tx.QueryRow(txCtx, `
SELECT `+orderColumns+`
FROM orders
WHERE id = $1
`, orderID))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return err
	})
	if err == nil {
		return order, changed, nil
	}
	if errors.Is(err, ErrOrderNotFound) {
		return model.Order{}, false, ErrOrderNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return model.Order{}, false, ErrDuplicateProviderTx
	}

	return model.Order{}, false, fmt.Errorf("mark order paid: %w", err)
}

// SetTelegramMessage stores the published notification handle. The column is
// written, never nulled; republishing overwrites it with the newest handle.
func (r *OrderRepo) SetTelegramMessage(ctx context.Context, orderID model.OrderID, messageID int) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if orderID.IsZero() || messageID == 0 {
		return ErrOrderInvalid
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE orders
SET telegram_message_id = $2,
    updated_at = NOW()
WHERE id = $1
`, orderID, messageID)
	if err != nil {
		return fmt.Errorf("set order telegram message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		order   model.Order
		rawMeta []byte
	)
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Amount,
		&order.Currency,
		&order.Method,
		&order.Provider,
		&order.Status,
		&order.Period,
		&order.ProviderTxID,
		&rawMeta,
		&order.ReviewChatID,
		&order.TelegramMessageID,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return model.Order{}, err
	}

	order.Meta = decodeMeta(rawMeta)
	return order, nil
}

func marshalMeta(meta map[string]any) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal order meta: %w", err)
	}
	return string(raw), nil
}

func decodeMeta(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		return map[string]any{}
	}
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
