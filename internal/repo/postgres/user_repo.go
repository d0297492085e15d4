package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arjunmehta/tradejournal/internal/domain/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrUserInvalid  = errors.New("invalid user payload")
)

const userColumns = `id, email, name, role, timezone, subscription_plan, subscription_type, subscription_status, subscription_start_at, subscription_expires_at, subscription_created_at, last_billing_date, next_billing_date, orders, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

// Credentials is the auth-only projection of a user row.
type Credentials struct {
	UserID       int64
	Email        string
	Role         string
	PasswordHash string
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, email, name, passwordHash string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(passwordHash) == "" {
		return model.User{}, ErrUserInvalid
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO users (
	email,
	name,
	password_hash,
	role,
	timezone,
	subscription_plan,
	subscription_type,
	subscription_status,
	orders,
	created_at,
	updated_at
) VALUES ($1, $2, $3, 'USER', 'UTC', 'none', 'none', 'none', '[]'::jsonb, NOW(), NOW())
RETURNING `+userColumns, email, strings.TrimSpace(name), passwordHash)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, userID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.User{}, ErrUserInvalid
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = $1
LIMIT 1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepo) FindCredentialsByEmail(ctx context.Context, email string) (Credentials, error) {
	if r.pool == nil {
		return Credentials{}, fmt.Errorf("postgres pool is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Credentials{}, ErrUserInvalid
	}

	var creds Credentials
	err := r.pool.QueryRow(ctx, `
SELECT id, email, role, password_hash
FROM users
WHERE email = $1
LIMIT 1
`, email).Scan(&creds.UserID, &creds.Email, &creds.Role, &creds.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credentials{}, ErrUserNotFound
		}
		return Credentials{}, fmt.Errorf("find credentials by email: %w", err)
	}

	return creds, nil
}

// SaveSubscription persists the subscription columns and the embedded order
// history in one update. The post-processor mutates the model; this call is
// the only dirty-marking step there is.
func (r *UserRepo) SaveSubscription(ctx context.Context, user model.User) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if user.ID <= 0 {
		return ErrUserInvalid
	}

	ordersJSON, err := marshalOrderHistory(user.Orders)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET
	subscription_plan = $2,
	subscription_type = $3,
	subscription_status = $4,
	subscription_start_at = $5,
	subscription_expires_at = $6,
	subscription_created_at = $7,
	last_billing_date = $8,
	next_billing_date = $9,
	orders = $10::jsonb,
	updated_at = NOW()
WHERE id = $1
`,
		user.ID,
		user.SubscriptionPlan,
		user.SubscriptionType,
		user.SubscriptionStatus,
		user.SubscriptionStartAt,
		user.SubscriptionExpiresAt,
		user.SubscriptionCreatedAt,
		user.LastBillingDate,
		user.NextBillingDate,
		ordersJSON,
	)
	if err != nil {
		return fmt.Errorf("save user subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// AppendOrderSummary pushes a new entry onto the embedded order history.
func (r *UserRepo) AppendOrderSummary(ctx context.Context, userID int64, summary model.OrderSummary) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || summary.OrderID.IsZero() {
		return ErrUserInvalid
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal order summary: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET orders = COALESCE(orders, '[]'::jsonb) || $2::jsonb,
    updated_at = NOW()
WHERE id = $1
`, userID, string(raw))
	if err != nil {
		return fmt.Errorf("append order summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		user      model.User
		rawOrders []byte
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.Timezone,
		&user.SubscriptionPlan,
		&user.SubscriptionType,
		&user.SubscriptionStatus,
		&user.SubscriptionStartAt,
		&user.SubscriptionExpiresAt,
		&user.SubscriptionCreatedAt,
		&user.LastBillingDate,
		&user.NextBillingDate,
		&rawOrders,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return model.User{}, err
	}

	user.Orders = decodeOrderHistory(rawOrders)
	return user, nil
}

func marshalOrderHistory(orders []model.OrderSummary) (string, error) {
	if len(orders) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(orders)
	if err != nil {
		return "", fmt.Errorf("marshal order history: %w", err)
	}
	return string(raw), nil
}

func decodeOrderHistory(raw []byte) []model.OrderSummary {
	if len(raw) == 0 {
		return nil
	}
	var orders []model.OrderSummary
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil
	}
	return orders
}
