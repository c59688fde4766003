package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumen-shop/storefront-service/internal/domain"
)

// CartRepository defines persistence access for shopping carts.
type CartRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.CartLine, error)
	// AddItem merges quantity into the (user, product) line, creating it when
	// absent, and fails with ErrInsufficientStock without writing when the
	// resulting quantity exceeds stock.
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.CartItem, error)
	SetQuantity(ctx context.Context, userID, itemID int64, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) (int64, error)
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

type cartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a Postgres-backed implementation.
func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &cartRepository{pool: pool}
}

func (r *cartRepository) ListByUser(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	const query = `
        SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
               p.name, p.price, p.image_url, p.category
        FROM cart_items ci
        JOIN products p ON p.id = ci.product_id
        WHERE ci.user_id=$1
        ORDER BY ci.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.ProductID,
			&l.Quantity,
			&l.CreatedAt,
			&l.UpdatedAt,
			&l.ProductName,
			&l.Price,
			&l.ImageURL,
			&l.Category,
		); err != nil {
			return nil, translate(err)
		}
		l.Subtotal = l.Price * float64(l.Quantity)
		lines = append(lines, l)
	}
	return lines, translate(rows.Err())
}

func (r *cartRepository) AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.CartItem, error) {
	const upsert = `
        INSERT INTO cart_items (user_id, product_id, quantity)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, product_id) DO UPDATE
        SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
        RETURNING id, user_id, product_id, quantity, created_at, updated_at`

	var item domain.CartItem
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		stock, err := lockStock(ctx, tx, productID)
		if err != nil {
			return err
		}
		if err := scanCartItem(tx.QueryRow(ctx, upsert, userID, productID, quantity), &item); err != nil {
			return err
		}
		if item.Quantity > stock {
			return ErrInsufficientStock
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, userID, itemID int64, quantity int) (*domain.CartItem, error) {
	const update = `
        UPDATE cart_items SET quantity=$3, updated_at=NOW()
        WHERE id=$1 AND user_id=$2
        RETURNING id, user_id, product_id, quantity, created_at, updated_at`

	var item domain.CartItem
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := scanCartItem(tx.QueryRow(ctx, update, itemID, userID, quantity), &item); err != nil {
			return err
		}
		stock, err := lockStock(ctx, tx, item.ProductID)
		if err != nil {
			return err
		}
		if item.Quantity > stock {
			return ErrInsufficientStock
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, itemID int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id=$1 AND user_id=$2`, itemID, userID)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, userID int64) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	if err != nil {
		return 0, translate(err)
	}
	return cmd.RowsAffected(), nil
}

func (r *cartRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE updated_at < $1`, before)
	if err != nil {
		return 0, translate(err)
	}
	return cmd.RowsAffected(), nil
}

// lockStock reads the stock of an active product and holds a share lock on it
// until the transaction ends.
func lockStock(ctx context.Context, tx pgx.Tx, productID int64) (int, error) {
	var stock int
	err := tx.QueryRow(ctx,
		`SELECT stock_quantity FROM products WHERE id=$1 AND active FOR SHARE`, productID,
	).Scan(&stock)
	return stock, err
}

func scanCartItem(row pgx.Row, item *domain.CartItem) error {
	return row.Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
}
