package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	err := translate(dup)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "users_email_key")

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "cart_items_product_id_fkey"}
	assert.ErrorIs(t, translate(fk), ErrNotFound)

	overflow := &pgconn.PgError{Code: "22003", Message: "integer out of range"}
	assert.ErrorIs(t, translate(overflow), ErrOutOfRange)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
	assert.Equal(t, error(&pgconn.PgError{Code: "40001"}), translate(&pgconn.PgError{Code: "40001"}))
}
