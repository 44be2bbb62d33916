package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var ErrNestedTransaction = errors.New("transaction already in progress on this connection")

// WithTransaction runs fn inside a single-level transaction on conn.
// fn's error is returned after rollback; a panic rolls back and keeps unwinding.
func WithTransaction(ctx context.Context, conn *Conn, fn func(tx *gorm.DB) error) error {
	_, err := InTransaction(ctx, conn, func(tx *gorm.DB) (struct{}, error) {
		return struct{}{}, fn(tx)
	})
	return err
}

// InTransaction is WithTransaction for units of work that return a value.
// On commit the value is returned unchanged.
func InTransaction[T any](ctx context.Context, conn *Conn, fn func(tx *gorm.DB) (T, error)) (result T, err error) {
	var zero T

	if err := conn.beginTx(); err != nil {
		return zero, err
	}
	defer conn.endTx()

	tx := conn.DB().WithContext(ctx).Begin()
	if tx.Error != nil {
		return zero, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	finished := false
	defer func() {
		// also reached while a panic from fn unwinds
		if !finished {
			tx.Rollback()
		}
	}()

	result, err = fn(tx)
	if err != nil {
		finished = true
		if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, gorm.ErrInvalidTransaction) {
			return zero, errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return zero, err
	}

	finished = true
	if err := tx.Commit().Error; err != nil {
		return zero, fmt.Errorf("commit transaction: %w", err)
	}

	return result, nil
}
