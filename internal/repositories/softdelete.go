package repositories

import (
	"context"
	"fmt"

	apperrors "school-system/pkg/errors"
)

// Общие операции мягкого удаления для schools, branches, departments.

func softDelete(ctx context.Context, q querier, table string, id uint64) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, table)
	result, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("мягкое удаление %s: %w", table, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func restore(ctx context.Context, q querier, table string, id uint64) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL`, table)
	result, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("восстановление %s: %w", table, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func forceDelete(ctx context.Context, q querier, table string, id uint64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)
	result, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("полное удаление %s: %w", table, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func exists(ctx context.Context, q querier, query string, args ...interface{}) (bool, error) {
	var found bool
	if err := q.QueryRow(ctx, "SELECT EXISTS ("+query+")", args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}
