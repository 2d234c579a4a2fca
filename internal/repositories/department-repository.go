package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"school-system/internal/entities"
	db "school-system/internal/infrastructure/bd"
	apperrors "school-system/pkg/errors"
)

const departmentTable = "departments"

var departmentColumns = []string{"id", "branch_id", "name", "code", "description", "head_user_id", "deleted_at", "created_at", "updated_at"}

// DepartmentListSpec: поиск по отделу, его филиалу, школе филиала и руководителю.
var DepartmentListSpec = db.ListSpec{
	Table:         departmentTable,
	Alias:         "d",
	Columns:       departmentColumns,
	SearchColumns: []string{"name", "code", "description"},
	RelatedSearches: []db.RelatedSearch{
		{From: "branches rb", Link: "rb.id = d.branch_id", Columns: []string{"rb.name", "rb.code"}},
		{From: "branches rb2 JOIN schools rs ON rs.id = rb2.school_id", Link: "rb2.id = d.branch_id", Columns: []string{"rs.name", "rs.code"}},
		{From: "users ru", Link: "ru.id = d.head_user_id", Columns: []string{"ru.name", "ru.email"}},
	},
	Filters: map[string]db.FilterFunc{
		"branch_id": db.EqFilter("d.branch_id"),
		"school_id": db.ExistsFilter("branches fb", "fb.id = d.branch_id", "fb.school_id = ?"),
	},
	SortColumns: []string{"name", "code", "created_at", "updated_at"},
	RelatedSorts: map[string]db.RelatedSort{
		"branch_name": {
			Joins:  []string{"LEFT JOIN branches sb ON sb.id = d.branch_id"},
			Column: "sb.name",
		},
		"school_name": {
			Joins: []string{
				"LEFT JOIN branches sb ON sb.id = d.branch_id",
				"LEFT JOIN schools ss ON ss.id = sb.school_id",
			},
			Column: "ss.name",
		},
	},
	SoftDelete: true,
}

type DepartmentRepositoryInterface interface {
	List(ctx context.Context, plan db.Plan) ([]entities.Department, uint64, error)
	ListByBranch(ctx context.Context, branchID uint64) ([]entities.Department, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64, withTrashed bool) (*entities.Department, error)
	CodeExists(ctx context.Context, branchID uint64, code string, excludeID uint64) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, department *entities.Department) error
	Update(ctx context.Context, tx pgx.Tx, department *entities.Department) error
	SoftDelete(ctx context.Context, tx pgx.Tx, id uint64) error
	Restore(ctx context.Context, tx pgx.Tx, id uint64) error
	ForceDelete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type DepartmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDepartmentRepository(storage *pgxpool.Pool, logger *zap.Logger) DepartmentRepositoryInterface {
	return &DepartmentRepository{storage: storage, logger: logger}
}

func scanDepartment(row pgx.Row) (*entities.Department, error) {
	var d entities.Department
	err := row.Scan(&d.ID, &d.BranchID, &d.Name, &d.Code, &d.Description, &d.HeadUserID, &d.DeletedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования department: %w", err)
	}
	return &d, nil
}

func (r *DepartmentRepository) collect(rows pgx.Rows, capacity uint64) ([]entities.Department, error) {
	defer rows.Close()
	departments := make([]entities.Department, 0, capacity)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, *d)
	}
	return departments, rows.Err()
}

func (r *DepartmentRepository) List(ctx context.Context, plan db.Plan) ([]entities.Department, uint64, error) {
	countSQL, countArgs, err := plan.CountQuery(psql).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("подсчёт отделов: %w", err)
	}
	if total == 0 {
		return []entities.Department{}, 0, nil
	}

	query, args, err := plan.SelectQuery(psql).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("выборка отделов: %w", err)
	}
	departments, err := r.collect(rows, plan.PerPage)
	return departments, total, err
}

func (r *DepartmentRepository) ListByBranch(ctx context.Context, branchID uint64) ([]entities.Department, error) {
	query, args, err := psql.Select(departmentColumns...).From(departmentTable).
		Where(sq.Eq{"branch_id": branchID}).Where("deleted_at IS NULL").
		OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("отделы филиала %d: %w", branchID, err)
	}
	return r.collect(rows, 8)
}

func (r *DepartmentRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64, withTrashed bool) (*entities.Department, error) {
	builder := psql.Select(departmentColumns...).From(departmentTable).Where(sq.Eq{"id": id})
	if !withTrashed {
		builder = builder.Where("deleted_at IS NULL")
	}
	if tx != nil {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	return scanDepartment(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

// CodeExists - код уникален только в пределах филиала.
func (r *DepartmentRepository) CodeExists(ctx context.Context, branchID uint64, code string, excludeID uint64) (bool, error) {
	return exists(ctx, r.storage, `SELECT 1 FROM departments WHERE branch_id = $1 AND code = $2 AND id <> $3`, branchID, code, excludeID)
}

func (r *DepartmentRepository) Create(ctx context.Context, tx pgx.Tx, d *entities.Department) error {
	query := `
		INSERT INTO departments (branch_id, name, code, description, head_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := pick(r.storage, tx).QueryRow(ctx, query,
		d.BranchID, d.Name, d.Code, d.Description, d.HeadUserID,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return apperrors.TranslateDBError(err)
}

func (r *DepartmentRepository) Update(ctx context.Context, tx pgx.Tx, d *entities.Department) error {
	query := `
		UPDATE departments
		SET branch_id = $1, name = $2, code = $3, description = $4, head_user_id = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := pick(r.storage, tx).QueryRow(ctx, query,
		d.BranchID, d.Name, d.Code, d.Description, d.HeadUserID, d.ID,
	).Scan(&d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return apperrors.TranslateDBError(err)
}

func (r *DepartmentRepository) SoftDelete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return softDelete(ctx, pick(r.storage, tx), departmentTable, id)
}

func (r *DepartmentRepository) Restore(ctx context.Context, tx pgx.Tx, id uint64) error {
	return restore(ctx, pick(r.storage, tx), departmentTable, id)
}

func (r *DepartmentRepository) ForceDelete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return forceDelete(ctx, pick(r.storage, tx), departmentTable, id)
}
