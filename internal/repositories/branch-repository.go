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

const branchTable = "branches"

var branchColumns = []string{"id", "school_id", "name", "code", "address", "phone_number", "deleted_at", "created_at", "updated_at"}

// BranchListSpec: поиск также по названию и коду школы.
var BranchListSpec = db.ListSpec{
	Table:         branchTable,
	Alias:         "b",
	Columns:       branchColumns,
	SearchColumns: []string{"name", "code", "address", "phone_number"},
	RelatedSearches: []db.RelatedSearch{{
		From:    "schools rs",
		Link:    "rs.id = b.school_id",
		Columns: []string{"rs.name", "rs.code"},
	}},
	Filters: map[string]db.FilterFunc{
		"school_id": db.EqFilter("b.school_id"),
	},
	SortColumns: []string{"name", "code", "created_at", "updated_at"},
	RelatedSorts: map[string]db.RelatedSort{
		"school_name": {Joins: []string{"LEFT JOIN schools ss ON ss.id = b.school_id"}, Column: "ss.name"},
	},
	SoftDelete: true,
}

type BranchRepositoryInterface interface {
	List(ctx context.Context, plan db.Plan) ([]entities.Branch, uint64, error)
	ListBySchool(ctx context.Context, schoolID uint64) ([]entities.Branch, error)
	// ListBySchools - неудалённые филиалы нескольких школ одним запросом
	ListBySchools(ctx context.Context, schoolIDs []uint64) ([]entities.Branch, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64, withTrashed bool) (*entities.Branch, error)
	CodeExists(ctx context.Context, schoolID uint64, code string, excludeID uint64) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, branch *entities.Branch) error
	Update(ctx context.Context, tx pgx.Tx, branch *entities.Branch) error
	SoftDelete(ctx context.Context, tx pgx.Tx, id uint64) error
	Restore(ctx context.Context, tx pgx.Tx, id uint64) error
	ForceDelete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type BranchRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewBranchRepository(storage *pgxpool.Pool, logger *zap.Logger) BranchRepositoryInterface {
	return &BranchRepository{storage: storage, logger: logger}
}

func scanBranch(row pgx.Row) (*entities.Branch, error) {
	var b entities.Branch
	err := row.Scan(&b.ID, &b.SchoolID, &b.Name, &b.Code, &b.Address, &b.PhoneNumber, &b.DeletedAt, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования branch: %w", err)
	}
	return &b, nil
}

func (r *BranchRepository) collect(rows pgx.Rows, capacity uint64) ([]entities.Branch, error) {
	defer rows.Close()
	branches := make([]entities.Branch, 0, capacity)
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, *b)
	}
	return branches, rows.Err()
}

func (r *BranchRepository) List(ctx context.Context, plan db.Plan) ([]entities.Branch, uint64, error) {
	countSQL, countArgs, err := plan.CountQuery(psql).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("подсчёт филиалов: %w", err)
	}
	if total == 0 {
		return []entities.Branch{}, 0, nil
	}

	query, args, err := plan.SelectQuery(psql).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("выборка филиалов: %w", err)
	}
	branches, err := r.collect(rows, plan.PerPage)
	return branches, total, err
}

func (r *BranchRepository) ListBySchool(ctx context.Context, schoolID uint64) ([]entities.Branch, error) {
	query, args, err := psql.Select(branchColumns...).From(branchTable).
		Where(sq.Eq{"school_id": schoolID}).Where("deleted_at IS NULL").
		OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("филиалы школы %d: %w", schoolID, err)
	}
	return r.collect(rows, 8)
}

func (r *BranchRepository) ListBySchools(ctx context.Context, schoolIDs []uint64) ([]entities.Branch, error) {
	if len(schoolIDs) == 0 {
		return []entities.Branch{}, nil
	}
	query, args, err := psql.Select(branchColumns...).From(branchTable).
		Where(sq.Eq{"school_id": schoolIDs}).Where("deleted_at IS NULL").
		OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("филиалы школ: %w", err)
	}
	return r.collect(rows, 8)
}

func (r *BranchRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64, withTrashed bool) (*entities.Branch, error) {
	builder := psql.Select(branchColumns...).From(branchTable).Where(sq.Eq{"id": id})
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
	return scanBranch(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

// CodeExists - код уникален только в пределах школы.
func (r *BranchRepository) CodeExists(ctx context.Context, schoolID uint64, code string, excludeID uint64) (bool, error) {
	return exists(ctx, r.storage, `SELECT 1 FROM branches WHERE school_id = $1 AND code = $2 AND id <> $3`, schoolID, code, excludeID)
}

func (r *BranchRepository) Create(ctx context.Context, tx pgx.Tx, branch *entities.Branch) error {
	query := `
		INSERT INTO branches (school_id, name, code, address, phone_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := pick(r.storage, tx).QueryRow(ctx, query,
		branch.SchoolID, branch.Name, branch.Code, branch.Address, branch.PhoneNumber,
	).Scan(&branch.ID, &branch.CreatedAt, &branch.UpdatedAt)
	return apperrors.TranslateDBError(err)
}

func (r *BranchRepository) Update(ctx context.Context, tx pgx.Tx, branch *entities.Branch) error {
	query := `
		UPDATE branches
		SET school_id = $1, name = $2, code = $3, address = $4, phone_number = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := pick(r.storage, tx).QueryRow(ctx, query,
		branch.SchoolID, branch.Name, branch.Code, branch.Address, branch.PhoneNumber, branch.ID,
	).Scan(&branch.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return apperrors.TranslateDBError(err)
}

func (r *BranchRepository) SoftDelete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return softDelete(ctx, pick(r.storage, tx), branchTable, id)
}

func (r *BranchRepository) Restore(ctx context.Context, tx pgx.Tx, id uint64) error {
	return restore(ctx, pick(r.storage, tx), branchTable, id)
}

func (r *BranchRepository) ForceDelete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return forceDelete(ctx, pick(r.storage, tx), branchTable, id)
}
