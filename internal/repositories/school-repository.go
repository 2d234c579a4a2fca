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

const schoolTable = "schools"

var schoolColumns = []string{"id", "name", "code", "address", "email", "phone_number", "deleted_at", "created_at", "updated_at"}

// SchoolListSpec - поиск, фильтры и сортировка списка школ.
var SchoolListSpec = db.ListSpec{
	Table:         schoolTable,
	Alias:         "s",
	Columns:       schoolColumns,
	SearchColumns: []string{"name", "code", "address", "email", "phone_number"},
	SortColumns:   []string{"name", "code", "email", "created_at", "updated_at"},
	SoftDelete:    true,
}

type SchoolRepositoryInterface interface {
	List(ctx context.Context, plan db.Plan) ([]entities.School, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64, withTrashed bool) (*entities.School, error)
	CodeExists(ctx context.Context, code string, excludeID uint64) (bool, error)
	EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, school *entities.School) error
	Update(ctx context.Context, tx pgx.Tx, school *entities.School) error
	SoftDelete(ctx context.Context, tx pgx.Tx, id uint64) error
	Restore(ctx context.Context, tx pgx.Tx, id uint64) error
	ForceDelete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type SchoolRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewSchoolRepository(storage *pgxpool.Pool, logger *zap.Logger) SchoolRepositoryInterface {
	return &SchoolRepository{storage: storage, logger: logger}
}

func scanSchool(row pgx.Row) (*entities.School, error) {
	var s entities.School
	err := row.Scan(&s.ID, &s.Name, &s.Code, &s.Address, &s.Email, &s.PhoneNumber, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования school: %w", err)
	}
	return &s, nil
}

func (r *SchoolRepository) List(ctx context.Context, plan db.Plan) ([]entities.School, uint64, error) {
	countSQL, countArgs, err := plan.CountQuery(psql).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("подсчёт школ: %w", err)
	}
	if total == 0 {
		return []entities.School{}, 0, nil
	}

	query, args, err := plan.SelectQuery(psql).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("выборка школ: %w", err)
	}
	defer rows.Close()

	schools := make([]entities.School, 0, plan.PerPage)
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, 0, err
		}
		schools = append(schools, *s)
	}
	return schools, total, rows.Err()
}

func (r *SchoolRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64, withTrashed bool) (*entities.School, error) {
	builder := psql.Select(schoolColumns...).From(schoolTable).Where(sq.Eq{"id": id})
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
	return scanSchool(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *SchoolRepository) CodeExists(ctx context.Context, code string, excludeID uint64) (bool, error) {
	return exists(ctx, r.storage, `SELECT 1 FROM schools WHERE code = $1 AND id <> $2`, code, excludeID)
}

func (r *SchoolRepository) EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error) {
	return exists(ctx, r.storage, `SELECT 1 FROM schools WHERE lower(email) = lower($1) AND id <> $2`, email, excludeID)
}

func (r *SchoolRepository) Create(ctx context.Context, tx pgx.Tx, school *entities.School) error {
	query := `
		INSERT INTO schools (name, code, address, email, phone_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := pick(r.storage, tx).QueryRow(ctx, query,
		school.Name, school.Code, school.Address, school.Email, school.PhoneNumber,
	).Scan(&school.ID, &school.CreatedAt, &school.UpdatedAt)
	return apperrors.TranslateDBError(err)
}

func (r *SchoolRepository) Update(ctx context.Context, tx pgx.Tx, school *entities.School) error {
	query := `
		UPDATE schools
		SET name = $1, code = $2, address = $3, email = $4, phone_number = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := pick(r.storage, tx).QueryRow(ctx, query,
		school.Name, school.Code, school.Address, school.Email, school.PhoneNumber, school.ID,
	).Scan(&school.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return apperrors.TranslateDBError(err)
}

func (r *SchoolRepository) SoftDelete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return softDelete(ctx, pick(r.storage, tx), schoolTable, id)
}

func (r *SchoolRepository) Restore(ctx context.Context, tx pgx.Tx, id uint64) error {
	return restore(ctx, pick(r.storage, tx), schoolTable, id)
}

func (r *SchoolRepository) ForceDelete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return forceDelete(ctx, pick(r.storage, tx), schoolTable, id)
}
