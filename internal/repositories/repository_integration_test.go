package repositories

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"school-system/internal/entities"
	db "school-system/internal/infrastructure/bd"
	"school-system/pkg/database/postgresql"
	apperrors "school-system/pkg/errors"
)

var testPool *pgxpool.Pool

// TestMain поднимает тестовую БД из TEST_DATABASE_URL. Без переменной интеграционные тесты пропускаются.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		if err := postgresql.Migrate(dsn); err != nil {
			log.Fatalf("Не удалось применить миграции: %v", err)
		}
		var err error
		testPool, err = postgresql.ConnectDB(context.Background(), dsn)
		if err != nil {
			log.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
		}
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL не задан")
	}
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE TABLE departments, branches, schools, notifications, settings, user_roles, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Не удалось очистить таблицы")
}

func strp(s string) *string { return &s }

func seedSchool(t *testing.T, repo SchoolRepositoryInterface, n int) *entities.School {
	t.Helper()
	s := &entities.School{
		Name:        fmt.Sprintf("School %d", n),
		Code:        strp(fmt.Sprintf("S%d", n)),
		Address:     "Main st.",
		Email:       fmt.Sprintf("s%d@school.edu", n),
		PhoneNumber: "555-0100",
	}
	require.NoError(t, repo.Create(context.Background(), nil, s))
	return s
}

func TestSchoolRepository_Integration_SoftDeleteRestorePurge(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewSchoolRepository(testPool, zap.NewNop())

	school := seedSchool(t, repo, 1)
	require.NotZero(t, school.ID)

	require.NoError(t, repo.SoftDelete(ctx, nil, school.ID))

	_, err := repo.FindByID(ctx, nil, school.ID, false)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	trashed, err := repo.FindByID(ctx, nil, school.ID, true)
	require.NoError(t, err)
	assert.True(t, trashed.Trashed())

	// код занят даже удалённой школой
	taken, err := repo.CodeExists(ctx, "S1", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	assert.ErrorIs(t, repo.SoftDelete(ctx, nil, school.ID), apperrors.ErrNotFound, "повторное удаление")

	require.NoError(t, repo.Restore(ctx, nil, school.ID))
	assert.ErrorIs(t, repo.Restore(ctx, nil, school.ID), apperrors.ErrNotFound, "восстановить можно только удалённую")

	require.NoError(t, repo.ForceDelete(ctx, nil, school.ID))
	_, err = repo.FindByID(ctx, nil, school.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBranchRepository_Integration_CodeUniquePerSchool(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	schools := NewSchoolRepository(testPool, zap.NewNop())
	branches := NewBranchRepository(testPool, zap.NewNop())

	first := seedSchool(t, schools, 1)
	second := seedSchool(t, schools, 2)

	mk := func(schoolID uint64) *entities.Branch {
		return &entities.Branch{SchoolID: schoolID, Name: "Downtown", Code: strp("DT"), Address: "1st ave", PhoneNumber: "555-2000"}
	}

	require.NoError(t, branches.Create(ctx, nil, mk(first.ID)))
	require.NoError(t, branches.Create(ctx, nil, mk(second.ID)), "тот же код в другой школе допустим")

	err := branches.Create(ctx, nil, mk(first.ID))
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "branches_school_id_code_key", conflict.Constraint)

	taken, err := branches.CodeExists(ctx, first.ID, "DT", 0)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestDepartmentRepository_Integration_ListFilteredBySchool(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	schools := NewSchoolRepository(testPool, zap.NewNop())
	branches := NewBranchRepository(testPool, zap.NewNop())
	departments := NewDepartmentRepository(testPool, zap.NewNop())

	school := seedSchool(t, schools, 1)
	other := seedSchool(t, schools, 2)

	var branchIDs []uint64
	for _, sid := range []uint64{school.ID, other.ID} {
		b := &entities.Branch{SchoolID: sid, Name: "Main", Address: "x", PhoneNumber: "555-3000"}
		require.NoError(t, branches.Create(ctx, nil, b))
		branchIDs = append(branchIDs, b.ID)
	}
	for i, bid := range branchIDs {
		for j := 0; j < 2; j++ {
			d := &entities.Department{BranchID: bid, Name: fmt.Sprintf("Science %d-%d", i, j), Code: fmt.Sprintf("SCI%d", j)}
			require.NoError(t, departments.Create(ctx, nil, d))
		}
	}

	values := url.Values{"school_id": {fmt.Sprint(school.ID)}, "sort_by": {"school_name"}, "sort_order": {"asc"}}
	plan, err := db.BuildPlan(DepartmentListSpec, db.ParseListParams(values))
	require.NoError(t, err)

	list, total, err := departments.List(ctx, plan)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, list, 2)
	for _, d := range list {
		assert.Equal(t, branchIDs[0], d.BranchID)
	}
}

func TestTxManager_Integration_RollbackOnError(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewSchoolRepository(testPool, zap.NewNop())
	tm := NewTxManager(testPool)

	school := seedSchool(t, repo, 1)

	err := tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
		locked, err := repo.FindByID(ctx, tx, school.ID, false)
		if err != nil {
			return err
		}
		locked.Name = "Renamed"
		if err := repo.Update(ctx, tx, locked); err != nil {
			return err
		}
		return apperrors.ErrBadRequest
	})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	fresh, err := repo.FindByID(ctx, nil, school.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "School 1", fresh.Name)
}

func TestNotificationRepository_Integration_MarkReadOnce(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewNotificationRepository(testPool, zap.NewNop())

	var userID, otherID uint64
	require.NoError(t, testPool.QueryRow(ctx,
		`INSERT INTO users (name, email, password) VALUES ('Reader', 'reader@school.edu', 'x') RETURNING id`).Scan(&userID))
	require.NoError(t, testPool.QueryRow(ctx,
		`INSERT INTO users (name, email, password) VALUES ('Other', 'other@school.edu', 'x') RETURNING id`).Scan(&otherID))

	n := &entities.Notification{UserID: userID, Type: entities.NotificationInfo, Title: "T", Message: "M", Data: []byte(`{}`)}
	require.NoError(t, repo.Create(ctx, n))

	require.NoError(t, repo.MarkRead(ctx, userID, n.ID))
	first, err := repo.ListForUser(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.True(t, first[0].Read)

	require.NoError(t, repo.MarkRead(ctx, userID, n.ID))
	second, err := repo.ListForUser(ctx, userID, 10)
	require.NoError(t, err)
	assert.Equal(t, first[0].ReadAt, second[0].ReadAt)
	assert.Equal(t, first[0].UpdatedAt, second[0].UpdatedAt, "повторная отметка не меняет строку")

	assert.ErrorIs(t, repo.MarkRead(ctx, otherID, n.ID), apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.MarkRead(ctx, userID, n.ID+100), apperrors.ErrNotFound)
}
