// Package testutil - хранилища в памяти вместо PostgreSQL для тестов сервисов и маршрутов.
package testutil

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"school-system/internal/entities"
	db "school-system/internal/infrastructure/bd"
	"school-system/internal/repositories"
	apperrors "school-system/pkg/errors"
)

// Store - общее состояние фейковых репозиториев.
type Store struct {
	mu            sync.Mutex
	seq           uint64
	Schools       map[uint64]*entities.School
	Branches      map[uint64]*entities.Branch
	Departments   map[uint64]*entities.Department
	Users         map[uint64]*entities.User
	UserRoles     map[uint64][]string
	RolePerms     map[string][]string
	Notifications map[uint64]*entities.Notification
	Settings      map[string]*entities.Setting
	// FailNotificationsFor - Create уведомления для этих пользователей падает
	FailNotificationsFor map[uint64]bool
}

func NewStore() *Store {
	return &Store{
		Schools:              map[uint64]*entities.School{},
		Branches:             map[uint64]*entities.Branch{},
		Departments:          map[uint64]*entities.Department{},
		Users:                map[uint64]*entities.User{},
		UserRoles:            map[uint64][]string{},
		RolePerms:            map[string][]string{},
		Notifications:        map[uint64]*entities.Notification{},
		Settings:             map[string]*entities.Setting{},
		FailNotificationsFor: map[uint64]bool{},
	}
}

func (s *Store) next() uint64 {
	s.seq++
	return s.seq
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// AddUser добавляет пользователя с ролями и возвращает его.
func (s *Store) AddUser(name, email, passwordHash string, roles ...string) *entities.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &entities.User{ID: s.next(), Name: name, Email: email, Password: passwordHash}
	stamp(&u.CreatedAt, &u.UpdatedAt)
	s.Users[u.ID] = u
	s.UserRoles[u.ID] = roles
	return u
}

// UserNotifications - уведомления пользователя в порядке создания.
func (s *Store) UserNotifications(userID uint64) []entities.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Notification
	for _, n := range s.Notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func visible(deletedAt *time.Time, trashed string) bool {
	switch trashed {
	case db.TrashedWith:
		return true
	case db.TrashedOnly:
		return deletedAt != nil
	default:
		return deletedAt == nil
	}
}

func filterID(plan db.Plan, key string) (uint64, bool) {
	raw, ok := plan.Applied[key]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	return id, err == nil
}

func matches(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func page[T any](items []T, plan db.Plan) ([]T, uint64) {
	total := uint64(len(items))
	start := min(plan.Offset(), total)
	end := min(start+plan.Limit(), total)
	out := make([]T, 0, end-start)
	return append(out, items[start:end]...), total
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TxManager выполняет fn без транзакции.
type TxManager struct{}

func (TxManager) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

var _ repositories.TxManagerInterface = TxManager{}

// ---------- schools ----------

type SchoolRepo struct{ S *Store }

var _ repositories.SchoolRepositoryInterface = SchoolRepo{}

func (r SchoolRepo) List(_ context.Context, plan db.Plan) ([]entities.School, uint64, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	var items []entities.School
	for _, s := range r.S.Schools {
		if visible(s.DeletedAt, plan.Applied["trashed"]) &&
			matches(plan.Applied["search"], s.Name, strOrEmpty(s.Code), s.Address, s.Email, s.PhoneNumber) {
			items = append(items, *s)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	list, total := page(items, plan)
	return list, total, nil
}

func (r SchoolRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64, withTrashed bool) (*entities.School, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	s, ok := r.S.Schools[id]
	if !ok || (!withTrashed && s.DeletedAt != nil) {
		return nil, apperrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r SchoolRepo) CodeExists(_ context.Context, code string, excludeID uint64) (bool, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	for _, s := range r.S.Schools {
		if s.ID != excludeID && s.Code != nil && *s.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r SchoolRepo) EmailExists(_ context.Context, email string, excludeID uint64) (bool, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	for _, s := range r.S.Schools {
		if s.ID != excludeID && strings.EqualFold(s.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r SchoolRepo) Create(_ context.Context, _ pgx.Tx, school *entities.School) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	school.ID = r.S.next()
	stamp(&school.CreatedAt, &school.UpdatedAt)
	cp := *school
	r.S.Schools[school.ID] = &cp
	return nil
}

func (r SchoolRepo) Update(_ context.Context, _ pgx.Tx, school *entities.School) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	cur, ok := r.S.Schools[school.ID]
	if !ok || cur.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	stamp(&school.CreatedAt, &school.UpdatedAt)
	cp := *school
	cp.Branches = nil
	r.S.Schools[school.ID] = &cp
	return nil
}

func (r SchoolRepo) SoftDelete(_ context.Context, _ pgx.Tx, id uint64) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	s, ok := r.S.Schools[id]
	if !ok || s.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	now := time.Now().UTC()
	s.DeletedAt = &now
	return nil
}

func (r SchoolRepo) Restore(_ context.Context, _ pgx.Tx, id uint64) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	s, ok := r.S.Schools[id]
	if !ok || s.DeletedAt == nil {
		return apperrors.ErrNotFound
	}
	s.DeletedAt = nil
	return nil
}

// ForceDelete удаляет школу вместе с филиалами и отделами, как ON DELETE CASCADE.
func (r SchoolRepo) ForceDelete(_ context.Context, _ pgx.Tx, id uint64) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if _, ok := r.S.Schools[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.S.Schools, id)
	for bid, b := range r.S.Branches {
		if b.SchoolID == id {
			r.S.deleteBranchLocked(bid)
		}
	}
	return nil
}

// ---------- branches ----------

type BranchRepo struct{ S *Store }

var _ repositories.BranchRepositoryInterface = BranchRepo{}

func (s *Store) deleteBranchLocked(id uint64) {
	delete(s.Branches, id)
	for did, d := range s.Departments {
		if d.BranchID == id {
			delete(s.Departments, did)
		}
	}
}

func (r BranchRepo) List(_ context.Context, plan db.Plan) ([]entities.Branch, uint64, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	schoolID, bySchool := filterID(plan, "school_id")
	var items []entities.Branch
	for _, b := range r.S.Branches {
		if !visible(b.DeletedAt, plan.Applied["trashed"]) || (bySchool && b.SchoolID != schoolID) {
			continue
		}
		var schoolName string
		if s, ok := r.S.Schools[b.SchoolID]; ok {
			schoolName = s.Name
		}
		if matches(plan.Applied["search"], b.Name, strOrEmpty(b.Code), b.Address, b.PhoneNumber, schoolName) {
			items = append(items, *b)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	list, total := page(items, plan)
	return list, total, nil
}

func (r BranchRepo) ListBySchool(_ context.Context, schoolID uint64) ([]entities.Branch, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	items := []entities.Branch{}
	for _, b := range r.S.Branches {
		if b.SchoolID == schoolID && b.DeletedAt == nil {
			items = append(items, *b)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r BranchRepo) ListBySchools(ctx context.Context, schoolIDs []uint64) ([]entities.Branch, error) {
	items := []entities.Branch{}
	for _, id := range schoolIDs {
		branches, _ := r.ListBySchool(ctx, id)
		items = append(items, branches...)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r BranchRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64, withTrashed bool) (*entities.Branch, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	b, ok := r.S.Branches[id]
	if !ok || (!withTrashed && b.DeletedAt != nil) {
		return nil, apperrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r BranchRepo) CodeExists(_ context.Context, schoolID uint64, code string, excludeID uint64) (bool, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	for _, b := range r.S.Branches {
		if b.ID != excludeID && b.SchoolID == schoolID && b.Code != nil && *b.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r BranchRepo) Create(_ context.Context, _ pgx.Tx, branch *entities.Branch) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	branch.ID = r.S.next()
	stamp(&branch.CreatedAt, &branch.UpdatedAt)
	cp := *branch
	cp.School, cp.Departments = nil, nil
	r.S.Branches[branch.ID] = &cp
	return nil
}

func (r BranchRepo) Update(_ context.Context, _ pgx.Tx, branch *entities.Branch) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	cur, ok := r.S.Branches[branch.ID]
	if !ok || cur.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	stamp(&branch.CreatedAt, &branch.UpdatedAt)
	cp := *branch
	cp.School, cp.Departments = nil, nil
	r.S.Branches[branch.ID] = &cp
	return nil
}

func (r BranchRepo) SoftDelete(_ context.Context, _ pgx.Tx, id uint64) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	b, ok := r.S.Branches[id]
	if !ok || b.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	now := time.Now().UTC()
	b.DeletedAt = &now
	return nil
}

func (r BranchRepo) Restore(_ context.Context, _ pgx.Tx, id uint64) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	b, ok := r.S.Branches[id]
	if !ok || b.DeletedAt == nil {
		return apperrors.ErrNotFound
	}
	b.DeletedAt = nil
	return nil
}

func (r BranchRepo) ForceDelete(_ context.Context, _ pgx.Tx, id uint64) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if _, ok := r.S.Branches[id]; !ok {
		return apperrors.ErrNotFound
	}
	r.S.deleteBranchLocked(id)
	return nil
}

// ---------- departments ----------

type DepartmentRepo struct{ S *Store }

var _ repositories.DepartmentRepositoryInterface = DepartmentRepo{}

func (r DepartmentRepo) List(_ context.Context, plan db.Plan) ([]entities.Department, uint64, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	branchID, byBranch := filterID(plan, "branch_id")
	schoolID, bySchool := filterID(plan, "school_id")
	var items []entities.Department
	for _, d := range r.S.Departments {
		if !visible(d.DeletedAt, plan.Applied["trashed"]) || (byBranch && d.BranchID != branchID) {
			continue
		}
		branch := r.S.Branches[d.BranchID]
		if bySchool && (branch == nil || branch.SchoolID != schoolID) {
			continue
		}
		var branchName string
		if branch != nil {
			branchName = branch.Name
		}
		if matches(plan.Applied["search"], d.Name, d.Code, strOrEmpty(d.Description), branchName) {
			items = append(items, *d)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	list, total := page(items, plan)
	return list, total, nil
}

func (r DepartmentRepo) ListByBranch(_ context.Context, branchID uint64) ([]entities.Department, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	items := []entities.Department{}
	for _, d := range r.S.Departments {
		if d.BranchID == branchID && d.DeletedAt == nil {
			items = append(items, *d)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r DepartmentRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64, withTrashed bool) (*entities.Department, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	d, ok := r.S.Departments[id]
	if !ok || (!withTrashed && d.DeletedAt != nil) {
		return nil, apperrors.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r DepartmentRepo) CodeExists(_ context.Context, branchID uint64, code string, excludeID uint64) (bool, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	for _, d := range r.S.Departments {
		if d.ID != excludeID && d.BranchID == branchID && d.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r DepartmentRepo) Create(_ context.Context, _ pgx.Tx, d *entities.Department) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	d.ID = r.S.next()
	stamp(&d.CreatedAt, &d.UpdatedAt)
	cp := *d
	cp.Branch, cp.Head = nil, nil
	r.S.Departments[d.ID] = &cp
	return nil
}

func (r DepartmentRepo) Update(_ context.Context, _ pgx.Tx, d *entities.Department) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	cur, ok := r.S.Departments[d.ID]
	if !ok || cur.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	stamp(&d.CreatedAt, &d.UpdatedAt)
	cp := *d
	cp.Branch, cp.Head = nil, nil
	r.S.Departments[d.ID] = &cp
	return nil
}

func (r DepartmentRepo) SoftDelete(_ context.Context, _ pgx.Tx, id uint64) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	d, ok := r.S.Departments[id]
	if !ok || d.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	now := time.Now().UTC()
	d.DeletedAt = &now
	return nil
}

func (r DepartmentRepo) Restore(_ context.Context, _ pgx.Tx, id uint64) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	d, ok := r.S.Departments[id]
	if !ok || d.DeletedAt == nil {
		return apperrors.ErrNotFound
	}
	d.DeletedAt = nil
	return nil
}

func (r DepartmentRepo) ForceDelete(_ context.Context, _ pgx.Tx, id uint64) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if _, ok := r.S.Departments[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.S.Departments, id)
	return nil
}
