package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"school-system/internal/entities"
	"school-system/internal/repositories"
	apperrors "school-system/pkg/errors"
)

// ErrInjected - ошибка, которую фейки возвращают по требованию теста.
var ErrInjected = errors.New("injected failure")

// ---------- users ----------

type UserRepo struct{ S *Store }

var _ repositories.UserRepositoryInterface = UserRepo{}

func (r UserRepo) FindByID(_ context.Context, id uint64) (*entities.User, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	u, ok := r.S.Users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r UserRepo) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	for _, u := range r.S.Users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r UserRepo) ListRecipients(_ context.Context) ([]entities.User, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	out := make([]entities.User, 0, len(r.S.Users))
	for _, u := range r.S.Users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---------- permissions ----------

type PermissionRepo struct{ S *Store }

var _ repositories.PermissionRepositoryInterface = PermissionRepo{}

func (r PermissionRepo) GetUserRoleNames(_ context.Context, userID uint64) ([]string, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	return append([]string{}, r.S.UserRoles[userID]...), nil
}

func (r PermissionRepo) GetAllUserPermissionsNames(_ context.Context, userID uint64) ([]string, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, role := range r.S.UserRoles[userID] {
		for _, p := range r.S.RolePerms[role] {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// ---------- notifications ----------

type NotificationRepo struct{ S *Store }

var _ repositories.NotificationRepositoryInterface = NotificationRepo{}

func (r NotificationRepo) Create(_ context.Context, n *entities.Notification) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.S.FailNotificationsFor[n.UserID] {
		return ErrInjected
	}
	n.ID = r.S.next()
	stamp(&n.CreatedAt, &n.UpdatedAt)
	cp := *n
	r.S.Notifications[n.ID] = &cp
	return nil
}

func (r NotificationRepo) ListForUser(_ context.Context, userID uint64, limit uint64) ([]entities.Notification, error) {
	all := r.S.UserNotifications(userID)
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if uint64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r NotificationRepo) CountUnread(_ context.Context, userID uint64) (uint64, error) {
	var n uint64
	for _, item := range r.S.UserNotifications(userID) {
		if !item.Read {
			n++
		}
	}
	return n, nil
}

func (r NotificationRepo) MarkRead(_ context.Context, userID, id uint64) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	n, ok := r.S.Notifications[id]
	if !ok || n.UserID != userID {
		return apperrors.ErrNotFound
	}
	if !n.Read {
		now := time.Now().UTC()
		n.Read, n.ReadAt, n.UpdatedAt = true, &now, now
	}
	return nil
}

func (r NotificationRepo) MarkAllRead(_ context.Context, userID uint64) (int64, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	var count int64
	now := time.Now().UTC()
	for _, n := range r.S.Notifications {
		if n.UserID == userID && !n.Read {
			n.Read, n.ReadAt = true, &now
			count++
		}
	}
	return count, nil
}

// ---------- settings ----------

type SettingRepo struct {
	S *Store
	// Lookups считает обращения FindByKey, чтобы проверять кеш.
	Lookups *int
}

var _ repositories.SettingRepositoryInterface = SettingRepo{}

// PutSetting кладёт настройку напрямую в хранилище.
func (s *Store) PutSetting(key, value, typ, group string, public bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &entities.Setting{ID: s.next(), Key: key, Value: value, Type: typ, Group: group, IsPublic: public}
	stamp(&st.CreatedAt, &st.UpdatedAt)
	s.Settings[key] = st
}

func (r SettingRepo) FindByKey(_ context.Context, key string) (*entities.Setting, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if r.Lookups != nil {
		*r.Lookups++
	}
	st, ok := r.S.Settings[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (r SettingRepo) Upsert(_ context.Context, st *entities.Setting) error {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	if cur, ok := r.S.Settings[st.Key]; ok {
		st.ID, st.CreatedAt = cur.ID, cur.CreatedAt
	} else {
		st.ID = r.S.next()
	}
	stamp(&st.CreatedAt, &st.UpdatedAt)
	cp := *st
	r.S.Settings[st.Key] = &cp
	return nil
}

func (r SettingRepo) list(keep func(*entities.Setting) bool) []entities.Setting {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	out := []entities.Setting{}
	for _, st := range r.S.Settings {
		if keep(st) {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (r SettingRepo) ListByGroup(_ context.Context, group string) ([]entities.Setting, error) {
	return r.list(func(st *entities.Setting) bool { return st.Group == group }), nil
}

func (r SettingRepo) ListPublic(_ context.Context) ([]entities.Setting, error) {
	return r.list(func(st *entities.Setting) bool { return st.IsPublic }), nil
}

func (r SettingRepo) ListKeys(_ context.Context) ([]string, error) {
	var keys []string
	for _, st := range r.list(func(*entities.Setting) bool { return true }) {
		keys = append(keys, st.Key)
	}
	return keys, nil
}
