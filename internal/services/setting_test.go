package services

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"school-system/internal/dto"
	"school-system/internal/entities"
	"school-system/internal/repositories"
	"school-system/internal/testutil"
	apperrors "school-system/pkg/errors"
	"school-system/pkg/validation"
)

func TestCastValue(t *testing.T) {
	cases := []struct {
		value, typ string
		want       interface{}
	}{
		{"1", entities.SettingTypeBoolean, true},
		{"Yes", entities.SettingTypeBoolean, true},
		{"on", entities.SettingTypeBoolean, true},
		{"0", entities.SettingTypeBoolean, false},
		{"maybe", entities.SettingTypeBoolean, false},
		{"42", entities.SettingTypeInteger, int64(42)},
		{"12abc", entities.SettingTypeInteger, int64(12)},
		{"abc", entities.SettingTypeInteger, int64(0)},
		{"-7", entities.SettingTypeInteger, int64(-7)},
		{`{"a":1}`, entities.SettingTypeJSON, map[string]interface{}{"a": float64(1)}},
		{`{broken`, entities.SettingTypeJSON, nil},
		{"plain", entities.SettingTypeString, "plain"},
		{"plain", "unknown", "plain"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CastValue(c.value, c.typ), "%s as %s", c.value, c.typ)
	}
}

type settingFixture struct {
	store   *testutil.Store
	lookups *int
	cache   *repositories.MemoryCacheRepository
	svc     SettingServiceInterface
}

func newSettingFixture() *settingFixture {
	store := testutil.NewStore()
	lookups := new(int)
	cache := repositories.NewMemoryCacheRepository()
	svc := NewSettingService(testutil.SettingRepo{S: store, Lookups: lookups}, cache, validation.New(), time.Hour, zap.NewNop())
	return &settingFixture{store: store, lookups: lookups, cache: cache, svc: svc}
}

func TestSettingService_GetUsesCacheAndDefault(t *testing.T) {
	f := newSettingFixture()
	ctx := context.Background()
	f.store.PutSetting("max_login_attempts", "3", entities.SettingTypeInteger, "security", false)

	assert.Equal(t, int64(3), f.svc.GetInt(ctx, "max_login_attempts", 5))
	assert.Equal(t, int64(3), f.svc.GetInt(ctx, "max_login_attempts", 5))
	assert.Equal(t, 1, *f.lookups, "второе чтение из кеша")

	raw, err := f.cache.Get(ctx, "setting.max_login_attempts")
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"3","type":"integer"}`, raw)

	assert.Equal(t, "fallback", f.svc.Get(ctx, "missing", "fallback"))
	assert.Equal(t, "fallback", f.svc.Get(ctx, "missing", "fallback"))
	assert.Equal(t, 3, *f.lookups, "отсутствие ключа не кешируется")
}

func TestSettingService_SetEvictsCacheAndKeepsMetadata(t *testing.T) {
	f := newSettingFixture()
	ctx := context.Background()
	f.store.PutSetting("notifications_enabled", "1", entities.SettingTypeBoolean, "notifications", true)
	require.True(t, f.svc.GetBool(ctx, "notifications_enabled", false))

	res, err := f.svc.Set(ctx, "notifications_enabled", dto.UpdateSettingDTO{Value: "0"})
	require.NoError(t, err)
	assert.Equal(t, false, res.Value)
	assert.Equal(t, entities.SettingTypeBoolean, res.Type)
	assert.Equal(t, "notifications", res.Group)
	assert.True(t, res.IsPublic)

	assert.False(t, f.svc.GetBool(ctx, "notifications_enabled", true), "кеш сброшен")
}

func TestSettingService_SetCreatesWithDefaults(t *testing.T) {
	f := newSettingFixture()
	res, err := f.svc.Set(context.Background(), "app_name", dto.UpdateSettingDTO{Value: "School"})
	require.NoError(t, err)
	assert.Equal(t, entities.SettingTypeString, res.Type)
	assert.Equal(t, "general", res.Group)
	assert.False(t, res.IsPublic)
}

func TestSettingService_SetRejectsInvalidJSONAndType(t *testing.T) {
	f := newSettingFixture()
	ctx := context.Background()

	_, err := f.svc.Set(ctx, "theme", dto.UpdateSettingDTO{Value: "{nope", Type: null.StringFrom(entities.SettingTypeJSON)})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "value")

	_, err = f.svc.Set(ctx, "theme", dto.UpdateSettingDTO{Value: "x", Type: null.StringFrom("float")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "type")
	assert.Empty(t, f.store.Settings)
}

func TestSettingService_GroupsAndPublic(t *testing.T) {
	f := newSettingFixture()
	ctx := context.Background()
	f.store.PutSetting("app_name", "School", entities.SettingTypeString, "general", true)
	f.store.PutSetting("per_page", "15", entities.SettingTypeInteger, "general", false)
	f.store.PutSetting("lockout_duration", "15", entities.SettingTypeInteger, "security", false)

	general, err := f.svc.GetByGroup(ctx, "")
	require.NoError(t, err)
	assert.Len(t, general, 2)

	public, err := f.svc.GetPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"app_name": "School"}, public)
}

func TestSettingService_ClearCache(t *testing.T) {
	f := newSettingFixture()
	ctx := context.Background()
	f.store.PutSetting("app_name", "School", entities.SettingTypeString, "general", true)
	_ = f.svc.Get(ctx, "app_name", "")

	require.NoError(t, f.svc.ClearCache(ctx))
	_, err := f.cache.Get(ctx, "setting.app_name")
	assert.ErrorIs(t, err, repositories.ErrCacheMiss)
}
