package repositories

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"school-system/pkg/filestorage"
)

func newTranslationRepo(t *testing.T) (TranslationRepositoryInterface, string) {
	dir := filepath.Join(t.TempDir(), "lang")
	return NewTranslationRepository(filestorage.NewLocalFileStorage(dir), zap.NewNop()), dir
}

func TestTranslationRepository_MissingFileIsEmpty(t *testing.T) {
	repo, _ := newTranslationRepo(t)

	m, err := repo.Load("fa")
	require.NoError(t, err)
	assert.Empty(t, m)
	assert.NotNil(t, m)
}

func TestTranslationRepository_SaveSortedPrettyUnicode(t *testing.T) {
	repo, dir := newTranslationRepo(t)

	require.NoError(t, repo.Save("ps", map[string]string{"zeta": "ز", "alpha": "<b>الف</b>"}))

	raw, err := os.ReadFile(filepath.Join(dir, "ps.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"alpha\": \"<b>الف</b>\",\n    \"zeta\": \"ز\"\n}\n", string(raw))

	m, err := repo.Load("ps")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"zeta": "ز", "alpha": "<b>الف</b>"}, m)
}

func TestTranslationRepository_CorruptFileIsEmpty(t *testing.T) {
	repo, dir := newTranslationRepo(t)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte("{not json"), 0o644))

	m, err := repo.Load("en")
	require.NoError(t, err)
	assert.Empty(t, m)
}
