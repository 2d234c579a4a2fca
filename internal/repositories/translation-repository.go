package repositories

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"school-system/pkg/filestorage"
)

// TranslationRepositoryInterface - по одному JSON-файлу на язык.
type TranslationRepositoryInterface interface {
	// Load никогда не падает на отсутствующем или битом файле: возвращает пустую карту.
	Load(lang string) (map[string]string, error)
	Save(lang string, translations map[string]string) error
}

type TranslationRepository struct {
	files  filestorage.FileStorageInterface
	logger *zap.Logger
}

func NewTranslationRepository(files filestorage.FileStorageInterface, logger *zap.Logger) TranslationRepositoryInterface {
	return &TranslationRepository{files: files, logger: logger}
}

func fileName(lang string) string { return lang + ".json" }

func (r *TranslationRepository) Load(lang string) (map[string]string, error) {
	data, err := r.files.Read(fileName(lang))
	if errors.Is(err, filestorage.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		r.logger.Warn("Не удалось прочитать файл переводов", zap.String("lang", lang), zap.Error(err))
		return map[string]string{}, nil
	}

	translations := map[string]string{}
	if len(bytes.TrimSpace(data)) == 0 {
		return translations, nil
	}
	if err := json.Unmarshal(data, &translations); err != nil {
		r.logger.Warn("Файл переводов повреждён, используется пустой набор", zap.String("lang", lang), zap.Error(err))
		return map[string]string{}, nil
	}
	return translations, nil
}

// Save пишет ключи по алфавиту, с отступами и без экранирования юникода.
func (r *TranslationRepository) Save(lang string, translations map[string]string) error {
	if translations == nil {
		translations = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(translations); err != nil {
		return fmt.Errorf("сериализация переводов %s: %w", lang, err)
	}
	if err := r.files.Write(fileName(lang), buf.Bytes()); err != nil {
		return fmt.Errorf("сохранение переводов %s: %w", lang, err)
	}
	return nil
}
