package services

import (
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"school-system/internal/dto"
	"school-system/internal/repositories"
	apperrors "school-system/pkg/errors"
)

var SupportedLanguages = []dto.LanguageDTO{
	{Code: "en", Name: "English", Direction: "ltr"},
	{Code: "fa", Name: "دری", Direction: "rtl"},
	{Code: "ps", Name: "پښتو", Direction: "rtl"},
}

var (
	ErrInvalidLanguage        = apperrors.NewHttpError(http.StatusBadRequest, "Invalid language parameter", apperrors.ErrBadRequest, nil)
	ErrTranslationKeyNotFound = apperrors.NewHttpError(http.StatusNotFound, "Translation key not found", apperrors.ErrNotFound, nil)
)

type TranslationServiceInterface interface {
	Languages() []dto.LanguageDTO
	Get(lang string) (map[string]string, error)
	All() (map[string]map[string]string, error)
	Set(lang string, translations map[string]string) error
	AddKey(lang, key, value string) error
	DeleteKey(lang, key string) error
	Translate(lang, key string, params map[string]string) string
}

type TranslationService struct {
	repo        repositories.TranslationRepositoryInterface
	defaultLang string
	logger      *zap.Logger
	// правки одного файла не должны перетирать друг друга
	mu sync.Mutex
}

func NewTranslationService(repo repositories.TranslationRepositoryInterface, defaultLang string, logger *zap.Logger) TranslationServiceInterface {
	if !IsSupportedLanguage(defaultLang) {
		defaultLang = SupportedLanguages[0].Code
	}
	return &TranslationService{repo: repo, defaultLang: defaultLang, logger: logger}
}

func IsSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if l.Code == lang {
			return true
		}
	}
	return false
}

func (s *TranslationService) Languages() []dto.LanguageDTO {
	return SupportedLanguages
}

// Get проверяет язык до обращения к файлам.
func (s *TranslationService) Get(lang string) (map[string]string, error) {
	if !IsSupportedLanguage(lang) {
		return nil, ErrInvalidLanguage
	}
	return s.repo.Load(lang)
}

func (s *TranslationService) All() (map[string]map[string]string, error) {
	result := make(map[string]map[string]string, len(SupportedLanguages))
	for _, l := range SupportedLanguages {
		translations, err := s.repo.Load(l.Code)
		if err != nil {
			return nil, err
		}
		result[l.Code] = translations
	}
	return result, nil
}

// Set заменяет весь файл языка.
func (s *TranslationService) Set(lang string, translations map[string]string) error {
	if !IsSupportedLanguage(lang) {
		return ErrInvalidLanguage
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(lang, translations); err != nil {
		return err
	}
	s.logger.Info("Переводы сохранены", zap.String("language", lang), zap.Int("keys", len(translations)))
	return nil
}

func (s *TranslationService) AddKey(lang, key, value string) error {
	if !IsSupportedLanguage(lang) {
		return ErrInvalidLanguage
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	translations, err := s.repo.Load(lang)
	if err != nil {
		return err
	}
	translations[key] = value
	return s.repo.Save(lang, translations)
}

func (s *TranslationService) DeleteKey(lang, key string) error {
	if !IsSupportedLanguage(lang) {
		return ErrInvalidLanguage
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	translations, err := s.repo.Load(lang)
	if err != nil {
		return err
	}
	if _, ok := translations[key]; !ok {
		return ErrTranslationKeyNotFound
	}
	delete(translations, key)
	return s.repo.Save(lang, translations)
}

// Translate: язык -> язык по умолчанию -> сам ключ. Плейсхолдеры {{name}} заменяются.
func (s *TranslationService) Translate(lang, key string, params map[string]string) string {
	text, found := s.lookup(lang, key)
	if !found && lang != s.defaultLang {
		text, found = s.lookup(s.defaultLang, key)
	}
	if !found {
		text = key
	}
	if len(params) == 0 {
		return text
	}
	// один проход: подставленные значения повторно не разбираются
	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func (s *TranslationService) lookup(lang, key string) (string, bool) {
	if !IsSupportedLanguage(lang) {
		return "", false
	}
	translations, err := s.repo.Load(lang)
	if err != nil {
		s.logger.Warn("Не удалось прочитать переводы", zap.String("language", lang), zap.Error(err))
		return "", false
	}
	text, ok := translations[key]
	return text, ok
}
