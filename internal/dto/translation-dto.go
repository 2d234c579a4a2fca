package dto

type LanguageDTO struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Direction string `json:"direction"`
}

type SaveTranslationsDTO struct {
	Language     string            `json:"language" validate:"required"`
	Translations map[string]string `json:"translations" validate:"required"`
}

type AddTranslationDTO struct {
	Language string `json:"language" validate:"required"`
	Key      string `json:"key" validate:"required,max=255"`
	Value    string `json:"value" validate:"required"`
}

type DeleteTranslationDTO struct {
	Language string `json:"language" validate:"required"`
	Key      string `json:"key" validate:"required"`
}
