package dto

import "github.com/aarondl/null/v8"

// UpdateSettingDTO: пустые type/group сохраняют прежние значения.
type UpdateSettingDTO struct {
	Value       string      `json:"value"`
	Type        null.String `json:"type" validate:"omitempty,oneof=string boolean integer json"`
	Description null.String `json:"description" validate:"omitempty,max=1000"`
	Group       null.String `json:"group" validate:"omitempty,max=100"`
	IsPublic    *bool       `json:"is_public"`
}

// SettingDTO - настройка с уже приведённым значением.
type SettingDTO struct {
	Key         string      `json:"key"`
	Value       interface{} `json:"value"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Group       string      `json:"group"`
	IsPublic    bool        `json:"is_public"`
}
