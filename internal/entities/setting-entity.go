package entities

import "school-system/pkg/types"

// Типы значений настроек
const (
	SettingTypeString  = "string"
	SettingTypeBoolean = "boolean"
	SettingTypeInteger = "integer"
	SettingTypeJSON    = "json"
)

type Setting struct {
	ID          uint64 `json:"id"`
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Group       string `json:"group"`
	IsPublic    bool   `json:"is_public"`

	types.BaseEntity
}
