package seeders

import (
	"school-system/internal/authz"
	"school-system/internal/entities"
)

var permissionDescriptions = map[string]string{
	authz.SchoolsView:       "Просмотр школ",
	authz.SchoolsCreate:     "Создание школ",
	authz.SchoolsEdit:       "Редактирование школ",
	authz.SchoolsDelete:     "Удаление, восстановление и очистка школ",
	authz.BranchesView:      "Просмотр филиалов",
	authz.BranchesCreate:    "Создание филиалов",
	authz.BranchesEdit:      "Редактирование филиалов",
	authz.BranchesDelete:    "Удаление, восстановление и очистка филиалов",
	authz.DepartmentsView:   "Просмотр отделов",
	authz.DepartmentsCreate: "Создание отделов",
	authz.DepartmentsEdit:   "Редактирование отделов",
	authz.DepartmentsDelete: "Удаление, восстановление и очистка отделов",
	authz.SettingsView:      "Просмотр настроек",
	authz.SettingsEdit:      "Изменение настроек и сброс кэша",
	authz.TranslationsEdit:  "Редактирование переводов",
}

var rolesData = []struct {
	Name        string
	Description string
}{
	{Name: authz.RoleSuperAdmin, Description: "Полный доступ без ограничений"},
	{Name: authz.RoleAdmin, Description: "Администратор учебной сети"},
	{Name: authz.RoleManager, Description: "Ведение школ, филиалов и отделов без удаления"},
	{Name: authz.RoleViewer, Description: "Только просмотр"},
}

// settingsData - настройки по умолчанию. Существующие значения сидер не трогает.
var settingsData = []entities.Setting{
	{Key: "app_name", Value: "School Management System", Type: entities.SettingTypeString, Group: "general", IsPublic: true, Description: "Название приложения"},
	{Key: "app_description", Value: "Multi-tenant school administration", Type: entities.SettingTypeString, Group: "general", IsPublic: true, Description: "Описание приложения"},
	{Key: "app_logo", Value: "/images/logo.png", Type: entities.SettingTypeString, Group: "general", IsPublic: true, Description: "Путь к логотипу"},
	{Key: "default_language", Value: "en", Type: entities.SettingTypeString, Group: "general", IsPublic: true, Description: "Язык интерфейса по умолчанию"},
	{Key: "timezone", Value: "Asia/Kabul", Type: entities.SettingTypeString, Group: "general", IsPublic: true, Description: "Часовой пояс"},
	{Key: "date_format", Value: "Y-m-d", Type: entities.SettingTypeString, Group: "general", IsPublic: true, Description: "Формат даты"},
	{Key: "items_per_page", Value: "15", Type: entities.SettingTypeInteger, Group: "general", IsPublic: true, Description: "Записей на странице"},
	{Key: "maintenance_mode", Value: "0", Type: entities.SettingTypeBoolean, Group: "general", IsPublic: true, Description: "Режим обслуживания"},

	{Key: "contact_email", Value: "info@school.local", Type: entities.SettingTypeString, Group: "contact", IsPublic: true, Description: "Контактный адрес"},
	{Key: "contact_phone", Value: "+93 700 000 000", Type: entities.SettingTypeString, Group: "contact", IsPublic: true, Description: "Контактный телефон"},
	{Key: "contact_address", Value: "Kabul", Type: entities.SettingTypeString, Group: "contact", IsPublic: true, Description: "Адрес"},
	{Key: "social_links", Value: `{"facebook":"","twitter":""}`, Type: entities.SettingTypeJSON, Group: "contact", IsPublic: true, Description: "Ссылки на соцсети"},

	{Key: "notifications_enabled", Value: "1", Type: entities.SettingTypeBoolean, Group: "notifications", Description: "Рассылка уведомлений о событиях"},
	{Key: "email_notifications", Value: "1", Type: entities.SettingTypeBoolean, Group: "notifications", Description: "Дублировать уведомления письмом"},
	{Key: "notification_retention_days", Value: "90", Type: entities.SettingTypeInteger, Group: "notifications", Description: "Срок хранения уведомлений"},

	{Key: "max_login_attempts", Value: "5", Type: entities.SettingTypeInteger, Group: "security", Description: "Неудачных входов до блокировки"},
	{Key: "lockout_duration", Value: "15", Type: entities.SettingTypeInteger, Group: "security", Description: "Длительность блокировки, минуты"},
	{Key: "session_lifetime", Value: "1440", Type: entities.SettingTypeInteger, Group: "security", Description: "Время жизни сессии, минуты"},
	{Key: "password_min_length", Value: "8", Type: entities.SettingTypeInteger, Group: "security", Description: "Минимальная длина пароля"},
	{Key: "allow_registration", Value: "0", Type: entities.SettingTypeBoolean, Group: "security", Description: "Самостоятельная регистрация"},
}
