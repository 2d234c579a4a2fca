package dto

import "github.com/aarondl/null/v8"

// CreateSchoolDTO используется и для полного обновления (PUT).
type CreateSchoolDTO struct {
	Name        string      `json:"name" validate:"required,max=255"`
	Code        null.String `json:"code" validate:"omitempty,max=50"`
	Address     string      `json:"address" validate:"required,max=500"`
	Email       string      `json:"email" validate:"required,email,max=255"`
	PhoneNumber string      `json:"phone_number" validate:"required,phone"`
}

type UpdateSchoolDTO = CreateSchoolDTO
