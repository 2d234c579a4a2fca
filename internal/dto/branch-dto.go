package dto

import "github.com/aarondl/null/v8"

type CreateBranchDTO struct {
	SchoolID    uint64      `json:"school_id" validate:"required,gt=0"`
	Name        string      `json:"name" validate:"required,max=255"`
	Code        null.String `json:"code" validate:"omitempty,max=50"`
	Address     string      `json:"address" validate:"required,max=500"`
	PhoneNumber string      `json:"phone_number" validate:"required,phone"`
}

type UpdateBranchDTO = CreateBranchDTO
