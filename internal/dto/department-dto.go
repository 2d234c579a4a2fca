package dto

import "github.com/aarondl/null/v8"

type CreateDepartmentDTO struct {
	BranchID    uint64      `json:"branch_id" validate:"required,gt=0"`
	Name        string      `json:"name" validate:"required,max=255"`
	Code        string      `json:"code" validate:"required,max=50"`
	Description null.String `json:"description" validate:"omitempty,max=2000"`
	HeadUserID  null.Uint64 `json:"head_user_id" validate:"omitempty,gt=0"`
}

type UpdateDepartmentDTO = CreateDepartmentDTO
