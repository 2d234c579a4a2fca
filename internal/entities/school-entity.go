package entities

import "school-system/pkg/types"

type School struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Code        *string `json:"code"`
	Address     string  `json:"address"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`

	Branches []Branch `json:"branches"`

	types.SoftDelete
	types.BaseEntity
}
