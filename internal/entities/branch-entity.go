package entities

import "school-system/pkg/types"

type Branch struct {
	ID          uint64  `json:"id"`
	SchoolID    uint64  `json:"school_id"`
	Name        string  `json:"name"`
	Code        *string `json:"code"`
	Address     string  `json:"address"`
	PhoneNumber string  `json:"phone_number"`

	School      *School      `json:"school,omitempty"`
	Departments []Department `json:"departments,omitempty"`

	types.SoftDelete
	types.BaseEntity
}
