package entities

import "school-system/pkg/types"

type User struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`

	Roles []string `json:"roles,omitempty"`

	types.BaseEntity
}
