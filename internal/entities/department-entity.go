package entities

import "school-system/pkg/types"

type Department struct {
	ID          uint64  `json:"id"`
	BranchID    uint64  `json:"branch_id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description *string `json:"description"`
	HeadUserID  *uint64 `json:"head_user_id"`

	Branch *Branch `json:"branch,omitempty"`
	Head   *User   `json:"head,omitempty"`

	types.SoftDelete
	types.BaseEntity
}
