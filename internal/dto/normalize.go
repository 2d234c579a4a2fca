package dto

import (
	"strings"

	"github.com/aarondl/null/v8"
)

// Normalize обрезает пробелы до валидации; пустая необязательная строка становится null.

func trimNull(s null.String) null.String {
	if !s.Valid {
		return s
	}
	v := strings.TrimSpace(s.String)
	if v == "" {
		return null.String{}
	}
	return null.StringFrom(v)
}

func (d *CreateSchoolDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Code = trimNull(d.Code)
	d.Address = strings.TrimSpace(d.Address)
	d.Email = strings.TrimSpace(d.Email)
	d.PhoneNumber = strings.TrimSpace(d.PhoneNumber)
}

func (d *CreateBranchDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Code = trimNull(d.Code)
	d.Address = strings.TrimSpace(d.Address)
	d.PhoneNumber = strings.TrimSpace(d.PhoneNumber)
}

func (d *CreateDepartmentDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Code = strings.TrimSpace(d.Code)
	d.Description = trimNull(d.Description)
}
