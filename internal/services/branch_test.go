package services

import (
	"net/url"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-system/internal/dto"
	"school-system/internal/entities"
	apperrors "school-system/pkg/errors"
)

func seedSchool(t *testing.T, f *fixture, name, email, code string) *entities.School {
	t.Helper()
	payload := lincoln()
	payload.Name, payload.Email, payload.Code = name, email, null.StringFrom(code)
	school, err := f.schools.Create(adminCtx(), payload)
	require.NoError(t, err)
	return school
}

func branchPayload(schoolID uint64, name, code string) dto.CreateBranchDTO {
	return dto.CreateBranchDTO{
		SchoolID:    schoolID,
		Name:        name,
		Code:        null.StringFrom(code),
		Address:     "10 Branch Rd",
		PhoneNumber: "555-3000",
	}
}

func TestBranchService_CodeUniquePerSchool(t *testing.T) {
	f := newFixture(t, "")
	ctx := adminCtx()
	a := seedSchool(t, f, "Lincoln", "a@lincoln.edu", "LHS")
	b := seedSchool(t, f, "Roosevelt", "b@roosevelt.edu", "RHS")

	_, err := f.branches.Create(ctx, branchPayload(a.ID, "North", "N1"))
	require.NoError(t, err)

	_, err = f.branches.Create(ctx, branchPayload(b.ID, "North", "N1"))
	assert.NoError(t, err, "тот же код в другой школе допустим")

	_, err = f.branches.Create(ctx, branchPayload(a.ID, "North 2", "N1"))
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "The code has already been taken.", verr.Fields["code"])
}

func TestBranchService_UnknownSchoolIsFieldError(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.branches.Create(adminCtx(), branchPayload(99, "", "N1"))

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "The selected school id is invalid.", verr.Fields["school_id"])
	assert.Contains(t, verr.Fields, "name")
}

func TestBranchService_DeletedSchoolIsInvalidParent(t *testing.T) {
	f := newFixture(t, "")
	school := seedSchool(t, f, "Lincoln", "a@lincoln.edu", "LHS")
	require.NoError(t, f.schools.Delete(adminCtx(), school.ID))

	_, err := f.branches.Create(adminCtx(), branchPayload(school.ID, "North", "N1"))
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "school_id")
}

func TestBranchService_EventsCarrySchoolName(t *testing.T) {
	f := newFixture(t, "")
	ctx := adminCtx()
	school := seedSchool(t, f, "Lincoln", "a@lincoln.edu", "LHS")
	branch, err := f.branches.Create(ctx, branchPayload(school.ID, "North", "N1"))
	require.NoError(t, err)
	require.NoError(t, f.branches.Delete(ctx, branch.ID))

	evs := f.recorder.Events()
	require.Len(t, evs, 3)
	assert.Equal(t, "branch.created", evs[1].Name())
	assert.Equal(t, "Lincoln", evs[1].After.Parent)
	assert.Equal(t, "branch.deleted", evs[2].Name())
	assert.Equal(t, "Lincoln", evs[2].After.Parent)
}

func TestBranchService_ListFilteredBySchool(t *testing.T) {
	f := newFixture(t, "")
	ctx := adminCtx()
	a := seedSchool(t, f, "Lincoln", "a@lincoln.edu", "LHS")
	b := seedSchool(t, f, "Roosevelt", "b@roosevelt.edu", "RHS")
	_, _ = f.branches.Create(ctx, branchPayload(a.ID, "North", "N1"))
	_, _ = f.branches.Create(ctx, branchPayload(b.ID, "South", "S1"))

	res, err := f.branches.List(ctx, url.Values{"school_id": {"2"}})
	require.NoError(t, err)
	require.Len(t, res.List, 1)
	assert.Equal(t, "South", res.List[0].Name)

	_, err = f.branches.List(ctx, url.Values{"school_id": {"abc"}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	nested, err := f.branches.ListBySchool(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, nested, 1)
	assert.Equal(t, "North", nested[0].Name)

	_, err = f.branches.ListBySchool(ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBranchService_ViewerCanReadButNotDelete(t *testing.T) {
	f := newFixture(t, "")
	school := seedSchool(t, f, "Lincoln", "a@lincoln.edu", "LHS")
	branch, err := f.branches.Create(adminCtx(), branchPayload(school.ID, "North", "N1"))
	require.NoError(t, err)

	found, err := f.branches.Find(viewerCtx(), branch.ID)
	require.NoError(t, err)
	require.NotNil(t, found.School)
	assert.Equal(t, "Lincoln", found.School.Name)

	assert.ErrorIs(t, f.branches.Delete(viewerCtx(), branch.ID), apperrors.ErrForbidden)
	assert.Nil(t, f.store.Branches[branch.ID].DeletedAt)
}

func TestBranchService_ForceDeleteCascades(t *testing.T) {
	f := newFixture(t, "")
	ctx := adminCtx()
	school := seedSchool(t, f, "Lincoln", "a@lincoln.edu", "LHS")
	branch, _ := f.branches.Create(ctx, branchPayload(school.ID, "North", "N1"))
	_, err := f.departments.Create(ctx, dto.CreateDepartmentDTO{BranchID: branch.ID, Name: "Math", Code: "MATH"})
	require.NoError(t, err)

	require.NoError(t, f.branches.ForceDelete(ctx, branch.ID))
	assert.Empty(t, f.store.Branches)
	assert.Empty(t, f.store.Departments)
}

func TestBranchService_BlankRequiredFieldsRejected(t *testing.T) {
	f := newFixture(t, "")
	school := seedSchool(t, f, "Lincoln", "a@lincoln.edu", "LHS")
	payload := branchPayload(school.ID, "  ", "N1")
	payload.Address = " "
	payload.PhoneNumber = "   "

	_, err := f.branches.Create(adminCtx(), payload)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"name", "address", "phone_number"} {
		assert.Contains(t, verr.Fields, field)
	}
	assert.Empty(t, f.store.Branches)
}
