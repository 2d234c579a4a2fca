package services

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"school-system/internal/authz"
	"school-system/internal/testutil"
	"school-system/pkg/eventbus"
	"school-system/pkg/validation"
)

type fixture struct {
	store       *testutil.Store
	recorder    *testutil.Recorder
	schools     SchoolServiceInterface
	branches    BranchServiceInterface
	departments DepartmentServiceInterface
}

func newFixture(t *testing.T, departmentModel string) *fixture {
	t.Helper()
	logger := zap.NewNop()
	store := testutil.NewStore()
	bus := eventbus.New(logger)
	base := NewBaseService(authz.DefaultPolicy(departmentModel), bus, logger)
	v := validation.New()

	schoolRepo := testutil.SchoolRepo{S: store}
	branchRepo := testutil.BranchRepo{S: store}
	departmentRepo := testutil.DepartmentRepo{S: store}
	tx := testutil.TxManager{}

	return &fixture{
		store:       store,
		recorder:    testutil.NewRecorder(bus),
		schools:     NewSchoolService(base, schoolRepo, branchRepo, tx, v),
		branches:    NewBranchService(base, branchRepo, schoolRepo, departmentRepo, tx, v),
		departments: NewDepartmentService(base, departmentRepo, branchRepo, testutil.UserRepo{S: store}, tx, v),
	}
}

func adminCtx() context.Context {
	return testutil.ActorContext(1, []string{authz.RoleAdmin}, authz.AllPermissions...)
}

func viewerCtx() context.Context {
	return testutil.ActorContext(2, []string{authz.RoleViewer}, authz.RolePermissions[authz.RoleViewer]...)
}
