package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"school-system/internal/authz"
	"school-system/internal/dto"
	"school-system/internal/entities"
	"school-system/internal/events"
	db "school-system/internal/infrastructure/bd"
	"school-system/internal/repositories"
	apperrors "school-system/pkg/errors"
	"school-system/pkg/types"
)

var departmentConstraintFields = map[string]string{
	"departments_branch_id_code_key": "code",
}

type DepartmentServiceInterface interface {
	List(ctx context.Context, params url.Values) (*types.ListResult[entities.Department], error)
	ListByBranch(ctx context.Context, branchID uint64) ([]entities.Department, error)
	Find(ctx context.Context, id uint64) (*entities.Department, error)
	Create(ctx context.Context, payload dto.CreateDepartmentDTO) (*entities.Department, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateDepartmentDTO) (*entities.Department, error)
	Delete(ctx context.Context, id uint64) error
	Restore(ctx context.Context, id uint64) (*entities.Department, error)
	ForceDelete(ctx context.Context, id uint64) error
}

type DepartmentService struct {
	BaseService
	departmentRepo repositories.DepartmentRepositoryInterface
	branchRepo     repositories.BranchRepositoryInterface
	userRepo       repositories.UserRepositoryInterface
	txManager      repositories.TxManagerInterface
	validator      Validator
}

func NewDepartmentService(
	base BaseService,
	departmentRepo repositories.DepartmentRepositoryInterface,
	branchRepo repositories.BranchRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	txManager repositories.TxManagerInterface,
	validator Validator,
) DepartmentServiceInterface {
	return &DepartmentService{
		BaseService:    base,
		departmentRepo: departmentRepo,
		branchRepo:     branchRepo,
		userRepo:       userRepo,
		txManager:      txManager,
		validator:      validator,
	}
}

func (s *DepartmentService) subject(ctx context.Context, d *entities.Department) events.Subject {
	subj := events.Subject{ID: d.ID, Name: d.Name, Code: d.Code}
	if d.Branch != nil {
		subj.Parent = d.Branch.Name
		return subj
	}
	if branch, err := s.branchRepo.FindByID(ctx, nil, d.BranchID, true); err == nil {
		subj.Parent = branch.Name
	}
	return subj
}

func (s *DepartmentService) List(ctx context.Context, params url.Values) (*types.ListResult[entities.Department], error) {
	if _, err := s.authorize(ctx, authz.EntityDepartment, authz.ViewAny, nil); err != nil {
		return nil, err
	}
	plan, err := db.BuildPlan(repositories.DepartmentListSpec, db.ParseListParams(params))
	if err != nil {
		return nil, err
	}
	departments, total, err := s.departmentRepo.List(ctx, plan)
	if err != nil {
		s.logger.Error("Не удалось получить список отделов", zap.Error(err))
		return nil, err
	}
	return &types.ListResult[entities.Department]{
		List:       departments,
		Pagination: types.NewPaginationMeta(total, plan.Page, plan.PerPage),
		Filters:    plan.Applied,
	}, nil
}

func (s *DepartmentService) ListByBranch(ctx context.Context, branchID uint64) ([]entities.Department, error) {
	if _, err := s.authorize(ctx, authz.EntityDepartment, authz.ViewAny, nil); err != nil {
		return nil, err
	}
	if _, err := s.branchRepo.FindByID(ctx, nil, branchID, false); err != nil {
		return nil, err
	}
	return s.departmentRepo.ListByBranch(ctx, branchID)
}

// Find возвращает отдел с филиалом и руководителем.
func (s *DepartmentService) Find(ctx context.Context, id uint64) (*entities.Department, error) {
	department, err := s.departmentRepo.FindByID(ctx, nil, id, false)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, authz.EntityDepartment, authz.View, department); err != nil {
		return nil, err
	}
	if department.Branch, err = s.branchRepo.FindByID(ctx, nil, department.BranchID, true); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if department.HeadUserID != nil {
		if department.Head, err = s.userRepo.FindByID(ctx, *department.HeadUserID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}
	return department, nil
}

func (s *DepartmentService) validate(ctx context.Context, payload *dto.CreateDepartmentDTO, excludeID uint64) (*entities.Branch, error) {
	verr, err := startValidation(s.validator, payload)
	if err != nil {
		return nil, err
	}

	var branch *entities.Branch
	if !fieldFailed(verr, "branch_id") {
		branch, err = s.branchRepo.FindByID(ctx, nil, payload.BranchID, false)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			verr.Add("branch_id", invalidSelectionMessage("branch_id"))
		case err != nil:
			return nil, err
		}
	}

	if payload.HeadUserID.Valid && !fieldFailed(verr, "head_user_id") {
		_, err := s.userRepo.FindByID(ctx, payload.HeadUserID.Uint64)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			verr.Add("head_user_id", invalidSelectionMessage("head_user_id"))
		case err != nil:
			return nil, err
		}
	}

	if branch != nil && !fieldFailed(verr, "code") {
		taken, err := s.departmentRepo.CodeExists(ctx, branch.ID, strings.TrimSpace(payload.Code), excludeID)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("code", takenMessage("code"))
		}
	}
	return branch, verr.OrNil()
}

func applyDepartment(d *entities.Department, payload dto.CreateDepartmentDTO) {
	d.BranchID = payload.BranchID
	d.Name = strings.TrimSpace(payload.Name)
	d.Code = strings.TrimSpace(payload.Code)
	d.Description = optionalString(payload.Description.Valid, payload.Description.String)
	d.HeadUserID = nil
	if payload.HeadUserID.Valid {
		head := payload.HeadUserID.Uint64
		d.HeadUserID = &head
	}
}

func (s *DepartmentService) Create(ctx context.Context, payload dto.CreateDepartmentDTO) (*entities.Department, error) {
	actor, err := s.authorize(ctx, authz.EntityDepartment, authz.Create, nil)
	if err != nil {
		return nil, err
	}
	branch, err := s.validate(ctx, &payload, 0)
	if err != nil {
		return nil, err
	}

	department := &entities.Department{}
	applyDepartment(department, payload)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.departmentRepo.Create(ctx, tx, department)
	})
	if err != nil {
		return nil, conflictAsValidation(err, departmentConstraintFields)
	}
	department.Branch = branch

	s.logger.Info("Отдел создан", zap.Uint64("id", department.ID), zap.Uint64("branchID", department.BranchID))
	s.publish(ctx, events.NewEntityEvent(events.Created, authz.EntityDepartment, actor.ID, s.subject(ctx, department)))
	return department, nil
}

// Update: при ownership-политике править может руководитель отдела, поэтому цель грузится до проверки прав.
func (s *DepartmentService) Update(ctx context.Context, id uint64, payload dto.UpdateDepartmentDTO) (*entities.Department, error) {
	var (
		actor      *authz.Actor
		before     events.Subject
		department *entities.Department
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if department, err = s.departmentRepo.FindByID(ctx, tx, id, false); err != nil {
			return err
		}
		if actor, err = s.authorize(ctx, authz.EntityDepartment, authz.Update, department); err != nil {
			return err
		}
		branch, err := s.validate(ctx, &payload, id)
		if err != nil {
			return err
		}
		before = events.Subject{ID: department.ID, Name: department.Name, Code: department.Code}
		applyDepartment(department, payload)
		department.Branch = branch
		return s.departmentRepo.Update(ctx, tx, department)
	})
	if err != nil {
		return nil, conflictAsValidation(err, departmentConstraintFields)
	}

	s.publish(ctx, events.NewUpdatedEvent(authz.EntityDepartment, actor.ID, before, s.subject(ctx, department)))
	return department, nil
}

func (s *DepartmentService) Delete(ctx context.Context, id uint64) error {
	var (
		actor      *authz.Actor
		department *entities.Department
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if department, err = s.departmentRepo.FindByID(ctx, tx, id, false); err != nil {
			return err
		}
		if actor, err = s.authorize(ctx, authz.EntityDepartment, authz.Delete, department); err != nil {
			return err
		}
		return s.departmentRepo.SoftDelete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Отдел удалён", zap.Uint64("id", id), zap.Uint64("actor", actor.ID))
	s.publish(ctx, events.NewEntityEvent(events.Deleted, authz.EntityDepartment, actor.ID, s.subject(ctx, department)))
	return nil
}

func (s *DepartmentService) Restore(ctx context.Context, id uint64) (*entities.Department, error) {
	var (
		actor      *authz.Actor
		department *entities.Department
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if department, err = s.departmentRepo.FindByID(ctx, tx, id, true); err != nil {
			return err
		}
		if actor, err = s.authorize(ctx, authz.EntityDepartment, authz.Restore, department); err != nil {
			return err
		}
		if err := s.departmentRepo.Restore(ctx, tx, id); err != nil {
			return err
		}
		department.DeletedAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEntityEvent(events.Restored, authz.EntityDepartment, actor.ID, s.subject(ctx, department)))
	return department, nil
}

func (s *DepartmentService) ForceDelete(ctx context.Context, id uint64) error {
	var (
		actor      *authz.Actor
		department *entities.Department
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if department, err = s.departmentRepo.FindByID(ctx, tx, id, true); err != nil {
			return err
		}
		if actor, err = s.authorize(ctx, authz.EntityDepartment, authz.ForceDelete, department); err != nil {
			return err
		}
		return s.departmentRepo.ForceDelete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Warn("Отдел удалён безвозвратно", zap.Uint64("id", id), zap.Uint64("actor", actor.ID))
	s.publish(ctx, events.NewEntityEvent(events.ForceDeleted, authz.EntityDepartment, actor.ID, s.subject(ctx, department)))
	return nil
}
