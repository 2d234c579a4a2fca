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

var branchConstraintFields = map[string]string{
	"branches_school_id_code_key": "code",
}

type BranchServiceInterface interface {
	List(ctx context.Context, params url.Values) (*types.ListResult[entities.Branch], error)
	ListBySchool(ctx context.Context, schoolID uint64) ([]entities.Branch, error)
	Find(ctx context.Context, id uint64) (*entities.Branch, error)
	Create(ctx context.Context, payload dto.CreateBranchDTO) (*entities.Branch, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateBranchDTO) (*entities.Branch, error)
	Delete(ctx context.Context, id uint64) error
	Restore(ctx context.Context, id uint64) (*entities.Branch, error)
	ForceDelete(ctx context.Context, id uint64) error
}

type BranchService struct {
	BaseService
	branchRepo     repositories.BranchRepositoryInterface
	schoolRepo     repositories.SchoolRepositoryInterface
	departmentRepo repositories.DepartmentRepositoryInterface
	txManager      repositories.TxManagerInterface
	validator      Validator
}

func NewBranchService(
	base BaseService,
	branchRepo repositories.BranchRepositoryInterface,
	schoolRepo repositories.SchoolRepositoryInterface,
	departmentRepo repositories.DepartmentRepositoryInterface,
	txManager repositories.TxManagerInterface,
	validator Validator,
) BranchServiceInterface {
	return &BranchService{
		BaseService:    base,
		branchRepo:     branchRepo,
		schoolRepo:     schoolRepo,
		departmentRepo: departmentRepo,
		txManager:      txManager,
		validator:      validator,
	}
}

// subject дополняет снимок названием школы. Школа может быть уже удалена.
func (s *BranchService) subject(ctx context.Context, b *entities.Branch) events.Subject {
	subj := events.Subject{ID: b.ID, Name: b.Name, Code: deref(b.Code)}
	if b.School != nil {
		subj.Parent = b.School.Name
		return subj
	}
	if school, err := s.schoolRepo.FindByID(ctx, nil, b.SchoolID, true); err == nil {
		subj.Parent = school.Name
	}
	return subj
}

func (s *BranchService) List(ctx context.Context, params url.Values) (*types.ListResult[entities.Branch], error) {
	if _, err := s.authorize(ctx, authz.EntityBranch, authz.ViewAny, nil); err != nil {
		return nil, err
	}
	plan, err := db.BuildPlan(repositories.BranchListSpec, db.ParseListParams(params))
	if err != nil {
		return nil, err
	}
	branches, total, err := s.branchRepo.List(ctx, plan)
	if err != nil {
		s.logger.Error("Не удалось получить список филиалов", zap.Error(err))
		return nil, err
	}
	return &types.ListResult[entities.Branch]{
		List:       branches,
		Pagination: types.NewPaginationMeta(total, plan.Page, plan.PerPage),
		Filters:    plan.Applied,
	}, nil
}

// ListBySchool - филиалы одной неудалённой школы.
func (s *BranchService) ListBySchool(ctx context.Context, schoolID uint64) ([]entities.Branch, error) {
	if _, err := s.authorize(ctx, authz.EntityBranch, authz.ViewAny, nil); err != nil {
		return nil, err
	}
	if _, err := s.schoolRepo.FindByID(ctx, nil, schoolID, false); err != nil {
		return nil, err
	}
	return s.branchRepo.ListBySchool(ctx, schoolID)
}

// Find возвращает филиал со школой и отделами.
func (s *BranchService) Find(ctx context.Context, id uint64) (*entities.Branch, error) {
	branch, err := s.branchRepo.FindByID(ctx, nil, id, false)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, authz.EntityBranch, authz.View, branch); err != nil {
		return nil, err
	}
	if branch.School, err = s.schoolRepo.FindByID(ctx, nil, branch.SchoolID, true); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if branch.Departments, err = s.departmentRepo.ListByBranch(ctx, id); err != nil {
		return nil, err
	}
	return branch, nil
}

func (s *BranchService) validate(ctx context.Context, payload *dto.CreateBranchDTO, excludeID uint64) (*entities.School, error) {
	verr, err := startValidation(s.validator, payload)
	if err != nil {
		return nil, err
	}

	var school *entities.School
	if !fieldFailed(verr, "school_id") {
		school, err = s.schoolRepo.FindByID(ctx, nil, payload.SchoolID, false)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			verr.Add("school_id", invalidSelectionMessage("school_id"))
		case err != nil:
			return nil, err
		}
	}

	code := optionalString(payload.Code.Valid, payload.Code.String)
	if code != nil && school != nil && !fieldFailed(verr, "code") {
		taken, err := s.branchRepo.CodeExists(ctx, school.ID, *code, excludeID)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("code", takenMessage("code"))
		}
	}
	return school, verr.OrNil()
}

func applyBranch(branch *entities.Branch, payload dto.CreateBranchDTO) {
	branch.SchoolID = payload.SchoolID
	branch.Name = strings.TrimSpace(payload.Name)
	branch.Code = optionalString(payload.Code.Valid, payload.Code.String)
	branch.Address = strings.TrimSpace(payload.Address)
	branch.PhoneNumber = strings.TrimSpace(payload.PhoneNumber)
}

func (s *BranchService) Create(ctx context.Context, payload dto.CreateBranchDTO) (*entities.Branch, error) {
	actor, err := s.authorize(ctx, authz.EntityBranch, authz.Create, nil)
	if err != nil {
		return nil, err
	}
	school, err := s.validate(ctx, &payload, 0)
	if err != nil {
		return nil, err
	}

	branch := &entities.Branch{}
	applyBranch(branch, payload)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.branchRepo.Create(ctx, tx, branch)
	})
	if err != nil {
		return nil, conflictAsValidation(err, branchConstraintFields)
	}
	branch.School = school

	s.logger.Info("Филиал создан", zap.Uint64("id", branch.ID), zap.Uint64("schoolID", branch.SchoolID))
	s.publish(ctx, events.NewEntityEvent(events.Created, authz.EntityBranch, actor.ID, s.subject(ctx, branch)))
	return branch, nil
}

func (s *BranchService) Update(ctx context.Context, id uint64, payload dto.UpdateBranchDTO) (*entities.Branch, error) {
	var (
		actor  *authz.Actor
		before events.Subject
		branch *entities.Branch
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if branch, err = s.branchRepo.FindByID(ctx, tx, id, false); err != nil {
			return err
		}
		if actor, err = s.authorize(ctx, authz.EntityBranch, authz.Update, branch); err != nil {
			return err
		}
		school, err := s.validate(ctx, &payload, id)
		if err != nil {
			return err
		}
		before = events.Subject{ID: branch.ID, Name: branch.Name, Code: deref(branch.Code)}
		applyBranch(branch, payload)
		branch.School = school
		return s.branchRepo.Update(ctx, tx, branch)
	})
	if err != nil {
		return nil, conflictAsValidation(err, branchConstraintFields)
	}

	s.publish(ctx, events.NewUpdatedEvent(authz.EntityBranch, actor.ID, before, s.subject(ctx, branch)))
	return branch, nil
}

func (s *BranchService) Delete(ctx context.Context, id uint64) error {
	var (
		actor  *authz.Actor
		branch *entities.Branch
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if branch, err = s.branchRepo.FindByID(ctx, tx, id, false); err != nil {
			return err
		}
		if actor, err = s.authorize(ctx, authz.EntityBranch, authz.Delete, branch); err != nil {
			return err
		}
		return s.branchRepo.SoftDelete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Филиал удалён", zap.Uint64("id", id), zap.Uint64("actor", actor.ID))
	s.publish(ctx, events.NewEntityEvent(events.Deleted, authz.EntityBranch, actor.ID, s.subject(ctx, branch)))
	return nil
}

func (s *BranchService) Restore(ctx context.Context, id uint64) (*entities.Branch, error) {
	var (
		actor  *authz.Actor
		branch *entities.Branch
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if branch, err = s.branchRepo.FindByID(ctx, tx, id, true); err != nil {
			return err
		}
		if actor, err = s.authorize(ctx, authz.EntityBranch, authz.Restore, branch); err != nil {
			return err
		}
		if err := s.branchRepo.Restore(ctx, tx, id); err != nil {
			return err
		}
		branch.DeletedAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEntityEvent(events.Restored, authz.EntityBranch, actor.ID, s.subject(ctx, branch)))
	return branch, nil
}

func (s *BranchService) ForceDelete(ctx context.Context, id uint64) error {
	var (
		actor  *authz.Actor
		branch *entities.Branch
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if branch, err = s.branchRepo.FindByID(ctx, tx, id, true); err != nil {
			return err
		}
		if actor, err = s.authorize(ctx, authz.EntityBranch, authz.ForceDelete, branch); err != nil {
			return err
		}
		return s.branchRepo.ForceDelete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Warn("Филиал удалён безвозвратно", zap.Uint64("id", id), zap.Uint64("actor", actor.ID))
	s.publish(ctx, events.NewEntityEvent(events.ForceDeleted, authz.EntityBranch, actor.ID, s.subject(ctx, branch)))
	return nil
}
