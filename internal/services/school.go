package services

import (
	"context"
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
	"school-system/pkg/types"
)

var schoolConstraintFields = map[string]string{
	"schools_code_key":  "code",
	"schools_email_key": "email",
}

type SchoolServiceInterface interface {
	List(ctx context.Context, params url.Values) (*types.ListResult[entities.School], error)
	Find(ctx context.Context, id uint64) (*entities.School, error)
	Create(ctx context.Context, payload dto.CreateSchoolDTO) (*entities.School, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateSchoolDTO) (*entities.School, error)
	Delete(ctx context.Context, id uint64) error
	Restore(ctx context.Context, id uint64) (*entities.School, error)
	ForceDelete(ctx context.Context, id uint64) error
}

type SchoolService struct {
	BaseService
	schoolRepo repositories.SchoolRepositoryInterface
	branchRepo repositories.BranchRepositoryInterface
	txManager  repositories.TxManagerInterface
	validator  Validator
}

func NewSchoolService(
	base BaseService,
	schoolRepo repositories.SchoolRepositoryInterface,
	branchRepo repositories.BranchRepositoryInterface,
	txManager repositories.TxManagerInterface,
	validator Validator,
) SchoolServiceInterface {
	return &SchoolService{
		BaseService: base,
		schoolRepo:  schoolRepo,
		branchRepo:  branchRepo,
		txManager:   txManager,
		validator:   validator,
	}
}

func schoolSubject(s *entities.School) events.Subject {
	return events.Subject{ID: s.ID, Name: s.Name, Code: deref(s.Code)}
}

// attachBranches раскладывает филиалы по школам. У школы без филиалов - пустой список, не null.
func (s *SchoolService) attachBranches(ctx context.Context, schools []entities.School) error {
	ids := make([]uint64, 0, len(schools))
	for i := range schools {
		schools[i].Branches = []entities.Branch{}
		ids = append(ids, schools[i].ID)
	}
	branches, err := s.branchRepo.ListBySchools(ctx, ids)
	if err != nil {
		return err
	}
	index := make(map[uint64]int, len(schools))
	for i := range schools {
		index[schools[i].ID] = i
	}
	for _, b := range branches {
		if i, ok := index[b.SchoolID]; ok {
			schools[i].Branches = append(schools[i].Branches, b)
		}
	}
	return nil
}

func (s *SchoolService) List(ctx context.Context, params url.Values) (*types.ListResult[entities.School], error) {
	if _, err := s.authorize(ctx, authz.EntitySchool, authz.ViewAny, nil); err != nil {
		return nil, err
	}
	plan, err := db.BuildPlan(repositories.SchoolListSpec, db.ParseListParams(params))
	if err != nil {
		return nil, err
	}
	schools, total, err := s.schoolRepo.List(ctx, plan)
	if err != nil {
		s.logger.Error("Не удалось получить список школ", zap.Error(err))
		return nil, err
	}
	if err := s.attachBranches(ctx, schools); err != nil {
		return nil, err
	}
	return &types.ListResult[entities.School]{
		List:       schools,
		Pagination: types.NewPaginationMeta(total, plan.Page, plan.PerPage),
		Filters:    plan.Applied,
	}, nil
}

// Find возвращает школу вместе с её филиалами.
func (s *SchoolService) Find(ctx context.Context, id uint64) (*entities.School, error) {
	school, err := s.schoolRepo.FindByID(ctx, nil, id, false)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, authz.EntitySchool, authz.View, school); err != nil {
		return nil, err
	}
	if school.Branches, err = s.branchRepo.ListBySchool(ctx, id); err != nil {
		return nil, err
	}
	return school, nil
}

func (s *SchoolService) validate(ctx context.Context, payload *dto.CreateSchoolDTO, excludeID uint64) error {
	verr, err := startValidation(s.validator, payload)
	if err != nil {
		return err
	}
	if !fieldFailed(verr, "email") {
		taken, err := s.schoolRepo.EmailExists(ctx, strings.TrimSpace(payload.Email), excludeID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("email", takenMessage("email"))
		}
	}
	if code := optionalString(payload.Code.Valid, payload.Code.String); code != nil && !fieldFailed(verr, "code") {
		taken, err := s.schoolRepo.CodeExists(ctx, *code, excludeID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("code", takenMessage("code"))
		}
	}
	return verr.OrNil()
}

func applySchool(school *entities.School, payload dto.CreateSchoolDTO) {
	school.Name = strings.TrimSpace(payload.Name)
	school.Code = optionalString(payload.Code.Valid, payload.Code.String)
	school.Address = strings.TrimSpace(payload.Address)
	school.Email = strings.TrimSpace(payload.Email)
	school.PhoneNumber = strings.TrimSpace(payload.PhoneNumber)
}

func (s *SchoolService) Create(ctx context.Context, payload dto.CreateSchoolDTO) (*entities.School, error) {
	actor, err := s.authorize(ctx, authz.EntitySchool, authz.Create, nil)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &payload, 0); err != nil {
		return nil, err
	}

	school := &entities.School{}
	applySchool(school, payload)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.schoolRepo.Create(ctx, tx, school)
	})
	if err != nil {
		return nil, conflictAsValidation(err, schoolConstraintFields)
	}

	school.Branches = []entities.Branch{}

	s.logger.Info("Школа создана", zap.Uint64("id", school.ID), zap.Uint64("actor", actor.ID))
	s.publish(ctx, events.NewEntityEvent(events.Created, authz.EntitySchool, actor.ID, schoolSubject(school)))
	return school, nil
}

func (s *SchoolService) Update(ctx context.Context, id uint64, payload dto.UpdateSchoolDTO) (*entities.School, error) {
	var (
		actor  *authz.Actor
		before events.Subject
		school *entities.School
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		school, err = s.schoolRepo.FindByID(ctx, tx, id, false)
		if err != nil {
			return err
		}
		if actor, err = s.authorize(ctx, authz.EntitySchool, authz.Update, school); err != nil {
			return err
		}
		if err := s.validate(ctx, &payload, id); err != nil {
			return err
		}
		before = schoolSubject(school)
		applySchool(school, payload)
		if err := s.schoolRepo.Update(ctx, tx, school); err != nil {
			return err
		}
		school.Branches, err = s.branchRepo.ListBySchool(ctx, id)
		return err
	})
	if err != nil {
		return nil, conflictAsValidation(err, schoolConstraintFields)
	}

	s.publish(ctx, events.NewUpdatedEvent(authz.EntitySchool, actor.ID, before, schoolSubject(school)))
	return school, nil
}

func (s *SchoolService) Delete(ctx context.Context, id uint64) error {
	var (
		actor  *authz.Actor
		school *entities.School
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if school, err = s.schoolRepo.FindByID(ctx, tx, id, false); err != nil {
			return err
		}
		if actor, err = s.authorize(ctx, authz.EntitySchool, authz.Delete, school); err != nil {
			return err
		}
		return s.schoolRepo.SoftDelete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Школа удалена", zap.Uint64("id", id), zap.Uint64("actor", actor.ID))
	s.publish(ctx, events.NewEntityEvent(events.Deleted, authz.EntitySchool, actor.ID, schoolSubject(school)))
	return nil
}

// Restore работает только с удалённой школой, иначе NotFound.
func (s *SchoolService) Restore(ctx context.Context, id uint64) (*entities.School, error) {
	var (
		actor  *authz.Actor
		school *entities.School
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if school, err = s.schoolRepo.FindByID(ctx, tx, id, true); err != nil {
			return err
		}
		if actor, err = s.authorize(ctx, authz.EntitySchool, authz.Restore, school); err != nil {
			return err
		}
		if err := s.schoolRepo.Restore(ctx, tx, id); err != nil {
			return err
		}
		school.DeletedAt = nil
		school.Branches, err = s.branchRepo.ListBySchool(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEntityEvent(events.Restored, authz.EntitySchool, actor.ID, schoolSubject(school)))
	return school, nil
}

// ForceDelete удаляет строку безвозвратно, в том числе уже мягко удалённую. Филиалы и отделы уходят каскадом.
func (s *SchoolService) ForceDelete(ctx context.Context, id uint64) error {
	var (
		actor  *authz.Actor
		school *entities.School
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if school, err = s.schoolRepo.FindByID(ctx, tx, id, true); err != nil {
			return err
		}
		if actor, err = s.authorize(ctx, authz.EntitySchool, authz.ForceDelete, school); err != nil {
			return err
		}
		return s.schoolRepo.ForceDelete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Warn("Школа удалена безвозвратно", zap.Uint64("id", id), zap.Uint64("actor", actor.ID))
	s.publish(ctx, events.NewEntityEvent(events.ForceDeleted, authz.EntitySchool, actor.ID, schoolSubject(school)))
	return nil
}
