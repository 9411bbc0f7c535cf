package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/ordering"
	"github.com/akinalp/lectern/pkg"
	"github.com/akinalp/lectern/repository"
	"github.com/akinalp/lectern/ws"
)

type ModuleService interface {
	List(ctx context.Context, ownerID, courseID string) ([]models.Module, error)
	// Create appends the module to its course unless req pins a position.
	Create(ctx context.Context, ownerID, courseID string, req *models.CreateModuleRequest) (*models.Module, error)
	// Update changes title and description; the position is left alone.
	Update(ctx context.Context, ownerID, moduleID string, req *models.UpdateModuleRequest) (*models.Module, error)
	Delete(ctx context.Context, ownerID, moduleID string) error
	Reorder(ctx context.Context, ownerID string, req models.ReorderRequest) (models.ReorderResult, error)
}

type moduleService struct {
	moduleRepo repository.ModuleRepository
	courseRepo repository.CourseRepository
	positions  *ordering.Assigner[models.ModuleScope]
	hub        ws.EventPublisher
	log        logrus.FieldLogger
}

func NewModuleService(
	moduleRepo repository.ModuleRepository,
	courseRepo repository.CourseRepository,
	positions *ordering.Assigner[models.ModuleScope],
	hub ws.EventPublisher,
	logger logrus.FieldLogger,
) ModuleService {
	return &moduleService{
		moduleRepo: moduleRepo,
		courseRepo: courseRepo,
		positions:  positions,
		hub:        hub,
		log:        logger.WithField("component", "modules"),
	}
}

// ownedModule loads a module whose course belongs to ownerID.
func ownedModule(
	ctx context.Context,
	modules repository.ModuleRepository,
	courses repository.CourseRepository,
	ownerID, moduleID string,
) (*models.Module, error) {
	module, err := modules.GetByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedCourse(ctx, courses, ownerID, module.CourseID); err != nil {
		return nil, fmt.Errorf("%w: module", pkg.ErrNotFound)
	}
	return module, nil
}

func (s *moduleService) List(ctx context.Context, ownerID, courseID string) ([]models.Module, error) {
	if _, err := ownedCourse(ctx, s.courseRepo, ownerID, courseID); err != nil {
		return nil, err
	}
	return s.moduleRepo.ListByCourse(ctx, courseID)
}

func (s *moduleService) Create(ctx context.Context, ownerID, courseID string, req *models.CreateModuleRequest) (*models.Module, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if _, err := ownedCourse(ctx, s.courseRepo, ownerID, courseID); err != nil {
		return nil, err
	}

	module := &models.Module{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
	}

	_, err := s.positions.Assign(ctx, module, req.Position, func(ctx context.Context) error {
		return s.moduleRepo.Create(ctx, module)
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToCourse(courseID, ws.Event{Op: ws.OpModuleCreate, Data: module})
	return module, nil
}

func (s *moduleService) Update(ctx context.Context, ownerID, moduleID string, req *models.UpdateModuleRequest) (*models.Module, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	module, err := ownedModule(ctx, s.moduleRepo, s.courseRepo, ownerID, moduleID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		module.Title = *req.Title
	}
	if req.Description != nil {
		module.Description = *req.Description
	}

	if err := s.moduleRepo.Update(ctx, module); err != nil {
		return nil, err
	}

	s.hub.BroadcastToCourse(module.CourseID, ws.Event{Op: ws.OpModuleUpdate, Data: module})
	return module, nil
}

// Delete removes the module and its contents. Sibling positions are not
// renumbered.
func (s *moduleService) Delete(ctx context.Context, ownerID, moduleID string) error {
	module, err := ownedModule(ctx, s.moduleRepo, s.courseRepo, ownerID, moduleID)
	if err != nil {
		return err
	}

	if err := s.moduleRepo.Delete(ctx, moduleID); err != nil {
		return err
	}

	s.hub.BroadcastToCourse(module.CourseID, ws.Event{
		Op:   ws.OpModuleDelete,
		Data: ws.ModuleDeleteData{ID: moduleID, CourseID: module.CourseID},
	})
	return nil
}

func (s *moduleService) Reorder(ctx context.Context, ownerID string, req models.ReorderRequest) (models.ReorderResult, error) {
	if err := req.Validate(); err != nil {
		return models.ReorderResult{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	result, err := ordering.Reorder(ctx, s.moduleRepo, ownerID, req)
	recordReorder("module", result, err)
	if err != nil {
		s.log.WithError(err).WithField("applied", result.Updated).Error("module reorder stopped")
		return result, err
	}

	if result.Updated > 0 {
		s.publishReorder(ctx, ownerID, req)
	}
	return result, nil
}

// publishReorder tells each affected course which of its modules moved.
func (s *moduleService) publishReorder(ctx context.Context, ownerID string, req models.ReorderRequest) {
	byCourse := make(map[string]map[string]int)
	for id, pos := range req {
		module, err := ownedModule(ctx, s.moduleRepo, s.courseRepo, ownerID, id)
		if err != nil {
			continue
		}
		if byCourse[module.CourseID] == nil {
			byCourse[module.CourseID] = make(map[string]int)
		}
		byCourse[module.CourseID][id] = pos
	}

	for courseID, positions := range byCourse {
		s.hub.BroadcastToCourse(courseID, ws.Event{
			Op:   ws.OpModulesReorder,
			Data: ws.ReorderData{CourseID: courseID, Positions: positions},
		})
	}
}
