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

type ContentService interface {
	List(ctx context.Context, ownerID, moduleID string) ([]models.Content, error)
	// Create stores a new item of kind and places it at the end of the
	// module unless req pins a position. upload is required for image and
	// file kinds and rejected for the others.
	Create(ctx context.Context, ownerID, moduleID string, kind models.ContentKind, req *models.ContentRequest, upload *Upload) (*models.Content, error)
	// Update rewrites the item behind a content. A new upload replaces the
	// stored file.
	Update(ctx context.Context, ownerID, contentID string, req *models.ContentRequest, upload *Upload) (*models.Content, error)
	Delete(ctx context.Context, ownerID, contentID string) error
	Reorder(ctx context.Context, ownerID string, req models.ReorderRequest) (models.ReorderResult, error)
}

type contentService struct {
	contentRepo repository.ContentRepository
	moduleRepo  repository.ModuleRepository
	courseRepo  repository.CourseRepository
	positions   *ordering.Assigner[models.ContentScope]
	files       FileStore
	renderer    *ContentRenderer
	hub         ws.EventPublisher
	log         logrus.FieldLogger
}

func NewContentService(
	contentRepo repository.ContentRepository,
	moduleRepo repository.ModuleRepository,
	courseRepo repository.CourseRepository,
	positions *ordering.Assigner[models.ContentScope],
	files FileStore,
	renderer *ContentRenderer,
	hub ws.EventPublisher,
	logger logrus.FieldLogger,
) ContentService {
	return &contentService{
		contentRepo: contentRepo,
		moduleRepo:  moduleRepo,
		courseRepo:  courseRepo,
		positions:   positions,
		files:       files,
		renderer:    renderer,
		hub:         hub,
		log:         logger.WithField("component", "contents"),
	}
}

// ownedContent loads a content and the module it sits in, both reachable
// only through a course owned by ownerID.
func (s *contentService) ownedContent(ctx context.Context, ownerID, contentID string) (*models.Content, *models.Module, error) {
	content, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return nil, nil, err
	}
	module, err := ownedModule(ctx, s.moduleRepo, s.courseRepo, ownerID, content.ModuleID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: content", pkg.ErrNotFound)
	}
	return content, module, nil
}

func (s *contentService) List(ctx context.Context, ownerID, moduleID string) ([]models.Content, error) {
	if _, err := ownedModule(ctx, s.moduleRepo, s.courseRepo, ownerID, moduleID); err != nil {
		return nil, err
	}

	contents, err := s.contentRepo.ListByModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if err := s.renderer.RenderContents(contents); err != nil {
		return nil, err
	}
	return contents, nil
}

func (s *contentService) Create(
	ctx context.Context,
	ownerID, moduleID string,
	kind models.ContentKind,
	req *models.ContentRequest,
	upload *Upload,
) (*models.Content, error) {
	if err := s.validate(kind, req, upload); err != nil {
		return nil, err
	}

	module, err := ownedModule(ctx, s.moduleRepo, s.courseRepo, ownerID, moduleID)
	if err != nil {
		return nil, err
	}

	item := &models.Item{OwnerID: ownerID, Kind: kind}
	applyContentRequest(item, req)

	if upload != nil {
		stored, err := s.files.Save(kind, upload)
		if err != nil {
			return nil, err
		}
		item.FileURL = &stored.URL
		item.FileName = &stored.Name
	}

	content := &models.Content{ModuleID: moduleID, Item: item}
	_, err = s.positions.Assign(ctx, content, req.Position, func(ctx context.Context) error {
		return s.contentRepo.Create(ctx, content)
	})
	if err != nil {
		s.discardFile(item.FileURL)
		return nil, err
	}

	if err := s.render(content); err != nil {
		return nil, err
	}

	s.hub.BroadcastToCourse(module.CourseID, ws.Event{Op: ws.OpContentCreate, Data: content})
	return content, nil
}

func (s *contentService) Update(
	ctx context.Context,
	ownerID, contentID string,
	req *models.ContentRequest,
	upload *Upload,
) (*models.Content, error) {
	content, module, err := s.ownedContent(ctx, ownerID, contentID)
	if err != nil {
		return nil, err
	}
	item := content.Item

	if err := s.validateUpdate(item, req, upload); err != nil {
		return nil, err
	}

	previousFile := item.FileURL
	applyContentRequest(item, req)

	if upload != nil {
		stored, err := s.files.Save(item.Kind, upload)
		if err != nil {
			return nil, err
		}
		item.FileURL = &stored.URL
		item.FileName = &stored.Name
	}

	if err := s.contentRepo.UpdateItem(ctx, item); err != nil {
		if upload != nil {
			s.discardFile(item.FileURL)
		}
		return nil, err
	}
	if upload != nil {
		s.discardFile(previousFile)
	}

	if err := s.render(content); err != nil {
		return nil, err
	}

	s.hub.BroadcastToCourse(module.CourseID, ws.Event{Op: ws.OpContentUpdate, Data: content})
	return content, nil
}

// Delete removes the content with its item and uploaded file. Sibling
// positions are not renumbered.
func (s *contentService) Delete(ctx context.Context, ownerID, contentID string) error {
	content, module, err := s.ownedContent(ctx, ownerID, contentID)
	if err != nil {
		return err
	}

	if err := s.contentRepo.Delete(ctx, contentID); err != nil {
		return err
	}
	s.discardFile(content.Item.FileURL)

	s.hub.BroadcastToCourse(module.CourseID, ws.Event{
		Op:   ws.OpContentDelete,
		Data: ws.ContentDeleteData{ID: contentID, ModuleID: module.ID},
	})
	return nil
}

func (s *contentService) Reorder(ctx context.Context, ownerID string, req models.ReorderRequest) (models.ReorderResult, error) {
	if err := req.Validate(); err != nil {
		return models.ReorderResult{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	result, err := ordering.Reorder(ctx, s.contentRepo, ownerID, req)
	recordReorder("content", result, err)
	if err != nil {
		s.log.WithError(err).WithField("applied", result.Updated).Error("content reorder stopped")
		return result, err
	}

	if result.Updated > 0 {
		s.publishReorder(ctx, ownerID, req)
	}
	return result, nil
}

func (s *contentService) publishReorder(ctx context.Context, ownerID string, req models.ReorderRequest) {
	byCourse := make(map[string]map[string]int)
	for id, pos := range req {
		_, module, err := s.ownedContent(ctx, ownerID, id)
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
			Op:   ws.OpContentsReorder,
			Data: ws.ReorderData{CourseID: courseID, Positions: positions},
		})
	}
}

func (s *contentService) validate(kind models.ContentKind, req *models.ContentRequest, upload *Upload) error {
	if upload != nil && !kind.HasUpload() {
		return fmt.Errorf("%w: %s content takes no file", pkg.ErrBadRequest, kind)
	}
	if err := req.Validate(kind, upload != nil); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	return nil
}

// validateUpdate lets image and file items keep their stored file when no
// new one is sent.
func (s *contentService) validateUpdate(item *models.Item, req *models.ContentRequest, upload *Upload) error {
	if req.Position != nil {
		return fmt.Errorf("%w: position is changed through a reorder", pkg.ErrBadRequest)
	}
	if upload != nil && !item.Kind.HasUpload() {
		return fmt.Errorf("%w: %s content takes no file", pkg.ErrBadRequest, item.Kind)
	}
	hasFile := upload != nil || item.FileURL != nil
	if err := req.Validate(item.Kind, hasFile); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	return nil
}

func (s *contentService) render(content *models.Content) error {
	html, err := s.renderer.Render(content.Item)
	if err != nil {
		return err
	}
	content.Item.Rendered = html
	return nil
}

func (s *contentService) discardFile(fileURL *string) {
	if fileURL == nil {
		return
	}
	if err := s.files.Remove(*fileURL); err != nil {
		s.log.WithError(err).WithField("file_url", *fileURL).Warn("failed to remove upload")
	}
}

// applyContentRequest copies the fields that fit item's kind.
func applyContentRequest(item *models.Item, req *models.ContentRequest) {
	item.Title = req.Title
	switch item.Kind {
	case models.ContentText:
		item.Body = optional(req.Body)
	case models.ContentVideo:
		item.VideoURL = optional(req.VideoURL)
	}
}
