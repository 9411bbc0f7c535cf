package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
	"github.com/akinalp/lectern/services"
)

// multipartMemory is how much of a multipart body is kept in memory; the
// rest spills to temporary files.
const multipartMemory = 8 << 20

// ContentHandler manages module contents. Create and Update accept either
// JSON or multipart/form-data; image and file kinds need the multipart
// form with the file under "file".
type ContentHandler struct {
	contentService services.ContentService
	maxUploadSize  int64
}

func NewContentHandler(contentService services.ContentService, maxUploadSize int64) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		maxUploadSize:  maxUploadSize,
	}
}

// List handles GET /api/manage/modules/{id}/contents.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	contents, err := h.contentService.List(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, contents)
}

// Create handles POST /api/manage/modules/{id}/content/{kind}.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	kind, err := models.ParseContentKind(r.PathValue("kind"))
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusNotFound, err.Error())
		return
	}

	req, upload, ok := h.readContentRequest(w, r)
	if !ok {
		return
	}
	if upload != nil {
		defer upload.close()
	}

	content, err := h.contentService.Create(r.Context(), user.ID, r.PathValue("id"), kind, req, upload.toService())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, content)
}

// Update handles PATCH /api/manage/contents/{id}.
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, upload, ok := h.readContentRequest(w, r)
	if !ok {
		return
	}
	if upload != nil {
		defer upload.close()
	}

	content, err := h.contentService.Update(r.Context(), user.ID, r.PathValue("id"), req, upload.toService())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, content)
}

func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.contentService.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "content deleted"})
}

// Reorder handles POST /api/manage/contents/order.
func (h *ContentHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.contentService.Reorder(r.Context(), user.ID, req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, models.ReorderAck{Saved: "OK"})
}

// formUpload holds the open multipart file until the handler returns.
type formUpload struct {
	file   multipart.File
	header *multipart.FileHeader
}

func (u *formUpload) toService() *services.Upload {
	if u == nil {
		return nil
	}
	return &services.Upload{
		File:     u.file,
		Filename: u.header.Filename,
		Size:     u.header.Size,
	}
}

func (u *formUpload) close() {
	u.file.Close()
}

func (h *ContentHandler) readContentRequest(w http.ResponseWriter, r *http.Request) (*models.ContentRequest, *formUpload, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req models.ContentRequest
		if !decodeJSON(w, r, &req) {
			return nil, nil, false
		}
		return &req, nil, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkg.ErrorWithMessage(w, http.StatusRequestEntityTooLarge, "upload too large")
			return nil, nil, false
		}
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid multipart form")
		return nil, nil, false
	}

	req := &models.ContentRequest{
		Title:    r.FormValue("title"),
		Body:     r.FormValue("body"),
		VideoURL: r.FormValue("video_url"),
	}
	if raw := r.FormValue("position"); raw != "" {
		pos, err := strconv.Atoi(raw)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "position must be an integer")
			return nil, nil, false
		}
		req.Position = &pos
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, nil, true
	case err != nil:
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid file field")
		return nil, nil, false
	}

	if header.Size > h.maxUploadSize {
		file.Close()
		pkg.ErrorWithMessage(w, http.StatusRequestEntityTooLarge, "upload too large")
		return nil, nil, false
	}

	return req, &formUpload{file: file, header: header}, true
}
