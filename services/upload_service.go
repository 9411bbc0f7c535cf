package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

// UploadURLPrefix is where stored files are served from.
const UploadURLPrefix = "/api/uploads/"

// Upload is a file received with a content request.
type Upload struct {
	File     io.ReadSeeker
	Filename string
	Size     int64
}

// StoredFile describes a saved upload.
type StoredFile struct {
	URL      string
	Name     string
	MimeType string
}

// FileStore keeps uploaded content files.
type FileStore interface {
	// Save checks the upload against kind and stores it.
	Save(kind models.ContentKind, upload *Upload) (*StoredFile, error)
	// Remove deletes a file previously returned by Save. Missing files are
	// not an error.
	Remove(fileURL string) error
}

type diskFileStore struct {
	dir     string
	maxSize int64
}

func NewDiskFileStore(dir string, maxSize int64) (FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &diskFileStore{dir: dir, maxSize: maxSize}, nil
}

// fileKindTypes is what the file kind accepts besides images, audio and
// video.
var fileKindTypes = []string{
	"application/pdf",
	"text/plain",
	"text/csv",
	"application/zip",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.oasis.opendocument.text",
	"application/epub+zip",
}

// allowedMime decides whether a sniffed type may be stored for kind.
func allowedMime(kind models.ContentKind, detected *mimetype.MIME) bool {
	base := strings.SplitN(detected.String(), ";", 2)[0]
	isImage := strings.HasPrefix(base, "image/")

	switch kind {
	case models.ContentImage:
		return isImage
	case models.ContentFile:
		if isImage || strings.HasPrefix(base, "audio/") || strings.HasPrefix(base, "video/") {
			return true
		}
		for _, t := range fileKindTypes {
			if detected.Is(t) {
				return true
			}
		}
	}
	return false
}

func (s *diskFileStore) Save(kind models.ContentKind, upload *Upload) (*StoredFile, error) {
	if !kind.HasUpload() {
		return nil, fmt.Errorf("%w: %s content takes no file", pkg.ErrBadRequest, kind)
	}
	if upload.Size > s.maxSize {
		return nil, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	detected, err := mimetype.DetectReader(upload.File)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	if !allowedMime(kind, detected) {
		return nil, fmt.Errorf("%w: file type not allowed for %s content: %s", pkg.ErrBadRequest, kind, detected.String())
	}
	if _, err := upload.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("failed to generate file name: %w", err)
	}
	name := sanitizeFilename(upload.Filename)
	diskName := hex.EncodeToString(randomBytes) + "_" + name
	destPath := filepath.Join(s.dir, diskName)

	dest, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dest.Close()

	written, err := io.Copy(dest, io.LimitReader(upload.File, s.maxSize+1))
	if err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(destPath)
		return nil, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	return &StoredFile{
		URL:      UploadURLPrefix + diskName,
		Name:     name,
		MimeType: detected.String(),
	}, nil
}

func (s *diskFileStore) Remove(fileURL string) error {
	name := strings.TrimPrefix(fileURL, UploadURLPrefix)
	if name == fileURL || name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("not an upload url: %s", fileURL)
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// sanitizeFilename keeps the base name and drops path separators and NULs.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '\x00' {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." {
		name = "unnamed"
	}
	return name
}
