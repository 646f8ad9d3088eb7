// Package storage keeps uploaded images under the web root.
package storage

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Upload folders.
const (
	FolderProducts = "products"
	FolderProfiles = "profiles"
)

const uploadsPrefix = "/uploads/"

var (
	allowedExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	}
	allowedContentTypes = map[string]bool{
		"image/jpeg": true, "image/png": true, "image/gif": true, "image/webp": true,
	}
)

// Upload errors are user-facing.
var (
	ErrEmptyFile   = errors.New("El archivo está vacío")
	ErrTooLarge    = errors.New("El archivo excede el tamaño máximo permitido")
	ErrBadType     = errors.New("Tipo de archivo no permitido. Solo se aceptan imágenes JPG, PNG, GIF o WEBP")
	ErrWriteFailed = errors.New("Error al guardar el archivo")
)

// UploadResult is the outcome of one file in a batch upload.
type UploadResult struct {
	Path string
	Err  error
}

type FileUploadService interface {
	// UploadImage validates and stores file under uploads/{folder} and returns
	// its web path (/uploads/{folder}/{uuid}.{ext}).
	UploadImage(file *multipart.FileHeader, folder string) (string, error)
	UploadImages(files []*multipart.FileHeader, folder string) []UploadResult
	// DeleteImage removes a previously uploaded file. It reports false for
	// empty or foreign paths and for files that do not exist.
	DeleteImage(webPath string) bool
	ValidateImage(file *multipart.FileHeader) error
}

type fileUploadService struct {
	fs       afero.Fs
	maxBytes int64
}

// NewFileUploadService stores files in fs, which is rooted at the web root
// (an afero.BasePathFs over UPLOADS_DIR in production).
func NewFileUploadService(fs afero.Fs, maxBytes int64) FileUploadService {
	return &fileUploadService{fs: fs, maxBytes: maxBytes}
}

// NewDiskFS roots an OS filesystem at dir.
func NewDiskFS(dir string) afero.Fs {
	return afero.NewBasePathFs(afero.NewOsFs(), dir)
}

func (s *fileUploadService) ValidateImage(file *multipart.FileHeader) error {
	if file == nil || file.Size <= 0 {
		return ErrEmptyFile
	}
	if s.maxBytes > 0 && file.Size > s.maxBytes {
		return ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return ErrBadType
	}
	ct := strings.ToLower(strings.TrimSpace(file.Header.Get("Content-Type")))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if !allowedContentTypes[ct] {
		return ErrBadType
	}
	return nil
}

func (s *fileUploadService) UploadImage(file *multipart.FileHeader, folder string) (string, error) {
	if err := s.ValidateImage(file); err != nil {
		return "", err
	}
	folder = sanitizeFolder(folder)
	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := uuid.NewString() + ext
	dir := path.Join("uploads", folder)

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("upload: mkdir failed")
		return "", ErrWriteFailed
	}

	src, err := file.Open()
	if err != nil {
		return "", ErrWriteFailed
	}
	defer src.Close()

	dst, err := s.fs.OpenFile(path.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		log.Error().Err(err).Str("file", name).Msg("upload: create failed")
		return "", ErrWriteFailed
	}
	written, copyErr := io.Copy(dst, io.LimitReader(src, s.limit()+1))
	closeErr := dst.Close()
	if copyErr != nil || closeErr != nil || written > s.limit() {
		_ = s.fs.Remove(path.Join(dir, name))
		if written > s.limit() {
			return "", ErrTooLarge
		}
		log.Error().Err(errors.Join(copyErr, closeErr)).Str("file", name).Msg("upload: write failed")
		return "", ErrWriteFailed
	}

	return uploadsPrefix + folder + "/" + name, nil
}

func (s *fileUploadService) UploadImages(files []*multipart.FileHeader, folder string) []UploadResult {
	results := make([]UploadResult, 0, len(files))
	for _, f := range files {
		p, err := s.UploadImage(f, folder)
		results = append(results, UploadResult{Path: p, Err: err})
	}
	return results
}

func (s *fileUploadService) DeleteImage(webPath string) bool {
	rel, ok := relativeUploadPath(webPath)
	if !ok {
		return false
	}
	if _, err := s.fs.Stat(rel); err != nil {
		return false
	}
	if err := s.fs.Remove(rel); err != nil {
		log.Warn().Err(err).Str("path", webPath).Msg("upload: delete failed")
		return false
	}
	return true
}

func (s *fileUploadService) limit() int64 {
	if s.maxBytes > 0 {
		return s.maxBytes
	}
	return 1 << 62
}

// relativeUploadPath maps "/uploads/x/y.png" to "uploads/x/y.png", refusing
// anything that would escape the uploads directory.
func relativeUploadPath(webPath string) (string, bool) {
	if !strings.HasPrefix(webPath, uploadsPrefix) {
		return "", false
	}
	clean := path.Clean(webPath)
	if !strings.HasPrefix(clean, uploadsPrefix) || clean == strings.TrimSuffix(uploadsPrefix, "/") {
		return "", false
	}
	return strings.TrimPrefix(clean, "/"), true
}

func sanitizeFolder(folder string) string {
	switch folder {
	case FolderProfiles:
		return FolderProfiles
	case FolderProducts, "":
		return FolderProducts
	}
	folder = filepath.Base(folder)
	if folder == "." || folder == ".." || folder == string(filepath.Separator) {
		return FolderProducts
	}
	return folder
}
