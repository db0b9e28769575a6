package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidFile  = errors.New("invalid file")
)

const (
	UploadsPrefix = "/uploads"

	FolderPresetBefore = "presets/before"
	FolderPresetAfter  = "presets/after"
	FolderProducts     = "products"
	folderPresetFiles  = "presets/files"

	MaxImageSize      int64 = 10 << 20
	MaxPresetFileSize int64 = 50 << 20

	sniffLen = 3072
)

// PublicFolders are the only upload folders served without authorization
var PublicFolders = []string{FolderPresetBefore, FolderPresetAfter, FolderProducts}

var (
	imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	imageMIMETypes  = []string{"image/jpeg", "image/png", "image/webp"}

	presetFileExtensions = map[string]bool{".zip": true, ".lrtemplate": true, ".xmp": true, ".dng": true}
)

// FileStore keeps uploaded images and preset files under /uploads
type FileStore struct {
	fs     afero.Fs
	logger *zap.Logger
}

func NewFileStore(fs afero.Fs, logger *zap.Logger) *FileStore {
	return &FileStore{fs: fs, logger: logger}
}

// NewOsFileStore roots the store at a directory on disk
func NewOsFileStore(root string, logger *zap.Logger) *FileStore {
	return NewFileStore(afero.NewBasePathFs(afero.NewOsFs(), root), logger)
}

// SaveImage validates extension, size and sniffed content type, then stores
// the image under a generated name and returns its reference.
func (s *FileStore) SaveImage(folder, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("%w: image extension %q is not allowed", ErrInvalidFile, ext)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}

	mime := mimetype.Detect(head)
	if !mimetype.EqualsAny(mime.String(), imageMIMETypes...) {
		return "", fmt.Errorf("%w: content type %s is not an allowed image", ErrInvalidFile, mime.String())
	}

	return s.write(folder, ext, io.MultiReader(bytes.NewReader(head), r), MaxImageSize)
}

// SavePresetFile validates extension and size and stores the downloadable file
func (s *FileStore) SavePresetFile(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	if !presetFileExtensions[ext] {
		return "", fmt.Errorf("%w: preset file extension %q is not allowed", ErrInvalidFile, ext)
	}
	return s.write(folderPresetFiles, ext, r, MaxPresetFileSize)
}

func (s *FileStore) write(folder, ext string, r io.Reader, limit int64) (string, error) {
	dir := path.Join(UploadsPrefix, folder)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload folder: %w", err)
	}

	ref := path.Join(dir, uuid.NewString()+ext)
	f, err := s.fs.Create(ref)
	if err != nil {
		return "", fmt.Errorf("failed to create upload: %w", err)
	}

	written, copyErr := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		s.discard(ref)
		return "", fmt.Errorf("failed to write upload: %w", copyErr)
	case closeErr != nil:
		s.discard(ref)
		return "", fmt.Errorf("failed to write upload: %w", closeErr)
	case written > limit:
		s.discard(ref)
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidFile, limit)
	case written == 0:
		s.discard(ref)
		return "", fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}

	s.logger.Debug("Stored upload", zap.String("ref", ref), zap.Int64("bytes", written))
	return ref, nil
}

func (s *FileStore) discard(ref string) {
	if err := s.fs.Remove(ref); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove partial upload", zap.String("ref", ref), zap.Error(err))
	}
}

// Delete removes a stored file. Empty or missing references are ignored.
func (s *FileStore) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	p, err := resolve(ref)
	if err != nil {
		return err
	}

	if err := s.fs.Remove(p); err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("File already absent", zap.String("ref", ref))
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}
	return nil
}

// Open returns a stored file for reading. The caller closes it.
func (s *FileStore) Open(ref string) (afero.File, error) {
	p, err := resolve(ref)
	if err != nil {
		return nil, ErrFileNotFound
	}

	f, err := s.fs.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open %s: %w", ref, err)
	}

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, ErrFileNotFound
	}
	return f, nil
}

// PublicHandler serves one of the public image folders. Directory listings are not served.
func (s *FileStore) PublicHandler(folder string) http.Handler {
	sub := afero.NewReadOnlyFs(afero.NewBasePathFs(s.fs, path.Join(UploadsPrefix, folder)))
	files := http.FileServer(afero.NewHttpFs(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func resolve(ref string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimPrefix(ref, "/"))
	if !strings.HasPrefix(cleaned, UploadsPrefix+"/") {
		return "", fmt.Errorf("%w: reference %q is outside uploads", ErrInvalidFile, ref)
	}
	return cleaned, nil
}
