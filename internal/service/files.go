package service

import (
	"errors"
	"fmt"
	"io"

	"preset-shop/internal/storage"

	"go.uber.org/zap"
)

// FileStorage persists catalog uploads
type FileStorage interface {
	SaveImage(folder, filename string, r io.Reader) (string, error)
	SavePresetFile(filename string, r io.Reader) (string, error)
	Delete(ref string) error
}

// Upload is a file received from an administrator
type Upload struct {
	Filename string
	Content  io.Reader
}

// uploadBatch tracks files written during one catalog change so they can be
// rolled back when the database write fails, and the files they replace so
// those can be removed once it succeeds.
type uploadBatch struct {
	store    FileStorage
	logger   *zap.Logger
	saved    []string
	replaced []string
}

func newUploadBatch(store FileStorage, logger *zap.Logger) *uploadBatch {
	return &uploadBatch{store: store, logger: logger}
}

func (b *uploadBatch) image(folder string, u *Upload, previous string) (string, error) {
	ref, err := b.store.SaveImage(folder, u.Filename, u.Content)
	return b.track(ref, previous, err)
}

func (b *uploadBatch) presetFile(u *Upload, previous string) (string, error) {
	ref, err := b.store.SavePresetFile(u.Filename, u.Content)
	return b.track(ref, previous, err)
}

func (b *uploadBatch) track(ref, previous string, err error) (string, error) {
	if err != nil {
		b.rollback()
		if errors.Is(err, storage.ErrInvalidFile) {
			return "", invalidf(err.Error())
		}
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	b.saved = append(b.saved, ref)
	if previous != "" {
		b.replaced = append(b.replaced, previous)
	}
	return ref, nil
}

// rollback removes files written by this batch
func (b *uploadBatch) rollback() {
	b.remove(b.saved)
	b.saved = nil
}

// commit removes the files that were replaced
func (b *uploadBatch) commit() {
	b.remove(b.replaced)
	b.replaced = nil
}

func (b *uploadBatch) remove(refs []string) {
	for _, ref := range refs {
		if err := b.store.Delete(ref); err != nil {
			b.logger.Warn("Failed to delete stored file", zap.String("ref", ref), zap.Error(err))
		}
	}
}
