package transport

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"preset-shop/internal/service"
	"preset-shop/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxMultipartMemory = 32 << 20
	// Largest catalog request: a preset file plus two images and the text fields
	maxMultipartBody = storage.MaxPresetFileSize + 2*storage.MaxImageSize + 1<<20
)

var errBadForm = &service.Error{Kind: service.KindInvalid, Message: "invalid multipart form"}

// catalogForm reads multipart catalog submissions
type catalogForm struct {
	r     *http.Request
	files []multipart.File
}

func parseCatalogForm(w http.ResponseWriter, r *http.Request) (*catalogForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, errBadForm
	}
	return &catalogForm{r: r}, nil
}

// Close releases uploaded parts and their temporary files
func (f *catalogForm) Close() {
	for _, file := range f.files {
		file.Close()
	}
	if f.r.MultipartForm != nil {
		f.r.MultipartForm.RemoveAll()
	}
}

func (f *catalogForm) has(key string) bool {
	_, ok := f.r.MultipartForm.Value[key]
	return ok
}

func (f *catalogForm) text(key string) string {
	return strings.TrimSpace(f.r.FormValue(key))
}

func (f *catalogForm) optionalText(key string) *string {
	if !f.has(key) {
		return nil
	}
	v := f.text(key)
	return &v
}

func (f *catalogForm) price(key string) (*decimal.Decimal, error) {
	if !f.has(key) || f.text(key) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(f.text(key))
	if err != nil {
		return nil, &service.Error{Kind: service.KindInvalid, Message: key + " must be a decimal number"}
	}
	return &d, nil
}

func (f *catalogForm) uuid(key string) (*uuid.UUID, error) {
	if !f.has(key) || f.text(key) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(f.text(key))
	if err != nil {
		return nil, &service.Error{Kind: service.KindInvalid, Message: key + " must be a valid identifier"}
	}
	return &id, nil
}

func (f *catalogForm) integer(key string) (*int, error) {
	if !f.has(key) || f.text(key) == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(f.text(key))
	if err != nil {
		return nil, &service.Error{Kind: service.KindInvalid, Message: key + " must be an integer"}
	}
	return &n, nil
}

func (f *catalogForm) boolean(key string) (*bool, error) {
	if !f.has(key) || f.text(key) == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(f.text(key))
	if err != nil {
		return nil, &service.Error{Kind: service.KindInvalid, Message: key + " must be true or false"}
	}
	return &b, nil
}

// upload returns nil when the part is absent
func (f *catalogForm) upload(key string) (*service.Upload, error) {
	file, header, err := f.r.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errBadForm
	}
	f.files = append(f.files, file)
	return &service.Upload{Filename: header.Filename, Content: file}, nil
}

// uploads reads several file parts, stopping at the first malformed one
func (f *catalogForm) uploads(keys ...string) ([]*service.Upload, error) {
	out := make([]*service.Upload, len(keys))
	for i, key := range keys {
		u, err := f.upload(key)
		if err != nil {
			return nil, err
		}
		out[i] = u
	}
	return out, nil
}

func pathID(r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	return id, err == nil
}
