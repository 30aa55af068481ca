package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/prostore-backend/internal/identity"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
	"github.com/angelmondragon/prostore-backend/pkg/storage/gcs"
)

type objectStore interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (*gcs.Object, error)
	PublicURL(name string) string
}

// UploadResult describes a stored image.
type UploadResult struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// Service stores product and profile images.
type Service interface {
	UploadImage(ctx context.Context, id identity.Identity, fileName string, body io.Reader) (*UploadResult, error)
}

type service struct {
	store    objectStore
	maxBytes int64
	logg     *logger.Logger
}

// NewService builds the upload service. maxBytes caps a single image.
func NewService(store objectStore, maxBytes int64, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{store: store, maxBytes: maxBytes, logg: logg}, nil
}

// UploadImage checks size and sniffed type before writing the image under
// a per-user key.
func (s *service) UploadImage(ctx context.Context, id identity.Identity, fileName string, body io.Reader) (*UploadResult, error) {
	userID, err := id.RequireUser()
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file must be at most %dMB", s.maxBytes>>20)).
			WithDetails(map[string]any{"maxBytes": s.maxBytes})
	}

	contentType, ok := sniffImage(data)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only png, jpeg, webp and gif images are allowed").
			WithDetails(map[string]any{"contentType": contentType})
	}

	key := buildKey(userID, fileName, contentType)
	obj, err := s.store.Upload(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}
	if obj != nil && obj.Name != "" {
		key = obj.Name
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"key": key, "size": len(data)}), "image uploaded")
	}
	return &UploadResult{
		URL:         s.store.PublicURL(key),
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

func buildKey(userID uuid.UUID, fileName, contentType string) string {
	name := sanitizeFileName(fileName)
	ext := extensionFor(contentType)
	if name == "" {
		name = "image" + ext
	} else if ext != "" && !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	return fmt.Sprintf("uploads/%s/%s-%s", userID, uuid.NewString(), name)
}
