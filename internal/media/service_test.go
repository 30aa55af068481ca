package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/prostore-backend/internal/identity"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/storage/gcs"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type stubStore struct {
	name        string
	contentType string
	body        []byte
	err         error
}

func (s *stubStore) Upload(_ context.Context, name, contentType string, body io.Reader) (*gcs.Object, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	s.name, s.contentType, s.body = name, contentType, data
	return &gcs.Object{Name: name, ContentType: contentType, Size: int64(len(data))}, nil
}

func (s *stubStore) PublicURL(name string) string {
	return "https://cdn.example.com/bucket/" + name
}

func user() identity.Identity {
	id := uuid.New()
	return identity.Identity{UserID: &id, Role: enums.RoleUser}
}

func TestUploadImageStoresSniffedType(t *testing.T) {
	store := &stubStore{}
	svc, err := NewService(store, 1<<20, nil)
	require.NoError(t, err)

	caller := user()
	res, err := svc.UploadImage(context.Background(), caller, "my photo.PNG", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.Equal(t, "image/png", res.ContentType)
	require.EqualValues(t, len(pngHeader), res.Size)
	require.True(t, strings.HasPrefix(res.Key, "uploads/"+caller.UserID.String()+"/"))
	require.True(t, strings.HasSuffix(res.Key, "-my-photo.PNG"))
	require.Equal(t, store.PublicURL(res.Key), res.URL)
	require.Equal(t, "image/png", store.contentType)
	require.Equal(t, pngHeader, store.body)
}

func TestUploadImageRejectsNonImages(t *testing.T) {
	svc, err := NewService(&stubStore{}, 1<<20, nil)
	require.NoError(t, err)

	_, err = svc.UploadImage(context.Background(), user(), "notes.png", strings.NewReader("just some text"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UploadImage(context.Background(), user(), "empty.png", strings.NewReader(""))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUploadImageEnforcesLimit(t *testing.T) {
	svc, err := NewService(&stubStore{}, int64(len(pngHeader)), nil)
	require.NoError(t, err)

	oversized := append(append([]byte{}, pngHeader...), 0)
	_, err = svc.UploadImage(context.Background(), user(), "big.png", bytes.NewReader(oversized))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UploadImage(context.Background(), user(), "fits.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
}

func TestUploadImageRequiresUser(t *testing.T) {
	svc, err := NewService(&stubStore{}, 1<<20, nil)
	require.NoError(t, err)
	_, err = svc.UploadImage(context.Background(), identity.Anonymous("cart"), "a.png", bytes.NewReader(pngHeader))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestUploadImageStoreFailure(t *testing.T) {
	svc, err := NewService(&stubStore{err: errors.New("gcs down")}, 1<<20, nil)
	require.NoError(t, err)
	_, err = svc.UploadImage(context.Background(), user(), "a.png", bytes.NewReader(pngHeader))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestBuildKeyAddsExtension(t *testing.T) {
	id := uuid.New()
	require.True(t, strings.HasSuffix(buildKey(id, "", "image/jpeg"), "-image.jpg"))
	require.True(t, strings.HasSuffix(buildKey(id, "../../etc/cat", "image/webp"), "-cat.webp"))
	require.Equal(t, "", sanitizeFileName(" / "))
}
