package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/prostore-backend/internal/identity"
	"github.com/angelmondragon/prostore-backend/internal/media"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
)

type stubMediaService struct {
	fileName string
	body     []byte
}

func (s *stubMediaService) UploadImage(ctx context.Context, id identity.Identity, fileName string, body io.Reader) (*media.UploadResult, error) {
	s.fileName = fileName
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	s.body = raw
	return &media.UploadResult{URL: "https://cdn.example.com/k", Key: "k", Size: int64(len(raw)), ContentType: "image/png"}, nil
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	svc := &stubMediaService{}
	body, contentType := multipartBody(t, "file", "shirt.png", []byte("\x89PNG\r\n\x1a\npayload"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	req = asUser(req, uuid.New(), enums.RoleAdmin)

	rec := serve(UploadImage(svc, 4<<20, testLogger()), req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "shirt.png", svc.fileName)
	require.Equal(t, []byte("\x89PNG\r\n\x1a\npayload"), svc.body)
	require.Contains(t, rec.Body.String(), `"contentType":"image/png"`)
}

func TestUploadImageMissingFile(t *testing.T) {
	svc := &stubMediaService{}
	body, contentType := multipartBody(t, "other", "shirt.png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := serve(UploadImage(svc, 4<<20, testLogger()), req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadImageDisabled(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", nil)
	rec := serve(UploadImage(nil, 4<<20, testLogger()), req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
