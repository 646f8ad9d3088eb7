package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader builds a real *multipart.FileHeader by round-tripping a
// multipart body through net/http.
func fileHeader(t *testing.T, name, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestUploadImage_StoresUnderFolder(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc := NewFileUploadService(fs, 1<<20)

	p, err := svc.UploadImage(fileHeader(t, "Foto.JPG", "image/jpeg", []byte("jpegdata")), FolderProducts)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(p, "/uploads/products/"))
	assert.True(t, strings.HasSuffix(p, ".jpg"))
	data, err := afero.ReadFile(fs, strings.TrimPrefix(p, "/"))
	require.NoError(t, err)
	assert.Equal(t, "jpegdata", string(data))
}

func TestUploadImage_Validation(t *testing.T) {
	svc := NewFileUploadService(afero.NewMemMapFs(), 4)

	cases := []struct {
		name     string
		file     *multipart.FileHeader
		expected error
	}{
		{"bad extension", fileHeader(t, "doc.pdf", "image/png", []byte("x")), ErrBadType},
		{"bad content type", fileHeader(t, "a.png", "application/pdf", []byte("x")), ErrBadType},
		{"too large", fileHeader(t, "a.png", "image/png", []byte("12345")), ErrTooLarge},
		{"empty", fileHeader(t, "a.png", "image/png", nil), ErrEmptyFile},
		{"nil", nil, ErrEmptyFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UploadImage(tc.file, FolderProducts)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestUploadImages_PerFileResults(t *testing.T) {
	svc := NewFileUploadService(afero.NewMemMapFs(), 1<<20)

	results := svc.UploadImages([]*multipart.FileHeader{
		fileHeader(t, "a.png", "image/png", []byte("png")),
		fileHeader(t, "b.exe", "application/octet-stream", []byte("mz")),
		fileHeader(t, "c.webp", "image/webp", []byte("webp")),
	}, FolderProducts)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, ErrBadType)
	assert.NoError(t, results[2].Err)
}

func TestDeleteImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc := NewFileUploadService(fs, 1<<20)
	p, err := svc.UploadImage(fileHeader(t, "a.gif", "image/gif", []byte("gif")), FolderProfiles)
	require.NoError(t, err)

	assert.True(t, svc.DeleteImage(p))
	assert.False(t, svc.DeleteImage(p), "already deleted")
	assert.False(t, svc.DeleteImage(""))
	assert.False(t, svc.DeleteImage("/images/default-avatar.png"))
	assert.False(t, svc.DeleteImage("/uploads/../etc/passwd"))
	assert.False(t, svc.DeleteImage("/uploads/products/missing.png"))
}
