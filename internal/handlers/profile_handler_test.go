package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-parser/internal/models"
	"alfredoptarigan/resume-parser/internal/services"
)

type fakeProfileService struct {
	uploadInput  *services.UploadInput
	uploadResult *services.UploadResult
	uploadErr    error

	profile    *models.Profile
	profileErr error

	updateClerkID string
	updateReq     *models.ProfileUpdateRequest

	deleteErr error

	searchQuery string
	searchLimit int
	searchHits  []models.SearchHit
	searchErr   error

	uploads    []models.ResumeUpload
	uploadsErr error
}

func (f *fakeProfileService) UploadResume(ctx context.Context, in services.UploadInput) (*services.UploadResult, error) {
	f.uploadInput = &in
	return f.uploadResult, f.uploadErr
}

func (f *fakeProfileService) GetProfile(ctx context.Context, clerkID string) (*models.Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeProfileService) UpdateProfile(ctx context.Context, clerkID string, req *models.ProfileUpdateRequest) (*models.Profile, error) {
	f.updateClerkID = clerkID
	f.updateReq = req
	if req.ClerkID != clerkID {
		return nil, services.ErrClerkIDMismatch
	}
	return f.profile, f.profileErr
}

func (f *fakeProfileService) DeleteProfile(ctx context.Context, clerkID string) error {
	return f.deleteErr
}

func (f *fakeProfileService) SearchProfiles(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	f.searchQuery = query
	f.searchLimit = limit
	return f.searchHits, f.searchErr
}

func (f *fakeProfileService) ListUploads(ctx context.Context, clerkID string) ([]models.ResumeUpload, error) {
	return f.uploads, f.uploadsErr
}

func strPtr(s string) *string { return &s }

func newTestApp(svc services.ProfileService, maxFileSize int64) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", HandleRoot)
	app.Get("/health", HandleHealth)
	NewProfileHandler(svc, maxFileSize).Register(app)
	return app
}

func multipartRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/users/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func TestHealthAndRoot(t *testing.T) {
	app := newTestApp(&fakeProfileService{}, 1024)

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Resume Parser API", body["message"])
	assert.NotEmpty(t, body["endpoints"])
}

func TestHandleUploadSuccess(t *testing.T) {
	svc := &fakeProfileService{uploadResult: &services.UploadResult{
		ResumeURL: "http://minio/resumes/user_1/cv.pdf",
		Parsed:    &models.ParsedResume{FullName: strPtr("Jane Doe")},
		Profile:   &models.Profile{ClerkID: "user_1", Role: models.RoleJobSeeker},
	}}
	app := newTestApp(svc, 1024)

	req := multipartRequest(t, map[string]string{"clerk_id": "user_1"}, "cv.pdf", []byte("%PDF-1.4"))
	status, body := doRequest(t, app, req)

	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "http://minio/resumes/user_1/cv.pdf", body["resume_url"])
	assert.Equal(t, "Jane Doe", body["result"].(map[string]any)["Full Name"])
	assert.Equal(t, "user_1", body["profile"].(map[string]any)["clerk_id"])

	require.NotNil(t, svc.uploadInput)
	assert.Equal(t, "user_1", svc.uploadInput.ClerkID)
	assert.Equal(t, models.RoleJobSeeker, svc.uploadInput.Role)
	assert.Equal(t, "cv.pdf", svc.uploadInput.Filename)
	assert.Equal(t, []byte("%PDF-1.4"), svc.uploadInput.Content)
}

func TestHandleUploadValidation(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		wantMsg  string
	}{
		{
			name:     "missing clerk id",
			fields:   map[string]string{},
			filename: "cv.pdf",
			wantMsg:  "clerk_id is required",
		},
		{
			name:     "bad role",
			fields:   map[string]string{"clerk_id": "user_1", "user_role": "admin"},
			filename: "cv.pdf",
			wantMsg:  "user_role must be one of: job_seeker, recruiter",
		},
		{
			name:    "missing file",
			fields:  map[string]string{"clerk_id": "user_1"},
			wantMsg: "file is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeProfileService{}
			app := newTestApp(svc, 1024)

			status, body := doRequest(t, app, multipartRequest(t, tt.fields, tt.filename, []byte("data")))
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, tt.wantMsg, body["error"])
			assert.Equal(t, float64(fiber.StatusBadRequest), body["code"])
			assert.Nil(t, svc.uploadInput)
		})
	}
}

func TestHandleUploadOversizedFileIsNotRead(t *testing.T) {
	svc := &fakeProfileService{uploadErr: fmt.Errorf("%w: file size exceeds limit", services.ErrFileTooLarge)}
	app := newTestApp(svc, 10)

	req := multipartRequest(t, map[string]string{"clerk_id": "user_1"}, "cv.pdf", bytes.Repeat([]byte("x"), 20))
	status, body := doRequest(t, app, req)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "file size exceeds")
	require.NotNil(t, svc.uploadInput)
	assert.Equal(t, int64(20), svc.uploadInput.Size)
	assert.Nil(t, svc.uploadInput.Content)
}

func TestHandleUploadProcessingFailure(t *testing.T) {
	svc := &fakeProfileService{uploadErr: errors.New("gemini unavailable")}
	app := newTestApp(svc, 1024)

	req := multipartRequest(t, map[string]string{"clerk_id": "user_1", "user_role": "recruiter"}, "cv.docx", []byte("docx"))
	status, body := doRequest(t, app, req)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to process resume: gemini unavailable", body["error"])
	assert.Equal(t, models.RoleRecruiter, svc.uploadInput.Role)
}

func TestHandleUploadDocConverterMissing(t *testing.T) {
	svc := &fakeProfileService{uploadErr: fmt.Errorf("%w: wvText is not installed", services.ErrDocConverterUnavailable)}
	app := newTestApp(svc, 1024)

	req := multipartRequest(t, map[string]string{"clerk_id": "user_1"}, "legacy.doc", []byte("doc"))
	status, body := doRequest(t, app, req)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body["error"], "Failed to process resume")
}

func TestHandleGetProfile(t *testing.T) {
	svc := &fakeProfileService{profile: &models.Profile{ClerkID: "user_1", FullName: strPtr("Jane Doe")}}
	app := newTestApp(svc, 1024)

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/users/me?clerk_id=user_1", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Jane Doe", body["full_name"])

	status, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "clerk_id query parameter is required", body["error"])

	svc.profile, svc.profileErr = nil, services.ErrProfileNotFound
	status, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/users/me?clerk_id=missing", nil))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Profile not found", body["error"])
}

func TestHandleUpdateProfile(t *testing.T) {
	svc := &fakeProfileService{profile: &models.Profile{ClerkID: "user_1", FullName: strPtr("New Name")}}
	app := newTestApp(svc, 1024)

	status, body := doRequest(t, app, jsonRequest(http.MethodPatch, "/api/users/user_1",
		`{"clerk_id":"user_1","full_name":"New Name","technical_skills":["Go"]}`+"\n"))
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "New Name", body["full_name"])
	assert.Equal(t, "user_1", svc.updateClerkID)
	require.NotNil(t, svc.updateReq.TechnicalSkills)
	assert.Equal(t, []string{"Go"}, *svc.updateReq.TechnicalSkills)
	assert.Nil(t, svc.updateReq.Email)
}

func TestHandleUpdateProfileRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "unknown field",
			body:    `{"clerk_id":"user_1","favourite_color":"blue"}`,
			wantMsg: "unknown field",
		},
		{
			name:    "malformed json",
			body:    `{"clerk_id":`,
			wantMsg: "Invalid request payload",
		},
		{
			name:    "trailing garbage",
			body:    `{"clerk_id":"user_1"} garbage`,
			wantMsg: "unexpected data after JSON object",
		},
		{
			name:    "second json value",
			body:    `{"clerk_id":"user_1"}{"full_name":"x"}`,
			wantMsg: "unexpected data after JSON object",
		},
		{
			name:    "missing clerk id",
			body:    `{"full_name":"x"}`,
			wantMsg: "clerk_id is required",
		},
		{
			name:    "invalid email",
			body:    `{"clerk_id":"user_1","email":"not-an-email"}`,
			wantMsg: "email must be a valid email address",
		},
		{
			name:    "invalid role",
			body:    `{"clerk_id":"user_1","role":"admin"}`,
			wantMsg: "role must be one of",
		},
		{
			name:    "clerk id mismatch",
			body:    `{"clerk_id":"someone_else"}`,
			wantMsg: services.ErrClerkIDMismatch.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeProfileService{profile: &models.Profile{}}, 1024)

			status, body := doRequest(t, app, jsonRequest(http.MethodPatch, "/api/users/user_1", tt.body))
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Contains(t, body["error"], tt.wantMsg)
		})
	}
}

func TestHandleUpdateProfileNotFound(t *testing.T) {
	app := newTestApp(&fakeProfileService{profileErr: services.ErrProfileNotFound}, 1024)

	status, _ := doRequest(t, app, jsonRequest(http.MethodPatch, "/api/users/user_1", `{"clerk_id":"user_1"}`))
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHandleDeleteProfile(t *testing.T) {
	svc := &fakeProfileService{}
	app := newTestApp(svc, 1024)

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodDelete, "/api/users/user_1", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Profile deleted successfully", body["message"])

	svc.deleteErr = services.ErrProfileNotFound
	status, body = doRequest(t, app, httptest.NewRequest(http.MethodDelete, "/api/users/user_1", nil))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, float64(fiber.StatusNotFound), body["code"])
}

func TestHandleSearch(t *testing.T) {
	svc := &fakeProfileService{searchHits: []models.SearchHit{
		{ClerkID: "user_1", Score: 0.5, Profile: &models.Profile{ClerkID: "user_1"}},
	}}
	app := newTestApp(svc, 1024)

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/users/search?q=golang&limit=3", nil))
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "golang", svc.searchQuery)
	assert.Equal(t, 3, svc.searchLimit)
	assert.Equal(t, "golang", body["query"])
	assert.Len(t, body["results"], 1)

	svc.searchErr = services.ErrSearchUnavailable
	status, _ = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/users/search?q=golang", nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, status)

	svc.searchErr = fmt.Errorf("%w: q is required", services.ErrInvalidInput)
	status, _ = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/users/search", nil))
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHandleListUploads(t *testing.T) {
	svc := &fakeProfileService{}
	app := newTestApp(svc, 1024)

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/users/user_1/uploads", nil))
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "user_1", body["clerk_id"])
	assert.Equal(t, []any{}, body["uploads"])

	svc.uploadsErr = services.ErrHistoryUnavailable
	status, _ = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/users/user_1/uploads", nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestErrorHandlerWrapsPlainErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "boom", body["error"])
	assert.Equal(t, float64(500), body["code"])
}
