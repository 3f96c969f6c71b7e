package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-parser/internal/models"
	"alfredoptarigan/resume-parser/internal/services"
)

type ProfileHandler struct {
	service     services.ProfileService
	validate    *validator.Validate
	maxFileSize int64
}

// uploadForm holds the non-file fields of the multipart upload.
type uploadForm struct {
	ClerkID  string `form:"clerk_id" validate:"required"`
	UserRole string `form:"user_role" validate:"oneof=job_seeker recruiter"`
}

func NewProfileHandler(service services.ProfileService, maxFileSize int64) *ProfileHandler {
	return &ProfileHandler{
		service:     service,
		validate:    newValidator(),
		maxFileSize: maxFileSize,
	}
}

// Register mounts the profile routes. Static segments go before :clerk_id.
func (h *ProfileHandler) Register(router fiber.Router) {
	users := router.Group("/api/users")
	users.Post("/upload", h.HandleUpload)
	users.Get("/me", h.HandleGetProfile)
	users.Get("/search", h.HandleSearch)
	users.Get("/:clerk_id/uploads", h.HandleListUploads)
	users.Patch("/:clerk_id", h.HandleUpdateProfile)
	users.Delete("/:clerk_id", h.HandleDeleteProfile)
}

// HandleUpload handles POST /api/users/upload
func (h *ProfileHandler) HandleUpload(c *fiber.Ctx) error {
	form := uploadForm{
		ClerkID:  strings.TrimSpace(c.FormValue("clerk_id")),
		UserRole: strings.TrimSpace(c.FormValue("user_role")),
	}
	if form.UserRole == "" {
		form.UserRole = models.RoleJobSeeker
	}
	if err := h.validate.Struct(form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}

	content, err := h.readUpload(fileHeader.Size, func() (io.ReadCloser, error) {
		return fileHeader.Open()
	})
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}

	result, err := h.service.UploadResume(c.UserContext(), services.UploadInput{
		ClerkID:  form.ClerkID,
		Role:     form.UserRole,
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  content,
	})
	if err != nil {
		if services.IsClientError(err) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("Failed to process resume: %v", err))
	}

	return c.JSON(models.UploadResponse{
		Message:   "Resume uploaded and parsed successfully",
		ResumeURL: result.ResumeURL,
		Result:    result.Parsed,
		Profile:   result.Profile,
	})
}

// HandleGetProfile handles GET /api/users/me?clerk_id=
func (h *ProfileHandler) HandleGetProfile(c *fiber.Ctx) error {
	clerkID := strings.TrimSpace(c.Query("clerk_id"))
	if clerkID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "clerk_id query parameter is required")
	}

	profile, err := h.service.GetProfile(c.UserContext(), clerkID)
	if err != nil {
		return toFiberError(err)
	}
	return c.JSON(profile)
}

// HandleUpdateProfile handles PATCH /api/users/:clerk_id
func (h *ProfileHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req models.ProfileUpdateRequest

	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request payload: unexpected data after JSON object")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}

	profile, err := h.service.UpdateProfile(c.UserContext(), c.Params("clerk_id"), &req)
	if err != nil {
		return toFiberError(err)
	}
	return c.JSON(profile)
}

// HandleDeleteProfile handles DELETE /api/users/:clerk_id
func (h *ProfileHandler) HandleDeleteProfile(c *fiber.Ctx) error {
	if err := h.service.DeleteProfile(c.UserContext(), c.Params("clerk_id")); err != nil {
		return toFiberError(err)
	}
	return c.JSON(models.MessageResponse{Message: "Profile deleted successfully"})
}

// HandleSearch handles GET /api/users/search?q=&limit=
func (h *ProfileHandler) HandleSearch(c *fiber.Ctx) error {
	query := c.Query("q")

	hits, err := h.service.SearchProfiles(c.UserContext(), query, c.QueryInt("limit", 0))
	if err != nil {
		return toFiberError(err)
	}

	return c.JSON(models.SearchResponse{
		Query:   strings.TrimSpace(query),
		Results: hits,
	})
}

// HandleListUploads handles GET /api/users/:clerk_id/uploads
func (h *ProfileHandler) HandleListUploads(c *fiber.Ctx) error {
	clerkID := c.Params("clerk_id")

	uploads, err := h.service.ListUploads(c.UserContext(), clerkID)
	if err != nil {
		return toFiberError(err)
	}
	if uploads == nil {
		uploads = []models.ResumeUpload{}
	}

	return c.JSON(models.UploadHistoryResponse{
		ClerkID: clerkID,
		Uploads: uploads,
	})
}

// readUpload reads at most maxFileSize+1 bytes. Oversized files are not read
// at all; the declared size is enough for the service to reject them.
func (h *ProfileHandler) readUpload(size int64, open func() (io.ReadCloser, error)) ([]byte, error) {
	if h.maxFileSize > 0 && size > h.maxFileSize {
		return nil, nil
	}

	f, err := open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	limit := size + 1
	if h.maxFileSize > 0 {
		limit = h.maxFileSize + 1
	}
	return io.ReadAll(io.LimitReader(f, limit))
}

func toFiberError(err error) error {
	switch {
	case errors.Is(err, services.ErrProfileNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Profile not found")
	case errors.Is(err, services.ErrSearchUnavailable), errors.Is(err, services.ErrHistoryUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case services.IsClientError(err):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
