package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"alfredoptarigan/resume-parser/internal/models"
	"alfredoptarigan/resume-parser/internal/repositories"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
	uploadHistoryLimit = 50
)

type UploadInput struct {
	ClerkID  string
	Role     string
	Filename string
	Size     int64
	Content  []byte
}

type UploadResult struct {
	ResumeURL string
	Parsed    *models.ParsedResume
	Profile   *models.Profile
}

type ProfileService interface {
	UploadResume(ctx context.Context, in UploadInput) (*UploadResult, error)
	GetProfile(ctx context.Context, clerkID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, clerkID string, req *models.ProfileUpdateRequest) (*models.Profile, error)
	DeleteProfile(ctx context.Context, clerkID string) error
	SearchProfiles(ctx context.Context, query string, limit int) ([]models.SearchHit, error)
	ListUploads(ctx context.Context, clerkID string) ([]models.ResumeUpload, error)
}

// ProfileServiceDeps wires the collaborators. Uploads, Cache, Indexer and
// Search may be nil; the matching feature is then off.
type ProfileServiceDeps struct {
	Profiles    repositories.ProfileRepository
	Uploads     repositories.UploadRepository
	Storage     ObjectStorage
	Extractor   TextExtractor
	Parser      ResumeParser
	Embedder    GeminiService
	Cache       ProfileCache
	Indexer     Indexer
	Search      SearchIndex
	MaxFileSize int64
}

type profileService struct {
	profiles    repositories.ProfileRepository
	uploads     repositories.UploadRepository
	storage     ObjectStorage
	extractor   TextExtractor
	parser      ResumeParser
	embedder    GeminiService
	cache       ProfileCache
	indexer     Indexer
	search      SearchIndex
	maxFileSize int64
	now         func() time.Time
}

func NewProfileService(deps ProfileServiceDeps) ProfileService {
	return &profileService{
		profiles:    deps.Profiles,
		uploads:     deps.Uploads,
		storage:     deps.Storage,
		extractor:   deps.Extractor,
		parser:      deps.Parser,
		embedder:    deps.Embedder,
		cache:       deps.Cache,
		indexer:     deps.Indexer,
		search:      deps.Search,
		maxFileSize: deps.MaxFileSize,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// UploadResume validates the file, stores it, extracts fields with the model
// and upserts the profile. Validation and text extraction run before any
// external call.
func (s *profileService) UploadResume(ctx context.Context, in UploadInput) (*UploadResult, error) {
	clerkID := strings.TrimSpace(in.ClerkID)
	if clerkID == "" {
		return nil, fmt.Errorf("%w: clerk_id is required", ErrInvalidInput)
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = models.RoleJobSeeker
	}
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: user_role must be %q or %q", ErrInvalidInput, models.RoleJobSeeker, models.RoleRecruiter)
	}

	size := in.Size
	if n := int64(len(in.Content)); n > size {
		size = n
	}
	if err := ValidateResumeFile(in.Filename, size, s.maxFileSize); err != nil {
		return nil, err
	}

	text, err := s.extractor.ExtractText(in.Filename, in.Content)
	if err != nil {
		return nil, err
	}

	objectKey := ResumeObjectKey(clerkID, in.Filename)
	contentType := ResumeContentType(in.Filename)
	uploadID := s.recordUploadStart(clerkID, in.Filename, contentType, size)

	logger := log.With().Str("clerk_id", clerkID).Str("object_key", objectKey).Logger()

	resumeURL, err := s.storage.Upload(ctx, objectKey, bytes.NewReader(in.Content), int64(len(in.Content)), contentType)
	if err != nil {
		s.recordUploadFailure(uploadID, err)
		return nil, fmt.Errorf("object storage upload failed: %w", err)
	}

	parsed, err := s.parser.Parse(ctx, text)
	if err != nil {
		s.recordUploadFailure(uploadID, err)
		return nil, err
	}

	profile := parsed.ToProfile(clerkID, role, resumeURL, in.Filename, s.now())
	saved, err := s.profiles.Upsert(ctx, profile)
	if err != nil {
		s.recordUploadFailure(uploadID, err)
		return nil, err
	}

	s.recordUploadSuccess(uploadID, objectKey, resumeURL)
	s.evictProfile(ctx, clerkID)

	if s.indexer != nil {
		s.indexer.Enqueue(IndexJob{ClerkID: clerkID, Text: text})
	}

	logger.Info().Str("resume_url", resumeURL).Msg("Resume uploaded and profile saved")

	return &UploadResult{
		ResumeURL: resumeURL,
		Parsed:    parsed,
		Profile:   saved,
	}, nil
}

func (s *profileService) GetProfile(ctx context.Context, clerkID string) (*models.Profile, error) {
	clerkID = strings.TrimSpace(clerkID)
	if clerkID == "" {
		return nil, fmt.Errorf("%w: clerk_id is required", ErrInvalidInput)
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, clerkID)
		if err != nil {
			log.Warn().Err(err).Str("clerk_id", clerkID).Msg("Profile cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	profile, err := s.profiles.FindByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	s.cacheProfile(ctx, profile)
	return profile, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, clerkID string, req *models.ProfileUpdateRequest) (*models.Profile, error) {
	if req.ClerkID != clerkID {
		return nil, ErrClerkIDMismatch
	}

	updated, err := s.profiles.Update(ctx, clerkID, req.SetFields())
	if err != nil {
		return nil, err
	}

	s.evictProfile(ctx, clerkID)
	return updated, nil
}

// DeleteProfile removes the profile, then makes a best-effort pass over the
// stored resume, its search points and the cache entry.
func (s *profileService) DeleteProfile(ctx context.Context, clerkID string) error {
	profile, err := s.profiles.FindByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	if err := s.profiles.Delete(ctx, clerkID); err != nil {
		return err
	}

	logger := log.With().Str("clerk_id", clerkID).Logger()

	if profile.ResumeFilename != "" {
		if err := s.storage.Delete(ctx, ResumeObjectKey(clerkID, profile.ResumeFilename)); err != nil {
			logger.Warn().Err(err).Msg("Stored resume cleanup failed")
		}
	}
	if s.search != nil {
		if err := s.search.DeleteProfile(ctx, clerkID); err != nil {
			logger.Warn().Err(err).Msg("Search index cleanup failed")
		}
	}
	s.evictProfile(ctx, clerkID)

	logger.Info().Msg("Profile deleted")
	return nil
}

func (s *profileService) SearchProfiles(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	if s.search == nil || s.embedder == nil {
		return nil, ErrSearchUnavailable
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: q is required", ErrInvalidInput)
	}

	switch {
	case limit <= 0:
		limit = defaultSearchLimit
	case limit > maxSearchLimit:
		limit = maxSearchLimit
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.search.Search(ctx, embedding, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ClerkID)
	}

	profiles, err := s.profiles.FindByClerkIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Profile, len(profiles))
	for i := range profiles {
		byID[profiles[i].ClerkID] = &profiles[i]
	}

	hits := make([]models.SearchHit, 0, len(matches))
	for _, m := range matches {
		profile, ok := byID[m.ClerkID]
		if !ok {
			// indexed before the profile was deleted
			continue
		}
		hits = append(hits, models.SearchHit{
			ClerkID: m.ClerkID,
			Score:   m.Score,
			Profile: profile,
		})
	}

	return hits, nil
}

func (s *profileService) ListUploads(ctx context.Context, clerkID string) ([]models.ResumeUpload, error) {
	if s.uploads == nil {
		return nil, ErrHistoryUnavailable
	}
	return s.uploads.FindByClerkID(clerkID, uploadHistoryLimit)
}

func (s *profileService) cacheProfile(ctx context.Context, profile *models.Profile) {
	if s.cache == nil || profile == nil {
		return
	}
	if err := s.cache.Set(ctx, profile); err != nil {
		log.Warn().Err(err).Str("clerk_id", profile.ClerkID).Msg("Profile cache write failed")
	}
}

// evictProfile drops the cached copy after a write. Only reads fill the
// cache, so a slow read cannot overwrite a newer write with a stale Set.
func (s *profileService) evictProfile(ctx context.Context, clerkID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, clerkID); err != nil {
		log.Warn().Err(err).Str("clerk_id", clerkID).Msg("Profile cache eviction failed")
	}
}

// recordUploadStart returns "" when the ledger is off or the insert failed;
// the follow-up record calls are no-ops for "".
func (s *profileService) recordUploadStart(clerkID, filename, contentType string, size int64) string {
	if s.uploads == nil {
		return ""
	}

	upload := &models.ResumeUpload{
		ID:               uuid.NewString(),
		ClerkID:          clerkID,
		OriginalFilename: filename,
		ContentType:      contentType,
		SizeBytes:        size,
		Status:           models.UploadProcessing,
	}
	if err := s.uploads.Create(upload); err != nil {
		log.Warn().Err(err).Str("clerk_id", clerkID).Msg("Upload ledger insert failed")
		return ""
	}
	return upload.ID
}

func (s *profileService) recordUploadSuccess(id, objectKey, resumeURL string) {
	if id == "" {
		return
	}
	if err := s.uploads.MarkCompleted(id, objectKey, resumeURL); err != nil {
		log.Warn().Err(err).Str("upload_id", id).Msg("Upload ledger update failed")
	}
}

func (s *profileService) recordUploadFailure(id string, cause error) {
	if id == "" {
		return
	}
	if err := s.uploads.MarkFailed(id, cause.Error()); err != nil {
		log.Warn().Err(err).Str("upload_id", id).Msg("Upload ledger update failed")
	}
}

// IsClientError reports whether err stems from bad caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidFileType) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrUnreadableDocument) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrClerkIDMismatch)
}
