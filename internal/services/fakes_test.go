package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"alfredoptarigan/resume-parser/internal/models"
	"alfredoptarigan/resume-parser/internal/repositories"
)

type fakeProfileRepo struct {
	mu         sync.Mutex
	profiles   map[string]*models.Profile
	findCalls  int
	lastFields bson.M
	upsertErr  error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*models.Profile{}}
}

func (f *fakeProfileRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeProfileRepo) Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.upsertErr != nil {
		return nil, f.upsertErr
	}

	saved := *profile
	if existing, ok := f.profiles[profile.ClerkID]; ok {
		saved.CreatedAt = existing.CreatedAt
	}
	f.profiles[profile.ClerkID] = &saved

	out := saved
	return &out, nil
}

func (f *fakeProfileRepo) FindByClerkID(ctx context.Context, clerkID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.findCalls++
	p, ok := f.profiles[clerkID]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakeProfileRepo) FindByClerkIDs(ctx context.Context, clerkIDs []string) ([]models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.Profile{}
	for _, id := range clerkIDs {
		if p, ok := f.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProfileRepo) Update(ctx context.Context, clerkID string, fields bson.M) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastFields = fields
	p, ok := f.profiles[clerkID]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	if v, ok := fields["full_name"].(string); ok {
		p.FullName = &v
	}
	out := *p
	return &out, nil
}

func (f *fakeProfileRepo) Delete(ctx context.Context, clerkID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.profiles[clerkID]; !ok {
		return repositories.ErrProfileNotFound
	}
	delete(f.profiles, clerkID)
	return nil
}

func (f *fakeProfileRepo) ForEach(ctx context.Context, fn func(*models.Profile) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.profiles {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

type fakeStorage struct {
	objects     map[string][]byte
	uploadCalls int
	deleted     []string
	uploadErr   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) EnsureBucket(ctx context.Context) error { return nil }

func (f *fakeStorage) Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error) {
	f.uploadCalls++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.objects[objectKey] = data
	return PublicObjectURL("http://minio.local", "resumes", objectKey), nil
}

func (f *fakeStorage) Download(ctx context.Context, objectKey string) ([]byte, error) {
	data, ok := f.objects[objectKey]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func (f *fakeStorage) Delete(ctx context.Context, objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	delete(f.objects, objectKey)
	return nil
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) ExtractText(filename string, content []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeParser struct {
	resume *models.ParsedResume
	err    error
	calls  int
}

func (f *fakeParser) Parse(ctx context.Context, resumeText string) (*models.ParsedResume, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resume, nil
}

type fakeGemini struct {
	mu         sync.Mutex
	embedding  []float32
	embedErr   error
	response   string
	embedCalls int
}

func (f *fakeGemini) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.embedCalls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.embedding, nil
}

func (f *fakeGemini) GenerateJSON(ctx context.Context, prompt string, temperature float32) (string, error) {
	return f.response, nil
}

func (f *fakeGemini) GenerateJSONWithRetry(ctx context.Context, prompt string, temperature float32, maxAttempts int) (string, error) {
	return f.response, nil
}

type fakeUploadRepo struct {
	records map[string]*models.ResumeUpload
	order   []string
}

func newFakeUploadRepo() *fakeUploadRepo {
	return &fakeUploadRepo{records: map[string]*models.ResumeUpload{}}
}

func (f *fakeUploadRepo) Create(upload *models.ResumeUpload) error {
	rec := *upload
	f.records[upload.ID] = &rec
	f.order = append(f.order, upload.ID)
	return nil
}

func (f *fakeUploadRepo) MarkCompleted(id string, objectKey, resumeURL string) error {
	rec := f.records[id]
	rec.Status = models.UploadCompleted
	rec.ObjectKey = objectKey
	rec.ResumeURL = resumeURL
	return nil
}

func (f *fakeUploadRepo) MarkFailed(id string, errorMsg string) error {
	rec := f.records[id]
	rec.Status = models.UploadFailed
	rec.ErrorMessage = &errorMsg
	return nil
}

func (f *fakeUploadRepo) FindByClerkID(clerkID string, limit int) ([]models.ResumeUpload, error) {
	out := []models.ResumeUpload{}
	for i := len(f.order) - 1; i >= 0; i-- {
		if rec := f.records[f.order[i]]; rec.ClerkID == clerkID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeUploadRepo) only() *models.ResumeUpload {
	if len(f.order) != 1 {
		return nil
	}
	return f.records[f.order[0]]
}

type fakeCache struct {
	profiles map[string]models.Profile
}

func newFakeCache() *fakeCache {
	return &fakeCache{profiles: map[string]models.Profile{}}
}

func (f *fakeCache) Get(ctx context.Context, clerkID string) (*models.Profile, bool, error) {
	p, ok := f.profiles[clerkID]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (f *fakeCache) Set(ctx context.Context, profile *models.Profile) error {
	f.profiles[profile.ClerkID] = *profile
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context, clerkID string) error {
	delete(f.profiles, clerkID)
	return nil
}

type fakeIndexer struct {
	jobs []IndexJob
}

func (f *fakeIndexer) Start(ctx context.Context) {}
func (f *fakeIndexer) Stop()                    {}

func (f *fakeIndexer) Enqueue(job IndexJob) bool {
	f.jobs = append(f.jobs, job)
	return true
}

func (f *fakeIndexer) Index(ctx context.Context, job IndexJob) error { return nil }

type fakeSearchIndex struct {
	mu         sync.Mutex
	matches    []ProfileMatch
	lastLimit  int
	deleted    []string
	replaced   map[string][]string
	history    map[string][]string
	replaceErr error
}

func newFakeSearchIndex() *fakeSearchIndex {
	return &fakeSearchIndex{replaced: map[string][]string{}, history: map[string][]string{}}
}

func (f *fakeSearchIndex) InitCollection(ctx context.Context) error { return nil }

func (f *fakeSearchIndex) ReplaceProfileChunks(ctx context.Context, clerkID string, chunks []string, embeddings [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced[clerkID] = chunks
	f.history[clerkID] = append(f.history[clerkID], strings.Join(chunks, "|"))
	return nil
}

func (f *fakeSearchIndex) Search(ctx context.Context, queryEmbedding []float32, limit int) ([]ProfileMatch, error) {
	f.lastLimit = limit
	return f.matches, nil
}

func (f *fakeSearchIndex) DeleteProfile(ctx context.Context, clerkID string) error {
	f.deleted = append(f.deleted, clerkID)
	return nil
}

func (f *fakeSearchIndex) historyFor(clerkID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.history[clerkID]...)
}

func (f *fakeSearchIndex) replacedFor(clerkID string) ([]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	chunks, ok := f.replaced[clerkID]
	return chunks, ok
}

func strPtr(s string) *string { return &s }

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
