package models

type UploadResponse struct {
	Message   string        `json:"message"`
	ResumeURL string        `json:"resume_url"`
	Result    *ParsedResume `json:"result"`
	Profile   *Profile      `json:"profile"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SearchHit struct {
	ClerkID string   `json:"clerk_id"`
	Score   float32  `json:"score"`
	Profile *Profile `json:"profile"`
}

type SearchResponse struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

type UploadHistoryResponse struct {
	ClerkID string         `json:"clerk_id"`
	Uploads []ResumeUpload `json:"uploads"`
}
