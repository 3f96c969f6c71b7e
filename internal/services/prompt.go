package services

import (
	"fmt"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildResumeExtractionPrompt asks for the fixed JSON shape ParsedResume decodes.
func (pb *PromptBuilder) BuildResumeExtractionPrompt(resumeText string) string {
	return fmt.Sprintf(`You extract structured data from resumes. Respond with a single JSON object and nothing else: no prose, no markdown.

Use exactly these keys:

{
  "First Name": "Jane",
  "Last Name": "Smith",
  "Full Name": "Jane Smith",
  "Email": "jane.smith@example.com",
  "Phone Number": "+1 555-010-0199",
  "Location": "Austin, TX",
  "Willing to relocate": false,
  "LinkedIn Profile": "https://linkedin.com/in/janesmith",
  "GitHub Profile": "https://github.com/janesmith",
  "Portfolio URL": "https://janesmith.dev",
  "Technical Skills": ["Go", "PostgreSQL", "Kubernetes"],
  "Soft Skills": ["Mentoring", "Communication"],
  "Skills": ["Go", "PostgreSQL", "Kubernetes", "Mentoring", "Communication"],
  "Education": [
    {"Degree": "B.Sc. Computer Science", "University": "University of Texas", "Year": "2019"}
  ],
  "Experience": [
    {"Company": "Acme Corp", "Role": "Backend Engineer", "Duration": "Mar 2020 - Present", "Description": "Built billing APIs in Go; cut p99 latency by 40%%."}
  ],
  "Certifications": ["CKA"],
  "Projects": [
    {"Name": "Resume Parser", "Description": "Service that turns resumes into structured profiles.", "Technologies": ["Go", "MongoDB"]}
  ]
}

Rules:
1. Give first and last name separately and combined as the full name.
2. Location is the city plus state or country when present.
3. "Willing to relocate" is false unless the resume explicitly says the candidate is open to relocation.
4. Copy LinkedIn, GitHub and portfolio URLs exactly as written.
5. "Technical Skills" holds languages, tools and frameworks; "Soft Skills" holds interpersonal skills; "Skills" is both lists combined.
6. Keep experience and project descriptions to one or two lines.
7. List every certification mentioned.
8. Use null for a missing string and [] for a missing list.

Resume:
"""
%s
"""`, resumeText)
}
