package models

import (
	"go.mongodb.org/mongo-driver/bson"
)

// ProfileUpdateRequest is the PATCH body. Nil fields are left untouched.
type ProfileUpdateRequest struct {
	ClerkID           string        `json:"clerk_id" validate:"required"`
	FirstName         *string       `json:"first_name,omitempty"`
	LastName          *string       `json:"last_name,omitempty"`
	FullName          *string       `json:"full_name,omitempty"`
	Email             *string       `json:"email,omitempty" validate:"omitempty,email"`
	Phone             *string       `json:"phone,omitempty"`
	Location          *string       `json:"location,omitempty"`
	WillingToRelocate *bool         `json:"willing_to_relocate,omitempty"`
	Role              *string       `json:"role,omitempty" validate:"omitempty,oneof=job_seeker recruiter"`
	CurrentCompany    *string       `json:"current_company,omitempty"`
	ResumeFilename    *string       `json:"resume_filename,omitempty"`
	ResumeURL         *string       `json:"resume_url,omitempty" validate:"omitempty,url"`
	TechnicalSkills   *[]string     `json:"technical_skills,omitempty"`
	SoftSkills        *[]string     `json:"soft_skills,omitempty"`
	Skills            *[]string     `json:"skills,omitempty"`
	SocialLinks       *SocialLinks  `json:"social_links,omitempty"`
	Experience        *[]Experience `json:"experience,omitempty"`
	Education         *[]Education  `json:"education,omitempty"`
	Certifications    *[]string     `json:"certifications,omitempty"`
	Projects          *[]Project    `json:"projects,omitempty"`
}

// SetFields returns the $set document for the fields present in the request.
func (r *ProfileUpdateRequest) SetFields() bson.M {
	set := bson.M{}

	putString := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	putStrings := func(key string, v *[]string) {
		if v != nil {
			set[key] = nonNil(*v)
		}
	}

	putString("first_name", r.FirstName)
	putString("last_name", r.LastName)
	putString("full_name", r.FullName)
	putString("email", r.Email)
	putString("phone", r.Phone)
	putString("location", r.Location)
	putString("role", r.Role)
	putString("current_company", r.CurrentCompany)
	putString("resume_filename", r.ResumeFilename)
	putString("resume_url", r.ResumeURL)

	if r.WillingToRelocate != nil {
		set["willing_to_relocate"] = *r.WillingToRelocate
	}

	putStrings("technical_skills", r.TechnicalSkills)
	putStrings("soft_skills", r.SoftSkills)
	putStrings("skills", r.Skills)
	putStrings("certifications", r.Certifications)

	if r.SocialLinks != nil {
		set["social_links"] = *r.SocialLinks
	}
	if r.Experience != nil {
		set["experience"] = nonNilSlice(*r.Experience)
	}
	if r.Education != nil {
		set["education"] = nonNilSlice(*r.Education)
	}
	if r.Projects != nil {
		projects := nonNilSlice(*r.Projects)
		for i := range projects {
			projects[i].Technologies = nonNil(projects[i].Technologies)
		}
		set["projects"] = projects
	}

	return set
}
