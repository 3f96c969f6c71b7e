package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleJobSeeker = "job_seeker"
	RoleRecruiter = "recruiter"
)

type SocialLinks struct {
	LinkedIn  *string `bson:"linkedin" json:"linkedin"`
	GitHub    *string `bson:"github" json:"github"`
	Portfolio *string `bson:"portfolio" json:"portfolio"`
}

type Experience struct {
	Company     *string `bson:"company" json:"company"`
	Position    *string `bson:"position" json:"position"`
	Duration    *string `bson:"duration" json:"duration"`
	Description *string `bson:"description" json:"description"`
}

type Education struct {
	Degree      *string `bson:"degree" json:"degree"`
	Institution *string `bson:"institution" json:"institution"`
	Year        *string `bson:"year" json:"year"`
}

type Project struct {
	Name         *string  `bson:"name" json:"name"`
	Description  *string  `bson:"description" json:"description"`
	Technologies []string `bson:"technologies" json:"technologies"`
}

// Profile is the stored user profile, one document per clerk_id.
type Profile struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	ClerkID string             `bson:"clerk_id" json:"clerk_id"`

	FirstName         *string `bson:"first_name" json:"first_name"`
	LastName          *string `bson:"last_name" json:"last_name"`
	FullName          *string `bson:"full_name" json:"full_name"`
	Email             *string `bson:"email" json:"email"`
	Phone             *string `bson:"phone" json:"phone"`
	Location          *string `bson:"location" json:"location"`
	WillingToRelocate bool    `bson:"willing_to_relocate" json:"willing_to_relocate"`

	Role           string  `bson:"role" json:"role"`
	CurrentCompany *string `bson:"current_company" json:"current_company"`

	ResumeURL      string `bson:"resume_url" json:"resume_url"`
	ResumeFilename string `bson:"resume_filename" json:"resume_filename"`

	TechnicalSkills []string `bson:"technical_skills" json:"technical_skills"`
	SoftSkills      []string `bson:"soft_skills" json:"soft_skills"`
	Skills          []string `bson:"skills" json:"skills"`

	SocialLinks    SocialLinks  `bson:"social_links" json:"social_links"`
	Experience     []Experience `bson:"experience" json:"experience"`
	Education      []Education  `bson:"education" json:"education"`
	Certifications []string     `bson:"certifications" json:"certifications"`
	Projects       []Project    `bson:"projects" json:"projects"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// UpsertFields is the $set payload written on every resume upload. It leaves
// out _id and created_at, which only the insert path may set.
func (p *Profile) UpsertFields() bson.M {
	return bson.M{
		"clerk_id":            p.ClerkID,
		"first_name":          p.FirstName,
		"last_name":           p.LastName,
		"full_name":           p.FullName,
		"email":               p.Email,
		"phone":               p.Phone,
		"location":            p.Location,
		"willing_to_relocate": p.WillingToRelocate,
		"role":                p.Role,
		"current_company":     p.CurrentCompany,
		"resume_url":          p.ResumeURL,
		"resume_filename":     p.ResumeFilename,
		"technical_skills":    nonNil(p.TechnicalSkills),
		"soft_skills":         nonNil(p.SoftSkills),
		"skills":              nonNil(p.Skills),
		"social_links":        p.SocialLinks,
		"experience":          nonNilSlice(p.Experience),
		"education":           nonNilSlice(p.Education),
		"certifications":      nonNil(p.Certifications),
		"projects":            nonNilSlice(p.Projects),
		"updated_at":          p.UpdatedAt,
	}
}

func IsValidRole(role string) bool {
	return role == RoleJobSeeker || role == RoleRecruiter
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilSlice[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
