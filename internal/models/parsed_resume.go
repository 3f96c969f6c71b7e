package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// FlexString decodes JSON strings and numbers alike; the model sometimes
// answers "Year": 2021 instead of "2021".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(strings.Trim(string(data), `"`))
	return nil
}

func (f FlexString) ptr() *string {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return nil
	}
	return &s
}

// FlexStrings decodes a list of strings or numbers, or a single
// comma-separated string such as "Go, Docker". Blank entries are dropped.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = nil
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var items []FlexString
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
	} else {
		var single FlexString
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		for _, part := range strings.Split(string(single), ",") {
			items = append(items, FlexString(part))
		}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := item.ptr(); v != nil {
			out = append(out, *v)
		}
	}
	*f = out
	return nil
}

// flexBool accepts true, "yes", "True", 1 and friends. Anything it does not
// recognise decodes as false rather than failing the whole document.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case bool:
		*b = flexBool(v)
	case float64:
		*b = v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1":
			*b = true
		default:
			*b = false
		}
	default:
		*b = false
	}
	return nil
}

type ParsedExperience struct {
	Company     FlexString `json:"Company"`
	Role        FlexString `json:"Role"`
	Duration    FlexString `json:"Duration"`
	Description FlexString `json:"Description"`
}

type ParsedEducation struct {
	Degree     FlexString `json:"Degree"`
	University FlexString `json:"University"`
	Year       FlexString `json:"Year"`
}

type ParsedProject struct {
	Name         FlexString  `json:"Name"`
	Description  FlexString  `json:"Description"`
	Technologies FlexStrings `json:"Technologies"`
}

// ParsedResume mirrors the JSON document the extraction prompt asks for.
type ParsedResume struct {
	FirstName         *string            `json:"First Name"`
	LastName          *string            `json:"Last Name"`
	FullName          *string            `json:"Full Name"`
	Email             *string            `json:"Email"`
	PhoneNumber       *string            `json:"Phone Number"`
	Location          *string            `json:"Location"`
	WillingToRelocate bool               `json:"Willing to relocate"`
	LinkedInProfile   *string            `json:"LinkedIn Profile"`
	GitHubProfile     *string            `json:"GitHub Profile"`
	PortfolioURL      *string            `json:"Portfolio URL"`
	TechnicalSkills   []string           `json:"Technical Skills"`
	SoftSkills        []string           `json:"Soft Skills"`
	Skills            []string           `json:"Skills"`
	Education         []ParsedEducation  `json:"Education"`
	Experience        []ParsedExperience `json:"Experience"`
	Certifications    []string           `json:"Certifications"`
	Projects          []ParsedProject    `json:"Projects"`
}

// parsedResumeWire is the lenient decoding shape of ParsedResume. Models
// answer "Phone Number": 5550100199 or "Willing to relocate": "Yes" often
// enough that strict types would discard whole resumes.
type parsedResumeWire struct {
	FirstName         FlexString         `json:"First Name"`
	LastName          FlexString         `json:"Last Name"`
	FullName          FlexString         `json:"Full Name"`
	Email             FlexString         `json:"Email"`
	PhoneNumber       FlexString         `json:"Phone Number"`
	Location          FlexString         `json:"Location"`
	WillingToRelocate flexBool           `json:"Willing to relocate"`
	LinkedInProfile   FlexString         `json:"LinkedIn Profile"`
	GitHubProfile     FlexString         `json:"GitHub Profile"`
	PortfolioURL      FlexString         `json:"Portfolio URL"`
	TechnicalSkills   FlexStrings        `json:"Technical Skills"`
	SoftSkills        FlexStrings        `json:"Soft Skills"`
	Skills            FlexStrings        `json:"Skills"`
	Education         []ParsedEducation  `json:"Education"`
	Experience        []ParsedExperience `json:"Experience"`
	Certifications    FlexStrings        `json:"Certifications"`
	Projects          []ParsedProject    `json:"Projects"`
}

func (r *ParsedResume) UnmarshalJSON(data []byte) error {
	var wire parsedResumeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*r = ParsedResume{
		FirstName:         wire.FirstName.ptr(),
		LastName:          wire.LastName.ptr(),
		FullName:          wire.FullName.ptr(),
		Email:             wire.Email.ptr(),
		PhoneNumber:       wire.PhoneNumber.ptr(),
		Location:          wire.Location.ptr(),
		WillingToRelocate: bool(wire.WillingToRelocate),
		LinkedInProfile:   wire.LinkedInProfile.ptr(),
		GitHubProfile:     wire.GitHubProfile.ptr(),
		PortfolioURL:      wire.PortfolioURL.ptr(),
		TechnicalSkills:   wire.TechnicalSkills,
		SoftSkills:        wire.SoftSkills,
		Skills:            wire.Skills,
		Education:         wire.Education,
		Experience:        wire.Experience,
		Certifications:    wire.Certifications,
		Projects:          wire.Projects,
	}
	return nil
}

// EmptyParsedResume is stored when the model's answer cannot be decoded.
func EmptyParsedResume() *ParsedResume {
	unknown := "Unknown"
	return &ParsedResume{
		FullName:        &unknown,
		TechnicalSkills: []string{},
		SoftSkills:      []string{},
		Skills:          []string{},
		Education:       []ParsedEducation{},
		Experience:      []ParsedExperience{},
		Certifications:  []string{},
		Projects:        []ParsedProject{},
	}
}

// ToProfile maps the extraction result onto the stored profile schema.
func (r *ParsedResume) ToProfile(clerkID, role, resumeURL, filename string, now time.Time) *Profile {
	if role == "" {
		role = RoleJobSeeker
	}

	profile := &Profile{
		ClerkID:           clerkID,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		FullName:          r.FullName,
		Email:             r.Email,
		Phone:             r.PhoneNumber,
		Location:          r.Location,
		WillingToRelocate: r.WillingToRelocate,
		Role:              role,
		ResumeURL:         resumeURL,
		ResumeFilename:    filename,
		TechnicalSkills:   nonNil(r.TechnicalSkills),
		SoftSkills:        nonNil(r.SoftSkills),
		Skills:            nonNil(r.Skills),
		SocialLinks: SocialLinks{
			LinkedIn:  r.LinkedInProfile,
			GitHub:    r.GitHubProfile,
			Portfolio: r.PortfolioURL,
		},
		Experience:     make([]Experience, 0, len(r.Experience)),
		Education:      make([]Education, 0, len(r.Education)),
		Certifications: nonNil(r.Certifications),
		Projects:       make([]Project, 0, len(r.Projects)),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, exp := range r.Experience {
		profile.Experience = append(profile.Experience, Experience{
			Company:     exp.Company.ptr(),
			Position:    exp.Role.ptr(),
			Duration:    exp.Duration.ptr(),
			Description: exp.Description.ptr(),
		})
	}

	for _, edu := range r.Education {
		profile.Education = append(profile.Education, Education{
			Degree:      edu.Degree.ptr(),
			Institution: edu.University.ptr(),
			Year:        edu.Year.ptr(),
		})
	}

	for _, proj := range r.Projects {
		profile.Projects = append(profile.Projects, Project{
			Name:         proj.Name.ptr(),
			Description:  proj.Description.ptr(),
			Technologies: nonNil(proj.Technologies),
		})
	}

	return profile
}
