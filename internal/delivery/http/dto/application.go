package dto

import (
	"strings"

	"job-tracker/internal/domain/application"
)

// ApplicationRequest is a create or partial update. Skills may come as a
// list or, from the manual form, as comma separated skillsText.
type ApplicationRequest struct {
	Company     *string   `json:"company"`
	Position    *string   `json:"position"`
	Status      *string   `json:"status"`
	DateApplied *string   `json:"dateApplied"`
	URL         *string   `json:"url"`
	Skills      *[]string `json:"skills"`
	SkillsText  *string   `json:"skillsText"`
	Notes       *string   `json:"notes"`
}

func (r ApplicationRequest) Empty() bool {
	return r.Company == nil && r.Position == nil && r.Status == nil && r.DateApplied == nil &&
		r.URL == nil && r.Skills == nil && r.SkillsText == nil && r.Notes == nil
}

func (r ApplicationRequest) Fields() (application.Fields, error) {
	f := application.Fields{
		Company:     r.Company,
		Position:    r.Position,
		DateApplied: r.DateApplied,
		URL:         r.URL,
		Skills:      r.Skills,
		Notes:       r.Notes,
	}
	if r.Status != nil && strings.TrimSpace(*r.Status) != "" {
		st, err := application.ParseStatus(*r.Status)
		if err != nil {
			return application.Fields{}, err
		}
		f.Status = &st
	}
	if r.Skills == nil && r.SkillsText != nil {
		skills := application.ParseSkills(*r.SkillsText)
		f.Skills = &skills
	}
	return f, f.Validate()
}

type ListResponse struct {
	Applications []application.Record `json:"applications"`
	Total        int                  `json:"total"`
}

type SettingsRequest struct {
	AutoCapture   *bool `json:"autoCapture"`
	Notifications *bool `json:"notifications"`
}

func (r SettingsRequest) Apply(s application.Settings) application.Settings {
	if r.AutoCapture != nil {
		s.AutoCapture = *r.AutoCapture
	}
	if r.Notifications != nil {
		s.Notifications = *r.Notifications
	}
	return s
}

type ImportResponse struct {
	Imported int `json:"imported"`
}
