package application

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusRejected  Status = "rejected"
)

// cycleOrder is the order the status badge steps through.
var cycleOrder = []Status{StatusApplied, StatusPending, StatusInterview, StatusOffer, StatusRejected}

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidInput  = errors.New("invalid input")
)

const DateLayout = "2006-01-02"

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApplied, StatusInterview, StatusOffer, StatusRejected:
		return true
	default:
		return false
	}
}

// Next wraps around; an unknown status restarts the cycle at applied.
func (s Status) Next() Status {
	for i, st := range cycleOrder {
		if st == s {
			return cycleOrder[(i+1)%len(cycleOrder)]
		}
	}
	return cycleOrder[0]
}

// Active statuses are the ones counted on the badge.
func (s Status) Active() bool {
	return s == StatusApplied || s == StatusInterview
}

type Draft struct {
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	Location    string   `json:"location"`
	Salary      string   `json:"salary"`
	Skills      []string `json:"skills"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
}

type Record struct {
	ID          string    `json:"id"`
	Company     string    `json:"company"`
	Position    string    `json:"position"`
	Status      Status    `json:"status"`
	DateApplied string    `json:"dateApplied"`
	URL         string    `json:"url"`
	Skills      []string  `json:"skills"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Settings struct {
	AutoCapture   bool `json:"autoCapture"`
	Notifications bool `json:"notifications"`
}

func DefaultSettings() Settings {
	return Settings{AutoCapture: false, Notifications: true}
}

// Fields carries a partial write. Nil pointers are left untouched.
type Fields struct {
	Company     *string   `json:"company,omitempty"`
	Position    *string   `json:"position,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	DateApplied *string   `json:"dateApplied,omitempty"`
	URL         *string   `json:"url,omitempty"`
	Skills      *[]string `json:"skills,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
}

// FieldsFromDraft is the only path from an ephemeral draft to a persisted
// record: location, salary and description stay behind.
func FieldsFromDraft(d Draft) Fields {
	skills := append([]string(nil), d.Skills...)
	return Fields{
		Company:  &d.Company,
		Position: &d.Position,
		URL:      &d.URL,
		Skills:   &skills,
	}
}

func (f Fields) Validate() error {
	if f.Status != nil && !f.Status.Valid() {
		return ErrInvalidStatus
	}
	if f.DateApplied != nil && strings.TrimSpace(*f.DateApplied) != "" {
		if _, err := time.Parse(DateLayout, strings.TrimSpace(*f.DateApplied)); err != nil {
			return fmt.Errorf("%w: dateApplied must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	return nil
}

// Apply merges f into r. ID and CreatedAt are never touched.
func (f Fields) Apply(r *Record) {
	if f.Company != nil {
		r.Company = strings.TrimSpace(*f.Company)
	}
	if f.Position != nil {
		r.Position = strings.TrimSpace(*f.Position)
	}
	if f.Status != nil {
		r.Status = *f.Status
	}
	if f.DateApplied != nil {
		r.DateApplied = strings.TrimSpace(*f.DateApplied)
	}
	if f.URL != nil {
		r.URL = strings.TrimSpace(*f.URL)
	}
	if f.Skills != nil {
		r.Skills = cleanSkills(*f.Skills)
	}
	if f.Notes != nil {
		r.Notes = *f.Notes
	}
}

// ParseSkills splits the comma separated form input.
func ParseSkills(raw string) []string {
	return cleanSkills(strings.Split(raw, ","))
}

func cleanSkills(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (r Record) Clone() Record {
	skills := make([]string, len(r.Skills))
	copy(skills, r.Skills)
	r.Skills = skills
	return r
}
