package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"job-tracker/internal/domain/application"
)

const ExportVersion = "1.0.0"

var ErrInvalidImport = errors.New("invalid import file")

type Export struct {
	Applications []application.Record `json:"applications"`
	Settings     application.Settings `json:"settings"`
	ExportedAt   time.Time            `json:"exportedAt"`
	Version      string               `json:"version"`
}

func (m *Manager) Export() Export {
	return Export{
		Applications: m.List(Filter{}),
		Settings:     m.Settings(),
		ExportedAt:   m.now().UTC(),
		Version:      ExportVersion,
	}
}

func (m *Manager) WriteExport(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m.Export()); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// Payload is a validated import. Settings is nil when the file had none.
type Payload struct {
	Applications []application.Record
	Settings     *application.Settings
	Version      string
}

// ParseImport validates the whole document before anything is applied:
// applications must be an array, every status known and every id present
// and unique.
func ParseImport(data []byte) (Payload, error) {
	var doc struct {
		Applications json.RawMessage `json:"applications"`
		Settings     json.RawMessage `json:"settings"`
		Version      string          `json:"version"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	apps := bytes.TrimSpace(doc.Applications)
	if len(apps) == 0 || apps[0] != '[' {
		return Payload{}, fmt.Errorf("%w: applications must be an array", ErrInvalidImport)
	}

	var records []application.Record
	if err := json.Unmarshal(apps, &records); err != nil {
		return Payload{}, fmt.Errorf("%w: applications: %v", ErrInvalidImport, err)
	}
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		r := &records[i]
		if strings.TrimSpace(r.ID) == "" {
			return Payload{}, fmt.Errorf("%w: application %d has no id", ErrInvalidImport, i)
		}
		if _, dup := seen[r.ID]; dup {
			return Payload{}, fmt.Errorf("%w: duplicate id %q", ErrInvalidImport, r.ID)
		}
		seen[r.ID] = struct{}{}
		if !r.Status.Valid() {
			return Payload{}, fmt.Errorf("%w: application %q has unknown status %q", ErrInvalidImport, r.ID, r.Status)
		}
		if r.CreatedAt.After(r.UpdatedAt) {
			return Payload{}, fmt.Errorf("%w: application %q was updated before it was created", ErrInvalidImport, r.ID)
		}
		if r.Skills == nil {
			r.Skills = []string{}
		}
	}
	if records == nil {
		records = []application.Record{}
	}

	p := Payload{Applications: records, Version: doc.Version}
	if s := bytes.TrimSpace(doc.Settings); len(s) > 0 && !bytes.Equal(s, []byte("null")) {
		var settings application.Settings
		if err := json.Unmarshal(s, &settings); err != nil {
			return Payload{}, fmt.Errorf("%w: settings: %v", ErrInvalidImport, err)
		}
		p.Settings = &settings
	}
	return p, nil
}

// Import replaces the collection with the file's records. A rejected file
// changes nothing.
func (m *Manager) Import(ctx context.Context, data []byte) (int, error) {
	p, err := ParseImport(data)
	if err != nil {
		return 0, err
	}
	if err := m.Replace(ctx, p.Applications, p.Settings); err != nil {
		return 0, err
	}
	m.logger.Info("applications imported")
	return len(p.Applications), nil
}
