package dto

import (
	"job-tracker/internal/capture"
	"job-tracker/internal/domain/application"
)

// PageRequest names a job page. When HTML is set the page is scraped from
// it instead of being fetched.
type PageRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

type DetectRequest struct {
	PageRequest
	Draft *application.Draft `json:"draft"`
}

type DetectResponse struct {
	NotificationID string `json:"notificationId"`
	Notified       bool   `json:"notified"`
}

type BatchRequest struct {
	URLs  []string `json:"urls"`
	Track bool     `json:"track"`
}

type BatchItem struct {
	URL     string              `json:"url"`
	Result  *capture.Result     `json:"result,omitempty"`
	Tracked *application.Record `json:"tracked,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func BatchItems(items []capture.BatchItem) []BatchItem {
	out := make([]BatchItem, 0, len(items))
	for _, it := range items {
		b := BatchItem{URL: it.URL, Tracked: it.Tracked}
		if it.Err != nil {
			b.Error = it.Err.Error()
		} else {
			res := it.Result
			b.Result = &res
		}
		out = append(out, b)
	}
	return out
}

type ButtonResponse struct {
	State       string              `json:"state"`
	Application *application.Record `json:"application,omitempty"`
}
