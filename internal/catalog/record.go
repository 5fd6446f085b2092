// Package catalog maintains the JSON index of archived assets.
package catalog

import "time"

// Record is one archived asset. Field names match the published assets.json.
type Record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	DownloadURL string    `json:"download_url"`
	Thumb       string    `json:"thumb"`
	Source      string    `json:"source"`
	Date        time.Time `json:"date"`
}
