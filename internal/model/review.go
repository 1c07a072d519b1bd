package model

import (
	"time"

	json "github.com/goccy/go-json"
)

const (
	// StatusWaiting marks a review as awaiting the downstream reviewer
	// process. It is always the status a review carries at write time.
	StatusWaiting = "waiting"

	// SeverityAlert is the upstream severity that raises the alert flag.
	SeverityAlert = "alert"

	// SourceFrigate identifies the producing camera-analytics system.
	SourceFrigate = "frigate"
)

// ReviewMetadata is the severity-derived detail stored alongside a review.
type ReviewMetadata struct {
	Severity   string   `json:"severity"`
	Detections []string `json:"detections"`
	SubLabels  []string `json:"sub_labels"`
	Audio      []string `json:"audio"`
}

// Review is a persisted review lifecycle record. ReviewID is the natural
// key: repeated deliveries for the same id overwrite the existing row.
type Review struct {
	ID          int64           `json:"id"`
	ReviewType  string          `json:"review_type"`
	ReviewID    string          `json:"review_id"`
	Camera      string          `json:"camera"`
	Zones       []string        `json:"zones"`
	Objects     []string        `json:"objects"`
	ClipURL     string          `json:"clip_url,omitempty"`
	SnapshotURL string          `json:"snapshot_url,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Metadata    ReviewMetadata  `json:"metadata"`
	Reason      string          `json:"reason"`
	IsAlert     bool            `json:"is_alert"`
	Source      string          `json:"source"`
	Status      string          `json:"status"`
	BeforeData  json.RawMessage `json:"before_data,omitempty"`
	AfterData   json.RawMessage `json:"after_data,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
