package models

import (
	"time"
)

type Step string

const (
	StepQueued     Step = "queued"
	StepProcessing Step = "processing"
	StepCompleted  Step = "completed"
	StepFailed     Step = "failed"
)

// Span is a highlighted byte range [Start, End) of a document.
type Span struct {
	Start int `bson:"start" json:"start"`
	End   int `bson:"end" json:"end"`
}

// DocumentReport describes one side of a comparison.
type DocumentReport struct {
	Text     string  `bson:"text" json:"text"`
	Matches  []Span  `bson:"matches" json:"matches"`
	Coverage float64 `bson:"coverage" json:"coverage"`
	HTML     string  `bson:"-" json:"html,omitempty"`
}

// Report is a stored comparison result.
type Report struct {
	ID          string         `bson:"_id" json:"id"`
	Source      string         `bson:"source" json:"source"` // api, upload, batch or stream
	Similarity  float64        `bson:"similarity" json:"similarity"`
	Verdict     string         `bson:"verdict" json:"verdict"`
	ShingleSize int            `bson:"shingleSize" json:"shingleSize"`
	RawMatches  int            `bson:"rawMatches" json:"rawMatches"`
	OffsetMode  string         `bson:"offsetMode" json:"offsetMode"`
	Doc1        DocumentReport `bson:"doc1" json:"doc1"`
	Doc2        DocumentReport `bson:"doc2" json:"doc2"`
	Cached      bool           `bson:"-" json:"cached"`
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt"`
}

// CompareRequest represents a request to compare two texts
type CompareRequest struct {
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}

// BatchRequest represents a request to compare several pairs
type BatchRequest struct {
	Pairs []CompareRequest `json:"pairs" binding:"required"`
}

// BatchResponse holds one report per requested pair, in request order
type BatchResponse struct {
	Reports []*Report `json:"reports"`
}

// StatusResponse reports the processing step of a queued comparison
type StatusResponse struct {
	Step Step   `json:"step"`
	ID   string `json:"id"`
}
