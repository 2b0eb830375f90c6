package models

// ComparisonJob is a comparison request read from the Redis stream.
type ComparisonJob struct {
	JobID string `json:"jobId"`
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}
