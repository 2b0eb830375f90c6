package stream

import (
	"encoding/json"
	"fmt"

	"github.com/RishiKendai/shingle/internal/models"
)

// StreamMessage is a stream entry with its string fields.
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// ParseJob reads a comparison job from a stream entry. Jobs carry either a
// JSON "payload" field or flat "jobId", "text1" and "text2" fields. The entry
// ID is used when no job ID is given.
func ParseJob(msg *StreamMessage) (*models.ComparisonJob, error) {
	job := &models.ComparisonJob{}

	if payload, ok := msg.Fields["payload"]; ok {
		if err := json.Unmarshal([]byte(payload), job); err != nil {
			return nil, fmt.Errorf("invalid payload in message %s: %w", msg.ID, err)
		}
	} else {
		text1, ok1 := msg.Fields["text1"]
		text2, ok2 := msg.Fields["text2"]
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("message %s is missing text1 or text2", msg.ID)
		}
		job.JobID = msg.Fields["jobId"]
		job.Text1 = text1
		job.Text2 = text2
	}

	if job.JobID == "" {
		job.JobID = msg.ID
	}

	return job, nil
}
