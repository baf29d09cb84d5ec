package comment

import (
	"errors"
	"time"
)

const maxContentLen = 2000

var (
	ErrEmptyContent    = errors.New("content required")
	ErrContentTooLong  = errors.New("content too long")
	ErrSegmentNotFound = errors.New("segment not found")
)

type Comment struct {
	ID        string    `json:"id"`
	SegmentID string    `json:"segment_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
