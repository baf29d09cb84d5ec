package comment

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"backend-gravelatlas/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const foreignKeyViolation = "23503"

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) AddComment(ctx context.Context, input Comment) (Comment, error) {
	input.Content = strings.TrimSpace(input.Content)
	if input.Content == "" {
		return Comment{}, ErrEmptyContent
	}
	if utf8.RuneCountInString(input.Content) > maxContentLen {
		return Comment{}, ErrContentTooLong
	}
	input.ID = uuid.NewString()

	row := s.db.QueryRow(ctx, `
		INSERT INTO segment_comments (id, segment_id, user_id, user_name, content)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, input.ID, input.SegmentID, input.UserID, input.UserName, input.Content)
	if err := row.Scan(&input.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return Comment{}, ErrSegmentNotFound
		}
		return Comment{}, err
	}
	return input, nil
}

// Comments lists a segment's comments, newest first.
func (s *Service) Comments(ctx context.Context, segmentID string) ([]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, segment_id, user_id, user_name, content, created_at
		FROM segment_comments WHERE segment_id=$1
		ORDER BY created_at DESC
	`, segmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.SegmentID, &c.UserID, &c.UserName, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
