package segment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"backend-gravelatlas/internal/db"
	"backend-gravelatlas/internal/surface"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb/geojson"
)

const segmentColumns = `id, title, geojson, length_m, elevation_gain_m, elevation_loss_m, elevation_profile,
		       surface_types, owner_id, owner_name, total_votes, average_rating, created_at, updated_at`

// PostgresStore keeps segments in PostGIS. Votes live in their own table
// keyed by (segment_id, user_id) and the segment row carries the derived
// stats.
type PostgresStore struct {
	db db.Pool
}

func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (s *PostgresStore) Create(ctx context.Context, seg Segment) (Segment, error) {
	feature, err := json.Marshal(seg.GeoJSON)
	if err != nil {
		return Segment{}, err
	}
	geometry, err := json.Marshal(geojson.NewGeometry(seg.GeoJSON.Geometry))
	if err != nil {
		return Segment{}, err
	}
	profile, err := json.Marshal(seg.Metadata.ElevationProfile)
	if err != nil {
		return Segment{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO segments (id, title, gpx_data, geojson, geom, length_m, elevation_gain_m, elevation_loss_m,
		                      elevation_profile, surface_types, owner_id, owner_name)
		VALUES ($1,$2,$3,$4, ST_SetSRID(ST_GeomFromGeoJSON($5), 4326), $6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at
	`, seg.ID, seg.Metadata.Title, seg.GPXData, feature, string(geometry), seg.Metadata.LengthM,
		seg.Metadata.ElevationGainM, seg.Metadata.ElevationLossM, profile, surfaceStrings(seg.Metadata.SurfaceTypes),
		seg.OwnerID, seg.OwnerName)
	if err := row.Scan(&seg.CreatedAt, &seg.UpdatedAt); err != nil {
		return Segment{}, err
	}
	return seg, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Segment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+segmentColumns+`, gpx_data
		FROM segments WHERE id=$1
	`, id)
	seg, err := scanSegment(row, true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Segment{}, ErrNotFound
		}
		return Segment{}, err
	}

	seg.Votes, err = loadVotes(ctx, s.db, id)
	if err != nil {
		return Segment{}, err
	}
	return seg, nil
}

func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]Segment, int, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if b := f.Bounds; b != nil {
		args = append(args, b.MinLng, b.MinLat, b.MaxLng, b.MaxLat)
		n := len(args)
		where = append(where, fmt.Sprintf("ST_Within(geom, ST_MakeEnvelope($%d, $%d, $%d, $%d, 4326))", n-3, n-2, n-1, n))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM segments`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := append(append([]any{}, args...), f.Limit, (f.Page-1)*f.Limit)
	rows, err := s.db.Query(ctx, `SELECT `+segmentColumns+` FROM segments`+clause+
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2), listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var segments []Segment
	for rows.Next() {
		seg, err := scanSegment(rows, false)
		if err != nil {
			return nil, 0, err
		}
		segments = append(segments, seg)
	}
	return segments, total, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, id, title string, surfaceTypes []surface.Type) (Segment, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE segments SET title=$2, surface_types=$3, updated_at=now()
		WHERE id=$1
	`, id, title, surfaceStrings(surfaceTypes))
	if err != nil {
		return Segment{}, err
	}
	if tag.RowsAffected() == 0 {
		return Segment{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM segments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Vote upserts the user's vote and rewrites the derived stats inside one
// transaction. The segment row is locked first so concurrent voters on the
// same segment serialize, and stats are computed from the votes as they
// stand after the upsert.
func (s *PostgresStore) Vote(ctx context.Context, id string, v Vote) (stats Stats, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Stats{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var locked string
	if err = tx.QueryRow(ctx, `SELECT id FROM segments WHERE id=$1 FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
		}
		return Stats{}, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO segment_votes (segment_id, user_id, user_name, condition, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$5)
		ON CONFLICT (segment_id, user_id) DO UPDATE
		SET user_name=EXCLUDED.user_name, condition=EXCLUDED.condition, updated_at=EXCLUDED.updated_at
	`, id, v.UserID, v.UserName, v.Condition, v.Timestamp); err != nil {
		return Stats{}, err
	}

	votes, err := loadVotes(ctx, tx, id)
	if err != nil {
		return Stats{}, err
	}
	stats = RecomputeStats(votes)

	if _, err = tx.Exec(ctx, `
		UPDATE segments SET total_votes=$2, average_rating=$3, updated_at=now()
		WHERE id=$1
	`, id, stats.TotalVotes, stats.AverageRating); err != nil {
		return Stats{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadVotes(ctx context.Context, q queryer, id string) ([]Vote, error) {
	rows, err := q.Query(ctx, `
		SELECT user_id, user_name, condition, updated_at
		FROM segment_votes WHERE segment_id=$1
		ORDER BY created_at, user_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := []Vote{}
	for rows.Next() {
		var v Vote
		if err := rows.Scan(&v.UserID, &v.UserName, &v.Condition, &v.Timestamp); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func scanSegment(row pgx.Row, withGPX bool) (Segment, error) {
	var (
		seg      Segment
		feature  []byte
		profile  []byte
		surfaces []string
	)
	dest := []any{
		&seg.ID, &seg.Metadata.Title, &feature, &seg.Metadata.LengthM, &seg.Metadata.ElevationGainM,
		&seg.Metadata.ElevationLossM, &profile, &surfaces, &seg.OwnerID, &seg.OwnerName,
		&seg.Stats.TotalVotes, &seg.Stats.AverageRating, &seg.CreatedAt, &seg.UpdatedAt,
	}
	if withGPX {
		dest = append(dest, &seg.GPXData)
	}
	if err := row.Scan(dest...); err != nil {
		return Segment{}, err
	}

	f, err := geojson.UnmarshalFeature(feature)
	if err != nil {
		return Segment{}, fmt.Errorf("decode segment %s geojson: %w", seg.ID, err)
	}
	seg.GeoJSON = f
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &seg.Metadata.ElevationProfile); err != nil {
			return Segment{}, fmt.Errorf("decode segment %s profile: %w", seg.ID, err)
		}
	}
	for _, st := range surfaces {
		seg.Metadata.SurfaceTypes = append(seg.Metadata.SurfaceTypes, surface.Type(st))
	}
	return seg, nil
}

func surfaceStrings(types []surface.Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
