package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/kobadaidesu/shade-route-app/internal/db"
)

var ErrStillOpen = errors.New("cannot persist an open session")

// Store persists completed sessions. Open sessions never touch the database.
type Store struct {
	db db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{db: q}
}

func (st *Store) Save(ctx context.Context, s *Session) error {
	if s.Open() {
		return ErrStillOpen
	}
	path, err := json.Marshal(s.Path)
	if err != nil {
		return err
	}

	_, err = st.db.Exec(ctx, `
		INSERT INTO walk_sessions (id, device_id, started_at, ended_at, total_distance_m, duration_ms, avg_speed_kmh, path)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, s.ID, s.DeviceID, s.StartedAt, s.EndedAt, s.TotalDistanceM, s.DurationMs, s.AvgSpeedKmh, path)
	return err
}

func (st *Store) ListCompleted(ctx context.Context, deviceID string) ([]Session, error) {
	rows, err := st.db.Query(ctx, `
		SELECT id, device_id, started_at, ended_at, total_distance_m, duration_ms, avg_speed_kmh, path
		FROM walk_sessions WHERE device_id=$1
		ORDER BY started_at
	`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (st *Store) Get(ctx context.Context, id string) (Session, error) {
	row := st.db.QueryRow(ctx, `
		SELECT id, device_id, started_at, ended_at, total_distance_m, duration_ms, avg_speed_kmh, path
		FROM walk_sessions WHERE id=$1
	`, id)
	return scanSession(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var path []byte
	if err := row.Scan(&s.ID, &s.DeviceID, &s.StartedAt, &s.EndedAt, &s.TotalDistanceM, &s.DurationMs, &s.AvgSpeedKmh, &path); err != nil {
		return Session{}, err
	}
	if err := json.Unmarshal(path, &s.Path); err != nil {
		return Session{}, err
	}
	if len(s.Path) > 0 {
		s.StartFix = s.Path[0]
		end := s.Path[len(s.Path)-1]
		s.EndFix = &end
	}
	return s, nil
}
