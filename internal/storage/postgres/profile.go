package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dmgcalc/internal/game/profile"
)

// ErrProfileNotFound is returned when no profile is stored for a uid and character.
var ErrProfileNotFound = errors.New("profile not found")

// StoredProfile is one persisted build with its row metadata.
type StoredProfile struct {
	UID       string
	Profile   profile.Serialized
	UpdatedAt time.Time
}

// ProfileRepository persists serialized builds as jsonb keyed by (uid, char_id).
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a ProfileRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Save upserts the serialized build for uid.
//
// Precondition: uid must be non-empty; p.ID must be > 0.
// Postcondition: Get(uid, p.ID) returns p until the next Save or Delete.
func (r *ProfileRepository) Save(ctx context.Context, uid string, p profile.Serialized) error {
	if uid == "" || p.ID <= 0 {
		return fmt.Errorf("saving profile: uid %q and char id %d must be set", uid, p.ID)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile %s/%d: %w", uid, p.ID, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO profiles (uid, char_id, name, data_source, data, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (uid, char_id) DO UPDATE
		SET name = EXCLUDED.name,
		    data_source = EXCLUDED.data_source,
		    data = EXCLUDED.data,
		    updated_at = NOW()`,
		uid, p.ID, p.Name, p.DataSource, data,
	)
	if err != nil {
		return fmt.Errorf("upserting profile %s/%d: %w", uid, p.ID, err)
	}
	return nil
}

// Get loads the profile stored for uid and charID.
//
// Postcondition: Returns the stored profile or ErrProfileNotFound.
func (r *ProfileRepository) Get(ctx context.Context, uid string, charID int) (StoredProfile, error) {
	row := r.db.QueryRow(ctx, `
		SELECT uid, data, updated_at FROM profiles
		WHERE uid = $1 AND char_id = $2`,
		uid, charID,
	)
	sp, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredProfile{}, ErrProfileNotFound
		}
		return StoredProfile{}, fmt.Errorf("querying profile %s/%d: %w", uid, charID, err)
	}
	return sp, nil
}

// ListByUID returns every profile stored for uid ordered by character id.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ProfileRepository) ListByUID(ctx context.Context, uid string) ([]StoredProfile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT uid, data, updated_at FROM profiles
		WHERE uid = $1 ORDER BY char_id ASC`,
		uid,
	)
	if err != nil {
		return nil, fmt.Errorf("listing profiles of %s: %w", uid, err)
	}
	defer rows.Close()

	out := make([]StoredProfile, 0)
	for rows.Next() {
		sp, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// Delete removes the profile stored for uid and charID.
//
// Postcondition: Returns nil on success or ErrProfileNotFound if nothing was deleted.
func (r *ProfileRepository) Delete(ctx context.Context, uid string, charID int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE uid = $1 AND char_id = $2`, uid, charID)
	if err != nil {
		return fmt.Errorf("deleting profile %s/%d: %w", uid, charID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (StoredProfile, error) {
	var (
		sp   StoredProfile
		data []byte
	)
	if err := row.Scan(&sp.UID, &data, &sp.UpdatedAt); err != nil {
		return StoredProfile{}, err
	}
	if err := json.Unmarshal(data, &sp.Profile); err != nil {
		return StoredProfile{}, fmt.Errorf("decoding profile: %w", err)
	}
	return sp, nil
}
