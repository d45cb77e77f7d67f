package storage

import (
	"context"
	"fmt"
)

// GetOrCreateUser resolves a tailnet login to a user row, creating the row
// on first sight and refreshing last_seen and display_name after that. The
// identity middleware calls this per request; dev mode never reaches it,
// since the initial migration seeds user 1 as the local fallback.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (login, display_name) VALUES ($1, $2)
		 ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(),
			    display_name = COALESCE(NULLIF($2, ''), users.display_name)
		 RETURNING id`,
		login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolving user %s: %w", login, err)
	}
	return id, nil
}
