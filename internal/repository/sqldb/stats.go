package sqldb

import (
	"context"
	"fmt"

	"github.com/sakif/booping/internal/model"
)

func (db *DB) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	var s model.GlobalStats
	if err := db.conn.GetContext(ctx, &s,
		`SELECT total_boops, total_users, last_updated FROM global_stats WHERE id = 1`,
	); err != nil {
		return nil, fmt.Errorf("sqldb: reading global stats: %w", err)
	}
	return &s, nil
}
