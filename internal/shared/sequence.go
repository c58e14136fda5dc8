package shared

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// MasterSequence numbers master data codes (ledgers, qualities).
	MasterSequence = "Master_SEQ"
	// sequenceSeed is the value before the first issued number.
	sequenceSeed = 9999
)

// SequenceGenerator hands out monotonically increasing codes stored in
// database_sequences.
type SequenceGenerator struct {
	pool *pgxpool.Pool
}

// NewSequenceGenerator constructs the generator.
func NewSequenceGenerator(pool *pgxpool.Pool) *SequenceGenerator {
	return &SequenceGenerator{pool: pool}
}

// Next increments the named sequence and returns the new value.
func (g *SequenceGenerator) Next(ctx context.Context, name string) (string, error) {
	if g == nil || g.pool == nil {
		return "", errors.New("sequence generator not initialised")
	}
	if name == "" {
		return "", errors.New("sequence name required")
	}
	const query = `INSERT INTO database_sequences (id, seq) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET seq = database_sequences.seq + 1
RETURNING seq`
	var seq int64
	if err := g.pool.QueryRow(ctx, query, name, sequenceSeed+1).Scan(&seq); err != nil {
		return "", fmt.Errorf("sequence %s: %w", name, err)
	}
	return strconv.FormatInt(seq, 10), nil
}
