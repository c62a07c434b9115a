package repo

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"habit-tracker-bot/internal/infra/metrics"
)

//go:embed schema.sql
var schemaDDL string

// EnsureSchema создаёт таблицы и индексы, если их ещё нет.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, schemaDDL)
	metrics.ObserveNetworkRequest("postgres", "ensure_schema", "schema", start, err)
	if err != nil {
		return fmt.Errorf("применение схемы: %w", err)
	}
	return nil
}
