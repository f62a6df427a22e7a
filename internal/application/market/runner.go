package market

import (
	"context"

	"nftmarket-backend/internal/application/marketevents"
	"nftmarket-backend/internal/infrastructure/database"

	"gorm.io/gorm"
)

// Runner executes one mutating call: under the guard, in a single transaction, with a journal
// for the events it emits. Events are published after commit and before the guard is released,
// so subscribers see them in commit order.
type Runner struct {
	DB        *gorm.DB
	Guard     *Guard
	Publisher marketevents.Publisher
}

func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error) error {
	return r.Guard.Do(ctx, func(ctx context.Context) error {
		var journal *marketevents.Journal
		err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			journal = marketevents.NewJournal(tx)
			return fn(database.WithTx(ctx, tx), tx, journal)
		})
		if err != nil {
			return err
		}
		if r.Publisher != nil {
			r.Publisher.Publish(ctx, journal.Events())
		}
		return nil
	})
}
