package results

import (
	"context"
	"errors"

	"github.com/kiliankoe/shadowheist/internal/game"
)

// Multi fans a record out to several recorders. Every recorder runs even if an
// earlier one fails.
type Multi []game.Recorder

func (m Multi) Record(ctx context.Context, rec game.GameRecord) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
