package formspec

import (
	"context"
	"strings"

	"github.com/fieldform/draftsync/internal/engine"
	"github.com/fieldform/draftsync/internal/snapshot"
)

// ValidatingSaveFunc wraps a save function with template validation. A
// snapshot that violates the template never reaches the network; the engine
// sees a rejected save, keeps the local backup, and waits for the user to
// fix the field (automatic retry of the same payload would fail again).
func ValidatingSaveFunc(t *Template, inner engine.SaveFunc) engine.SaveFunc {
	return func(ctx context.Context, snap snapshot.Value) error {
		if violations := t.Validate(snap); len(violations) > 0 {
			msgs := make([]string, len(violations))
			for i, v := range violations {
				msgs[i] = v.Error()
			}
			return engine.NewRejectedError(
				"snapshot violates report template: "+strings.Join(msgs, "; "),
				nil,
			)
		}
		return inner(ctx, snap)
	}
}
