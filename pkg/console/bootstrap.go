package console

import (
	"context"
	"fmt"

	"github.com/marcus/appman/internal/workflow"
	"github.com/marcus/appman/pkg/console/keymap"
	"golang.org/x/sync/errgroup"
)

// Bootstrap loads the application list and the keymap overrides in
// parallel and waits for both. A failed application list load is already
// shown in the controller output, so it does not fail the bootstrap.
func Bootstrap(ctx context.Context, ctrl *workflow.Controller, keymapPath string) (*keymap.Config, error) {
	var km *keymap.Config

	// A broken keymap must not cancel the application list load
	var g errgroup.Group
	g.Go(func() error {
		_ = ctrl.LoadApplications(ctx)
		return nil
	})
	g.Go(func() error {
		cfg, err := keymap.LoadConfig(keymapPath)
		if err != nil {
			return fmt.Errorf("load keymap: %w", err)
		}
		km = cfg
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return km, nil
}
