package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func WithSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// Task is a long running component. It must return once ctx is done.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Run starts every task and waits for all of them. The first task to fail
// cancels the others; a task returning nil before ctx is done does not.
func Run(ctx context.Context, log *slog.Logger, tasks ...Task) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			log.Info("component started", "component", t.Name)
			err := t.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("component failed", "component", t.Name, "err", err)
				return err
			}
			log.Info("component stopped", "component", t.Name)
			return nil
		})
	}
	return g.Wait()
}

// HTTPServer adapts srv to a Task that drains in-flight requests for up to
// grace once ctx is done.
func HTTPServer(srv *http.Server, grace time.Duration) Task {
	return Task{
		Name: "http " + srv.Addr,
		Run: func(ctx context.Context) error {
			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			sctx, cancel := context.WithTimeout(context.Background(), grace)
			defer cancel()
			return srv.Shutdown(sctx)
		},
	}
}
