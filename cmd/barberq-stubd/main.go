// barberq-stubd runs the in-memory development backend so the TUIs can be
// exercised without the real queue service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ndelorme/barberq/internal/stub"
)

func main() {
	os.Exit(run())
}

func run() int {
	bind := flag.String("bind", "127.0.0.1:8743", "address to listen on")
	direct := flag.Bool("direct-shape", false, "serve the flat active-booking response shape")
	seed := flag.Bool("seed", false, "preload a demo queue")
	salonID := flag.String("salon", "salon-1", "salon id for seeded entries")
	barberID := flag.String("barber", "barber-1", "barber id for seeded entries")
	avg := flag.Int("avg-minutes", 20, "average service time in minutes")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	srv := stub.New(stub.Options{
		AvgServiceMinutes: *avg,
		DirectShape:       *direct,
		Logger:            logger,
	})
	if *seed {
		srv.Seed(*salonID, *barberID)
		logger.Info("seeded demo queue", "salon", *salonID, "barber", *barberID)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	srv.Routes(e)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(*bind)
	}()
	logger.Info("stub backend listening", "bind", *bind)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "barberq-stubd: %v\n", err)
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "barberq-stubd: shutdown: %v\n", err)
			return 1
		}
	}
	return 0
}
