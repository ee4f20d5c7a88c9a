package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/share-dialog-service/internal/app"
	"github.com/example/share-dialog-service/internal/models"
)

const service = "messenger-worker"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, service, models.SurfaceMessenger); err != nil {
		stop()
		app.Fail(service, err)
	}
}
