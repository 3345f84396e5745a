package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/AmirHosein-Gharaati/learnstreamapi/cmd/api/app"
	"github.com/AmirHosein-Gharaati/learnstreamapi/cmd/api/server"
)

func main() {
	ctx, stop := server.WithSignal(context.Background())
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("failed to start application: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		a.Logger.Fatal("application exited with error", zap.Error(err))
	}
}
