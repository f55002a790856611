package main

import (
	"github.com/ilindan-dev/notification-engine/internal/app"
	"go.uber.org/fx"
)

// main is the entry point for the worker that drains the dispatch queue and publishes outcomes.
func main() {
	fx.New(app.WorkerModule).Run()
}
