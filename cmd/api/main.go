package main

import (
	"github.com/ilindan-dev/notification-engine/internal/app"
	"go.uber.org/fx"
)

// main is the entry point for the notification API: synchronous dispatch, fan-out,
// enqueueing and template reads.
func main() {
	fx.New(app.APIModule).Run()
}
