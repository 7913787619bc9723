// cmd/lambda/main.go runs one sweep per invocation, for an EventBridge rule such as rate(1 hour).
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jason-s-yu/cambia-janitor/internal/config"
	"github.com/jason-s-yu/cambia-janitor/internal/janitor"
	"github.com/jason-s-yu/cambia-janitor/internal/logging"
	"github.com/jason-s-yu/cambia-janitor/internal/runner"
	"github.com/sirupsen/logrus"
)

// handler is created once per Lambda container and reused by every invocation,
// so the store connection outlives single sweeps.
type handler struct {
	runner *runner.Runner
	logger *logrus.Logger
}

// Handle runs a sweep. Returning the error marks the invocation as failed;
// the next scheduled event retries from scratch.
func (h *handler) Handle(ctx context.Context, ev events.CloudWatchEvent) (janitor.Report, error) {
	h.logger.WithFields(logrus.Fields{
		"event_id": ev.ID,
		"source":   ev.Source,
	}).Debug("Scheduled event received")
	return h.runner.RunOnce(ctx)
}

func main() {
	cfg := config.Load()
	logger := logging.NewLogger(cfg.LogLevel, true)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	s, err := runner.OpenStore(context.Background(), cfg)
	if err != nil {
		logger.WithError(err).Fatal("unable to open store")
	}

	h := &handler{runner: runner.New(cfg, s, logger), logger: logger}
	lambda.Start(h.Handle)
}
