// Command watch_events tails calculation events from redis and prints them
// as JSON lines. Execution engine operators use it to see what the scheduler
// hands out and what the engine reports back.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yungbote/derivedconcept-backend/internal/app"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
	"github.com/yungbote/derivedconcept-backend/internal/realtime"
	"github.com/yungbote/derivedconcept-backend/internal/realtime/bus"
)

// conceptFilter keeps job record events for one concept and calculation
// batches that may include it (its own single batches and every global one).
type conceptFilter uint

func (f conceptFilter) match(ev realtime.Event) bool {
	if f == 0 {
		return true
	}
	data, _ := ev.Data.(map[string]any)
	if ev.Event == realtime.EventCalculationScheduled {
		batch, _ := data["batch"].(map[string]any)
		target, ok := batch["derived_concept_id"].(float64)
		return !ok || uint(target) == uint(f)
	}
	id, ok := data["derived_concept_id"].(float64)
	return ok && uint(id) == uint(f)
}

func writeEvent(w io.Writer, ev realtime.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func splitEvents(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	var (
		events    string
		conceptID uint
	)
	flag.StringVar(&events, "events", "", "comma separated event names to print (default all)")
	flag.UintVar(&conceptID, "concept", 0, "only print events for this derived concept id")
	flag.Parse()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := app.LoadConfig(log)
	sub, err := bus.NewRedisBus(log, cfg.Redis)
	if err != nil {
		log.Error("Could not connect to event bus", "error", err)
		os.Exit(1)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filter := conceptFilter(conceptID)
	log.Info("Watching events", "channel", sub.Channel(), "events", events, "concept", conceptID)
	err = sub.Subscribe(ctx, splitEvents(events), func(ev realtime.Event) {
		if !filter.match(ev) {
			return
		}
		if err := writeEvent(os.Stdout, ev); err != nil {
			log.Warn("Write event failed", "event", ev.Event, "error", err)
		}
	})
	if err != nil {
		log.Error("Subscription ended", "error", err)
		os.Exit(1)
	}
}
