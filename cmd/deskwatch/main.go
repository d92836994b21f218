// Command deskwatch polls the accommodation API and logs occupancy for one gender filter.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"campdesk/config"
	"campdesk/internal/dashboard"
	applogger "campdesk/pkg/logger"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "campdesk server root")
	gender := flag.String("gender", "", "Male, Female or empty for both")
	interval := flag.Duration("interval", 30*time.Second, "refresh interval")
	flag.Parse()

	token := os.Getenv("CAMP_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "CAMP_TOKEN must hold an access token")
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&config.LogConfig{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctrl := dashboard.NewController(dashboard.NewHTTPClient(*baseURL, token, nil), logger)
	ctrl.SetGender(*gender)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		report(ctx, ctrl, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func report(ctx context.Context, ctrl *dashboard.Controller, logger *zap.Logger) {
	if err := ctrl.Refresh(ctx); err != nil {
		logger.Warn("refresh failed", zap.Error(err))
		return
	}

	stats, _ := ctrl.Stats.Get()
	rooms, _ := ctrl.Rooms.Get()
	waiting, _ := ctrl.Unallocated.Get()
	if stats == nil {
		return
	}

	full := 0
	for _, r := range rooms {
		if r.Remaining == 0 {
			full++
		}
	}
	logger.Info("occupancy",
		zap.String("gender", ctrl.Gender()),
		zap.Int64("verified", stats.Verified),
		zap.Int64("allocated", stats.Allocated),
		zap.Int("waiting", len(waiting)),
		zap.Int("rooms", len(rooms)),
		zap.Int("full_rooms", full),
		zap.Float64("occupancy_rate", stats.OccupancyRate),
	)
}
