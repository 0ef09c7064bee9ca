// cmd/scan evaluates a symbol universe against the opportunity heuristics,
// prints the ranked hits, and publishes them to Redis for downstream
// consumers. Exposes /metrics and /healthz while running.
//
// Usage:
//
//	go run ./cmd/scan --universe=universe.yaml
//	go run ./cmd/scan --universe=universe.yaml --interval=15m
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"

	"backtest-systemv1/config"
	"backtest-systemv1/internal/logger"
	"backtest-systemv1/internal/metrics"
	"backtest-systemv1/internal/notification"
	"backtest-systemv1/internal/scanner"
	redisstore "backtest-systemv1/internal/store/redis"
	sqlitestore "backtest-systemv1/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	universeFile := flag.String("universe", "universe.yaml", "YAML file listing the scan universe")
	interval := flag.Duration("interval", 0, "Rescan interval (0 = scan once and exit)")
	noPublish := flag.Bool("no-publish", false, "Skip Redis publishing")
	webhook := flag.String("webhook", "", "POST scan alerts to this webhook URL")
	flag.Parse()

	cfg := config.Load()
	uni, err := config.LoadUniverse(*universeFile)
	if err != nil {
		log.Fatalf("[scan] universe: %v", err)
	}

	reader, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[scan] sqlite open: %v", err)
	}
	defer reader.Close()

	met := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetSQLiteOK(true)

	sc, err := scanner.New(reader, scanner.Config{
		Universe:      uni.Symbols,
		TopN:          uni.TopN,
		MinConfidence: uni.MinConfidence,
	}, met)
	if err != nil {
		log.Fatalf("[scan] scanner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Redis publishing behind a circuit breaker; scans run fine without it
	var publisher *redisstore.BufferedPublisher
	if !*noPublish {
		pub, err := redisstore.New(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[scan] redis unavailable, publishing disabled: %v", err)
		} else {
			defer pub.Close()
			health.SetRedisConnected(true)

			cb := redisstore.NewBreaker(5, 10*time.Second)
			cb.OnStateChange = func(from, to redisstore.State) {
				log.Printf("[scan] redis circuit %s -> %s", from, to)
				met.RedisCircuitBreakerState.Set(float64(to))
				if to == redisstore.StateOpen {
					met.RedisCircuitBreakerTrips.Inc()
				}
			}
			publisher = redisstore.NewBufferedPublisher(ctx, pub, cb, 0)
			publisher.OnBuffer = func() { met.RedisBufferedPublishes.Inc() }

			health.StartLivenessChecker(ctx, pub.Client(), nil, 30*time.Second)
		}
	}

	var notifiers []notification.Notifier
	if *webhook != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(*webhook))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if len(notifiers) == 0 {
		notifiers = append(notifiers, notification.NewLogNotifier())
	}

	srv := metrics.NewServer(cfg.MetricsAddr, health)
	srv.Start()
	defer func() {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
		srv.Stop(shutCtx)
		shutCancel()
	}()

	slogger := logger.Init("scan", slog.LevelInfo)

	runOnce := func() {
		started := time.Now()
		runCtx := logger.WithRunID(ctx, logger.GenerateRunID("scan", started))
		opps, err := sc.Scan(runCtx)
		if err != nil {
			log.Printf("[scan] aborted: %v", err)
			return
		}
		met.ScanDur.Observe(time.Since(started).Seconds())
		health.SetLastScanTime(time.Now())
		slogger.Info("scan complete", append(logger.LogWithRun(runCtx),
			slog.Int("universe", len(uni.Symbols)),
			slog.Int("hits", len(opps)),
			slog.Duration("elapsed", time.Since(started)))...)

		printOpportunities(opps)
		if publisher != nil {
			pubStarted := time.Now()
			if err := publisher.PublishScan(opps); err != nil {
				log.Printf("[scan] publish: %v", err)
			} else {
				met.RedisPublishDur.Observe(time.Since(pubStarted).Seconds())
			}
		}
		if len(opps) > 0 {
			alert := notification.OpportunityAlert(opps)
			for _, n := range notifiers {
				if err := n.Send(ctx, alert); err != nil {
					log.Printf("[scan] notify: %v", err)
				}
			}
		}
	}

	runOnce()
	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("[scan] shutting down")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func printOpportunities(opps []scanner.Opportunity) {
	if len(opps) == 0 {
		fmt.Println("no opportunities above the confidence floor")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Symbol", "Price", "RSI", "Confidence", "Reasons"})
	for _, o := range opps {
		table.Append([]string{
			o.Symbol,
			fmt.Sprintf("%.2f", o.Price),
			fmt.Sprintf("%.1f", o.RSI),
			fmt.Sprintf("%.0f", o.Confidence),
			strings.Join(o.Reasons, ", "),
		})
	}
	table.Render()
}
