// cmd/fetch pulls daily bars from the broker API into SQLite. Each symbol
// resumes from its last stored bar, so repeated runs fetch incrementally.
//
// Usage:
//
//	go run ./cmd/fetch --universe=universe.yaml --days=365
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backtest-systemv1/config"
	"backtest-systemv1/internal/ringbuf"
	sqlitestore "backtest-systemv1/internal/store/sqlite"
	"backtest-systemv1/pkg/candleapi"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	universeFile := flag.String("universe", "universe.yaml", "YAML file listing symbols to fetch")
	days := flag.Int("days", 365, "History window for symbols with no stored bars")
	watch := flag.Bool("watch", false, "After importing, stream live quotes until interrupted")
	flag.Parse()

	cfg := config.Load()
	cfg.RequireBroker()

	uni, err := config.LoadUniverse(*universeFile)
	if err != nil {
		log.Fatalf("[fetch] universe: %v", err)
	}

	store, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[fetch] sqlite open: %v", err)
	}
	defer store.Close()

	client := candleapi.NewClient(candleapi.Config{
		APIKey:     cfg.BrokerAPIKey,
		ClientCode: cfg.BrokerClientCode,
		Password:   cfg.BrokerPassword,
		TOTPSecret: cfg.BrokerTOTPSecret,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := client.Login(ctx); err != nil {
		log.Fatalf("[fetch] login: %v", err)
	}
	defer client.Logout(context.Background())

	now := time.Now().UTC()
	fetched := 0
	for _, symbol := range uni.Symbols {
		from := now.AddDate(0, 0, -*days)
		last, err := store.LastBarDate(symbol)
		if err != nil {
			log.Printf("[fetch] %s: last bar lookup failed: %v", symbol, err)
			continue
		}
		if !last.IsZero() {
			from = last.AddDate(0, 0, 1)
		}
		if !from.Before(now) {
			log.Printf("[fetch] %s: up to date", symbol)
			continue
		}

		bars, err := client.GetCandles(ctx, symbol, from, now)
		if err != nil {
			log.Printf("[fetch] %s: fetch failed: %v", symbol, err)
			continue
		}
		if len(bars) == 0 {
			log.Printf("[fetch] %s: no new bars", symbol)
			continue
		}

		if err := store.ImportBars(bars); err != nil {
			log.Printf("[fetch] %s: import failed: %v", symbol, err)
			continue
		}
		log.Printf("[fetch] %s: imported %d bars (%s .. %s)", symbol, len(bars),
			bars[0].Date.Format("2006-01-02"), bars[len(bars)-1].Date.Format("2006-01-02"))
		fetched += len(bars)
	}

	log.Printf("[fetch] done: %d bars across %d symbols", fetched, len(uni.Symbols))

	if *watch {
		watchQuotes(cfg, client, uni.Symbols)
	}
}

// watchQuotes tails the live quote stream for the universe, draining the ring
// buffer to the log until SIGINT/SIGTERM.
func watchQuotes(cfg *config.Config, client *candleapi.Client, symbols []string) {
	ring := ringbuf.New(4096)
	feed, err := candleapi.NewQuoteFeed("", cfg.BrokerAPIKey, client.FeedToken(), ring)
	if err != nil {
		log.Fatalf("[fetch] quote feed: %v", err)
	}
	feed.OnError = func(err error) { log.Printf("[fetch] quote feed: %v", err) }
	if err := feed.Connect(); err != nil {
		log.Fatalf("[fetch] quote feed connect: %v", err)
	}
	defer feed.Close()
	if err := feed.Subscribe(symbols); err != nil {
		log.Fatalf("[fetch] subscribe: %v", err)
	}
	log.Printf("[fetch] watching %d symbols (ctrl-c to stop)", len(symbols))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-sigCh:
			if n := ring.Overflow(); n > 0 {
				log.Printf("[fetch] dropped %d quotes on full buffer", n)
			}
			return
		case <-ticker.C:
			for {
				q, ok := ring.Pop()
				if !ok {
					break
				}
				log.Printf("[fetch] %s %.2f vol=%.0f", q.Symbol, q.Price, q.Volume)
			}
		}
	}
}
