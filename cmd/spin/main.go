// Command spin is the visitor side of the daily-spin promotion: it
// draws coupons against the device-local daily quota and mirrors each
// win to the coupon service, best effort.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sfmarket/daily-spin/internal/backend"
	"github.com/sfmarket/daily-spin/internal/quota"
	"github.com/sfmarket/daily-spin/internal/spin"
)

type config struct {
	StatePath string
	ServerURL string
	Amounts   []int
}

func parseFlags(args []string) (config, []string, error) {
	var cfg config

	fs := flag.NewFlagSet("spin", flag.ContinueOnError)
	fs.StringVar(&cfg.StatePath, "state", "", "Path of the local quota blob")
	fs.StringVar(&cfg.ServerURL, "server", "", "Coupon service base URL")
	if err := fs.Parse(args); err != nil {
		return config{}, nil, err
	}

	// Fall back to environment variables
	if cfg.StatePath == "" {
		cfg.StatePath = os.Getenv("SPIN_STATE")
	}
	if cfg.StatePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return config{}, nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.StatePath = filepath.Join(home, ".daily-spin", "quota.json")
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = os.Getenv("SPIN_SERVER")
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://localhost:8080"
	}

	if raw := os.Getenv("SPIN_AMOUNTS"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n <= 0 {
				return config{}, nil, fmt.Errorf("invalid SPIN_AMOUNTS entry %q", part)
			}
			cfg.Amounts = append(cfg.Amounts, n)
		}
	}

	return cfg, fs.Args(), nil
}

func main() {
	_ = godotenv.Load()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, args, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	store := quota.NewStore(quota.NewFileStorage(cfg.StatePath))

	var exitErr error
	switch args[0] {
	case "draw":
		exitErr = runDraw(cfg, store, log)
	case "status":
		exitErr = runStatus(store)
	case "coupons":
		exitErr = runCoupons(store)
	default:
		usage()
		os.Exit(1)
	}
	if exitErr != nil {
		fmt.Fprintln(os.Stderr, exitErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: spin [-state path] [-server url] draw|status|coupons")
}

func runDraw(cfg config, store *quota.Store, log zerolog.Logger) error {
	client := backend.NewClient(cfg.ServerURL)
	orch := spin.New(store, client, cfg.Amounts, log)

	ctx := context.Background()
	res, err := orch.Draw(ctx)
	if err != nil {
		return err
	}
	if res.Rejected {
		fmt.Println("No chances left today. Come back tomorrow!")
		return nil
	}

	c := res.Coupon
	fmt.Printf("You won a %d won coupon!\n", c.Amount)
	fmt.Printf("  serial:  %s\n", c.SerialNumber)
	fmt.Printf("  expires: %s\n", c.ExpiresAt.Format("2006-01-02"))
	if res.FirstWinToday {
		fmt.Println("  first win of the day!")
	}

	// let the mirror settle before the process exits
	flushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	orch.Flush(flushCtx)

	remaining, err := store.RemainingChances()
	if err != nil {
		return err
	}
	fmt.Printf("%d chance(s) remaining today.\n", remaining)
	return nil
}

func runStatus(store *quota.Store) error {
	remaining, err := store.RemainingChances()
	if err != nil {
		return err
	}
	fmt.Printf("%d of %d chances remaining today.\n", remaining, quota.DefaultChances)
	return nil
}

func runCoupons(store *quota.Store) error {
	coupons, err := store.TodayCoupons()
	if err != nil {
		return err
	}
	if len(coupons) == 0 {
		fmt.Println("No coupons won today.")
		return nil
	}
	for _, c := range coupons {
		fmt.Printf("%s  %6d won  expires %s\n", c.SerialNumber, c.Amount, c.ExpiresAt.Format("2006-01-02"))
	}
	return nil
}
