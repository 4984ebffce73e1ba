// Command spin-admin manages issued coupons from the terminal: log in
// with the admin credential pair, then list, inspect and toggle coupon
// records. The login session lives in a local blob and is only honored
// while its expiry deadline is in the future.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sfmarket/daily-spin/internal/backend"
	"github.com/sfmarket/daily-spin/internal/session"
)

type config struct {
	SessionPath string
	ServerURL   string
	Username    string
	Password    string
}

func parseFlags(args []string) (config, []string, error) {
	var cfg config

	fs := flag.NewFlagSet("spin-admin", flag.ContinueOnError)
	fs.StringVar(&cfg.SessionPath, "session", "", "Path of the local session blob")
	fs.StringVar(&cfg.ServerURL, "server", "", "Coupon service base URL")
	fs.StringVar(&cfg.Username, "u", "", "Admin username (login only; prefer env)")
	fs.StringVar(&cfg.Password, "p", "", "Admin password (login only; prefer env)")
	if err := fs.Parse(args); err != nil {
		return config{}, nil, err
	}

	if cfg.SessionPath == "" {
		cfg.SessionPath = os.Getenv("SPIN_ADMIN_SESSION")
	}
	if cfg.SessionPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return config{}, nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.SessionPath = filepath.Join(home, ".daily-spin", "session.json")
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = os.Getenv("SPIN_SERVER")
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://localhost:8080"
	}
	if cfg.Username == "" {
		cfg.Username = os.Getenv("ADMIN_USERNAME")
	}
	if cfg.Password == "" {
		cfg.Password = os.Getenv("ADMIN_PASSWORD")
	}

	return cfg, fs.Args(), nil
}

func main() {
	_ = godotenv.Load()

	cfg, args, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	storage := session.NewFileStorage(cfg.SessionPath)
	client := backend.NewClient(cfg.ServerURL)
	ctx := context.Background()

	var exitErr error
	switch cmd := args[0]; cmd {
	case "login":
		exitErr = runLogin(ctx, cfg, client, storage)
	case "logout":
		exitErr = storage.Clear()
		if exitErr == nil {
			fmt.Println("Logged out.")
		}
	case "watch":
		exitErr = runWatch(storage)
	case "list", "stats", "use", "unuse", "rm", "rm-all":
		if err := requireSession(storage); err != nil {
			exitErr = err
			break
		}
		switch cmd {
		case "list":
			exitErr = runList(ctx, client, args[1:])
		case "stats":
			exitErr = runStats(ctx, client)
		case "use":
			exitErr = runSetUsed(ctx, client, args[1:], true)
		case "unuse":
			exitErr = runSetUsed(ctx, client, args[1:], false)
		case "rm":
			exitErr = runDelete(ctx, client, args[1:])
		case "rm-all":
			exitErr = runDeleteAll(ctx, client)
		}
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
	fmt.Fprintln(os.Stderr, "usage: spin-admin [-session path] [-server url] login|logout|watch|list|stats|use|unuse|rm|rm-all")
}

// requireSession enforces the client-side guard: a missing session asks
// for a login, an expired one is cleared and announced once.
func requireSession(storage session.Storage) error {
	s, ok, err := storage.Get()
	if err != nil {
		return err
	}
	guard := session.NewGuard(storage)
	valid, err := guard.Check()
	if err != nil {
		return err
	}
	if valid {
		return nil
	}
	if ok && !s.Valid(time.Now()) {
		return errors.New("session expired; please log in again")
	}
	return errors.New("not logged in; run spin-admin login first")
}

func runLogin(ctx context.Context, cfg config, client *backend.Client, storage session.Storage) error {
	if cfg.Username == "" || cfg.Password == "" {
		return errors.New("username and password required (use -u/-p or ADMIN_USERNAME/ADMIN_PASSWORD)")
	}

	data, err := client.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return err
	}

	s := &session.Session{
		IsLoggedIn: true,
		ExpiryTime: data.ExpiryTime,
		Token:      data.Token,
	}
	if err := storage.Set(s); err != nil {
		return err
	}
	fmt.Printf("Logged in until %s.\n", time.UnixMilli(data.ExpiryTime).Format(time.RFC3339))
	return nil
}

// runWatch blocks and announces, once, the moment the session stops
// being valid. Interrupt to stop watching.
func runWatch(storage session.Storage) error {
	if err := requireSession(storage); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	guard := session.NewGuard(storage)
	err := guard.Watch(ctx, session.DefaultPollInterval, func() {
		fmt.Println("Session expired. Please log in again.")
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runList(ctx context.Context, client *backend.Client, args []string) error {
	page := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid page %q", args[0])
		}
		page = n
	}

	coupons, pagination, err := client.ListCoupons(ctx, page, 20)
	if err != nil {
		return err
	}
	if len(coupons) == 0 {
		fmt.Println("No coupons.")
		return nil
	}

	for _, c := range coupons {
		used := " "
		if c.IsUsed {
			used = "x"
		}
		fmt.Printf("[%s] %s  %6d won  created %s  %s\n",
			used, c.SerialNumber, c.Amount, c.CreatedAt.Format("2006-01-02 15:04"), c.ID)
	}
	if pagination != nil {
		fmt.Printf("page %d/%d (%d total)\n", pagination.Page, pagination.TotalPages, pagination.Total)
	}
	return nil
}

func runStats(ctx context.Context, client *backend.Client) error {
	stats, err := client.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("coupons: %d total, %d used, %d unused\n",
		stats.TotalCoupons, stats.UsedCoupons, stats.UnusedCoupons)
	fmt.Printf("amount:  %d won issued, %d won redeemed\n",
		stats.TotalAmount, stats.UsedAmount)
	return nil
}

func runSetUsed(ctx context.Context, client *backend.Client, args []string, used bool) error {
	if len(args) != 1 {
		return errors.New("coupon id required")
	}
	if err := client.SetUsed(ctx, args[0], used); err != nil {
		return err
	}
	fmt.Println("Updated.")
	return nil
}

func runDelete(ctx context.Context, client *backend.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("coupon id required")
	}
	if err := client.DeleteCoupon(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

func runDeleteAll(ctx context.Context, client *backend.Client) error {
	deleted, err := client.DeleteAll(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d coupon(s).\n", deleted)
	return nil
}
