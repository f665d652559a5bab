package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/repository"
	"github.com/spendwise/spendwise/internal/service"
)

type output struct {
	UserID       string   `json:"user_id"`
	Email        string   `json:"email"`
	KeyID        string   `json:"key_id"`
	Key          string   `json:"key"`
	KeyPrefix    string   `json:"key_prefix"`
	Scopes       []string `json:"scopes"`
	Tier         string   `json:"rate_limit_tier"`
	SessionToken string   `json:"session_token,omitempty"`
}

type options struct {
	databaseURL   string
	sessionSecret string
	sessionIssuer string
	userID        string
	email         string
	firstName     string
	lastName      string
	name          string
	scopes        []string
	tier          string
	env           string
	sessionTTL    time.Duration
	format        string
}

func main() {
	_ = godotenv.Load()

	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("bootstrap-api-key", pflag.ContinueOnError)
	fs.StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	fs.StringVar(&opts.sessionSecret, "session-secret", os.Getenv("SESSION_SECRET"), "secret for --session-ttl tokens")
	fs.StringVar(&opts.sessionIssuer, "session-issuer", os.Getenv("SESSION_ISSUER"), "issuer claim for --session-ttl tokens")
	fs.StringVarP(&opts.userID, "user-id", "u", "system", "user id to own the key")
	fs.StringVarP(&opts.email, "email", "e", "system@spendwise.local", "user email")
	fs.StringVar(&opts.firstName, "first-name", "", "user first name")
	fs.StringVar(&opts.lastName, "last-name", "", "user last name")
	fs.StringVarP(&opts.name, "name", "n", "bootstrap", "API key name")
	fs.StringSliceVarP(&opts.scopes, "scopes", "s", []string{model.ScopeAdmin}, "scopes: read, write, admin")
	fs.StringVar(&opts.tier, "tier", model.TierUnlimited, "rate limit tier: free, pro, unlimited")
	fs.StringVar(&opts.env, "env", auth.EnvLive, "key environment: live or test")
	fs.DurationVar(&opts.sessionTTL, "session-ttl", 0, "also print a session token valid this long")
	fs.StringVarP(&opts.format, "format", "f", "plain", "output format: plain or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.databaseURL == "" {
		return nil, errors.New("DATABASE_URL or --database-url is required")
	}
	if opts.sessionTTL > 0 && opts.sessionSecret == "" {
		return nil, errors.New("--session-ttl needs SESSION_SECRET or --session-secret")
	}
	switch strings.ToLower(opts.format) {
	case "plain", "json":
	default:
		return nil, fmt.Errorf("invalid format %q; use plain or json", opts.format)
	}

	return opts, nil
}

func run(opts *options) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, opts.databaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := service.NewUserService(repo)
	keys := service.NewAPIKeyService(repo, nil, opts.env, logger)

	identity := auth.Identity{
		UserID:    opts.userID,
		Email:     opts.email,
		FirstName: opts.firstName,
		LastName:  opts.lastName,
	}
	user, err := users.Mirror(ctx, &identity)
	if err != nil {
		return fmt.Errorf("mirror user: %w", err)
	}

	created, err := keys.Create(ctx, user.ID, service.CreateAPIKeyInput{
		Name:          opts.name,
		Scopes:        opts.scopes,
		RateLimitTier: opts.tier,
	})
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	out := output{
		UserID:    user.ID,
		Email:     user.Email,
		KeyID:     created.Key.ID,
		Key:       created.Plaintext,
		KeyPrefix: created.Key.KeyPrefix,
		Scopes:    created.Key.Scopes,
		Tier:      created.Key.RateLimitTier,
	}

	if opts.sessionTTL > 0 {
		token, err := auth.NewSessionVerifier(opts.sessionSecret, opts.sessionIssuer).Issue(identity, opts.sessionTTL)
		if err != nil {
			return fmt.Errorf("issue session token: %w", err)
		}
		out.SessionToken = token
	}

	if strings.ToLower(opts.format) == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(out.Key)
	if out.SessionToken != "" {
		fmt.Println(out.SessionToken)
	}
	return nil
}
