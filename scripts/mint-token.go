package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"

	"github.com/homenest/homenest/internal/config"
	"github.com/homenest/homenest/internal/identity"
	"github.com/homenest/homenest/internal/model"
	"github.com/homenest/homenest/internal/repository"
)

type output struct {
	Email     string    `json:"email"`
	Format    string    `json:"format"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id,omitempty"`
}

func main() {
	_ = godotenv.Load()

	var (
		email       = flag.String("email", "", "Email the credential is issued for")
		tokenFormat = flag.String("token-format", envOr("AUTH_TOKEN_FORMAT", config.TokenFormatJWT), "Credential format: jwt or paseto")
		ttl         = flag.Duration("ttl", time.Hour, "Credential lifetime")
		register    = flag.Bool("register", false, "Also register the email as a user")
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string (with -register)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		os.Exit(1)
	}

	token, err := mint(*tokenFormat, *email, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mint credential:", err)
		os.Exit(1)
	}

	out := output{
		Email:     *email,
		Format:    *tokenFormat,
		Token:     token,
		ExpiresAt: time.Now().Add(*ttl).UTC(),
	}

	if *register {
		userID, err := ensureUser(*databaseURL, *email)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		out.UserID = userID
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.Token)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func mint(tokenFormat, email string, ttl time.Duration) (string, error) {
	cfg := &config.Config{
		TokenFormat: tokenFormat,
		JWTSecret:   os.Getenv("AUTH_JWT_SECRET"),
		JWTIssuer:   os.Getenv("AUTH_JWT_ISSUER"),
		PasetoKey:   os.Getenv("AUTH_PASETO_KEY"),
	}

	switch tokenFormat {
	case config.TokenFormatJWT:
		if cfg.JWTSecret == "" {
			return "", fmt.Errorf("AUTH_JWT_SECRET is required")
		}
		return identity.IssueJWT(cfg.JWTSecret, cfg.JWTIssuer, email, ttl)
	case config.TokenFormatPaseto:
		key, err := cfg.PasetoKeyBytes()
		if err != nil {
			return "", err
		}
		return identity.IssuePaseto(key, email, ttl)
	default:
		return "", fmt.Errorf("unsupported token format %q", tokenFormat)
	}
}

func ensureUser(databaseURL, email string) (string, error) {
	if databaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL is required with -register")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, databaseURL, 5*time.Second)
	if err != nil {
		return "", fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()

	user, _, err := repo.RegisterUser(ctx, &model.User{
		ID:        ulid.Make().String(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("register user: %w", err)
	}
	return user.ID, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
