package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/seoforge/metadesc/internal/auth"
)

func main() {
	org := flag.String("org", "", "organization ID (required)")
	team := flag.String("team", "", "team ID (required)")
	name := flag.String("name", "", "human-friendly key name (required)")
	env := flag.String("env", "prod", "environment prefix")
	providers := flag.String("providers", "", "comma-separated provider grants (empty = all providers)")
	expires := flag.String("expires", "365d", "expiry duration (e.g., 365d, 720h)")
	dbURL := flag.String("db-url", "", "database URL (overrides env)")
	flag.Parse()

	if *org == "" || *team == "" || *name == "" {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "\nerror: -org, -team, and -name are required")
		os.Exit(1)
	}

	// Generate key
	rawKey, err := auth.GenerateKey(*env)
	if err != nil {
		log.Fatalf("failed to generate key: %v", err)
	}

	keyHash := auth.HashKey(rawKey)
	keyPrefix := auth.KeyPrefix(rawKey)

	// Parse expiry
	dur, err := auth.ParseDuration(*expires)
	if err != nil {
		log.Fatalf("invalid expires: %v", err)
	}
	expiresAt := time.Now().Add(dur)

	// Connect to database
	dsn := *dbURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		host := envOrDefault("DB_HOST", "localhost")
		port := envOrDefault("DB_PORT", "5432")
		u := envOrDefault("DB_USER", "metadesc")
		pass := envOrDefault("DB_PASSWORD", "metadesc-dev")
		dbname := envOrDefault("DB_NAME", "metadesc")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", u, pass, host, port, dbname)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	// Serialize provider grants as a JSON array
	grants := []string{}
	if *providers != "" {
		for _, p := range strings.Split(*providers, ",") {
			grants = append(grants, strings.TrimSpace(p))
		}
	}
	allowedProviders, _ := json.Marshal(grants)

	// Insert key
	var keyID string
	err = conn.QueryRow(ctx, `
		INSERT INTO api_keys (key_hash, key_prefix, organization_id, team_id, name, allowed_providers, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, keyHash, keyPrefix, *org, *team, *name, allowedProviders, expiresAt).Scan(&keyID)
	if err != nil {
		log.Fatalf("failed to insert key: %v", err)
	}

	fmt.Println("=== metadesc API Key Generated ===")
	fmt.Println()
	fmt.Printf("  Key ID:       %s\n", keyID)
	fmt.Printf("  Key Prefix:   %s\n", keyPrefix)
	fmt.Printf("  Organization: %s\n", *org)
	fmt.Printf("  Team:         %s\n", *team)
	if len(grants) > 0 {
		fmt.Printf("  Providers:    %s\n", strings.Join(grants, ", "))
	} else {
		fmt.Printf("  Providers:    all\n")
	}
	fmt.Printf("  Expires:      %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println()
	fmt.Println("  API Key (save this, it will NOT be shown again):")
	fmt.Printf("  %s\n", rawKey)
	fmt.Println()
	fmt.Println("==================================")
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
