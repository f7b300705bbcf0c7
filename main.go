package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/researches/auth"
	"github.com/danielhkuo/researches/cliparse"
	"github.com/danielhkuo/researches/db"
	"github.com/danielhkuo/researches/middleware"
	"github.com/danielhkuo/researches/router"
	"github.com/danielhkuo/researches/zaidel"
)

var (
	rootCmd = &cobra.Command{
		Use:   "researches",
		Short: "Serve the researches API",
		Long: `researches stores spectral researches, their experiments and
comparisons, and delegates the analysis to the zaidel service.`,
		// Flags are parsed by cliparse so env and flags share one definition
		DisableFlagParsing: true,
		Args:               cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(args)
		},
	}

	migrateCmd = &cobra.Command{
		Use:                "migrate",
		Short:              "Create the database schema and exit",
		DisableFlagParsing: true,
		Args:               cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(args)
		},
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local testing",
		RunE:  issueToken,
	}
)

func init() {
	tokenCmd.Flags().String("id", "", "User id placed in the token")
	tokenCmd.Flags().String("email", "", "User email placed in the token")
	tokenCmd.Flags().StringSlice("roles", []string{"user"}, "User roles")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.Flags().String("token-secret", "", "JWT shared secret (prefer env)")
	tokenCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(migrateCmd, tokenCmd)
}

func main() {
	// A missing .env is fine; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openDatabase connects, verifies the connection and creates the schema
func openDatabase(cfg cliparse.Config) (*sql.DB, error) {
	dbConn, err := sql.Open(cfg.DriverName(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if cfg.DatabaseType == cliparse.DatabaseSQLite {
		// SQLite allows one writer
		dbConn.SetMaxOpenConns(1)
	}

	if err := dbConn.Ping(); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := db.CreateSchema(dbConn); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("schema creation failed: %w", err)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	return dbConn, nil
}

func serve(args []string) error {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(args)
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		return err
	}
	slog.SetLogLoggerLevel(cfg.LogLevel)

	dbConn, err := openDatabase(cfg)
	if err != nil {
		slog.Error("database setup failed", "error", err)
		return err
	}
	defer dbConn.Close()

	client := zaidel.NewHTTPClient(zaidel.Config{
		BaseURL:     cfg.ZaidelServiceURL,
		Timeout:     cfg.ZaidelTimeout,
		SettingsTTL: cfg.SettingsCacheTTL,
	})

	// Create router
	mux := router.NewRouter(dbConn, cfg, client)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal, then let in-flight requests finish
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "zaidel", cfg.ZaidelServiceURL)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
		return err
	}
	slog.Info("Server closed")
	return nil
}

func migrate(args []string) error {
	cfg, err := cliparse.ParseFlags(args)
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		return err
	}

	dbConn, err := openDatabase(cfg)
	if err != nil {
		slog.Error("migration failed", "error", err)
		return err
	}
	return dbConn.Close()
}

func issueToken(cmd *cobra.Command, args []string) error {
	v := viper.New()
	v.AutomaticEnv()
	if err := v.BindPFlag("token_secret", cmd.Flags().Lookup("token-secret")); err != nil {
		return err
	}

	secret := v.GetString("token_secret")
	if secret == "" {
		return errors.New("TOKEN_SECRET required")
	}

	id, _ := cmd.Flags().GetString("id")
	email, _ := cmd.Flags().GetString("email")
	roles, _ := cmd.Flags().GetStringSlice("roles")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	token, err := auth.IssueToken(id, email, roles, secret, ttl)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
