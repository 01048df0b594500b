package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tournevent/courier/internal/bulk"
	"github.com/tournevent/courier/internal/server"
	"github.com/tournevent/courier/pkg/courier"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "courier",
	Short:   "Courier Bridge - ship back-office orders with Pathao, RedX and Steadfast",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GraphQL server",
	RunE:  runServe,
}

var templateCmd = &cobra.Command{
	Use:   "template <provider>",
	Short: "Print a bulk-entry template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplate,
}

var validateBulkCmd = &cobra.Command{
	Use:   "validate-bulk <file>",
	Short: "Validate a bulk order file without submitting it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidateBulk,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Retry status write-backs for shipments created without one",
	RunE:  runReconcile,
}

func init() {
	addServeFlags(serveCmd.Flags())
	templateCmd.Flags().String("format", "csv", "template format (csv or json)")
	validateBulkCmd.Flags().String("provider", "steadfast", "bulk provider (steadfast or pathao)")
	reconcileCmd.Flags().String("company", "", "company id")
	_ = reconcileCmd.MarkFlagRequired("company")

	rootCmd.AddCommand(serveCmd, templateCmd, validateBulkCmd, reconcileCmd)
}

func addServeFlags(fs *pflag.FlagSet) {
	fs.Int("port", 0, "listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}

	// Initialize telemetry
	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	logger.Info("Starting Courier Bridge",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Strings("carriers", a.registry.Names()),
	)

	// Start HTTP server
	srv := server.New(server.Config{Port: cfg.Port}, a.resolver(), a.promRegistry, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runTemplate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("format")
	format, err := bulk.ParseFormat(name)
	if err != nil {
		return err
	}
	data, err := bulk.Template(args[0], format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runValidateBulk(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	provider, _ := cmd.Flags().GetString("provider")
	var count int
	switch provider {
	case "steadfast":
		list, perr := bulk.ParseSteadfast(data)
		count, err = len(list), perr
	case "pathao":
		list, perr := bulk.ParsePathao(data)
		count, err = len(list), perr
	default:
		return fmt.Errorf("%w: provider %q", bulk.ErrUnsupported, provider)
	}

	var verrs courier.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", fe.Field, fe.Message)
		}
		return fmt.Errorf("%d invalid field(s)", len(verrs))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d order(s) valid\n", count)
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	companyID, _ := cmd.Flags().GetString("company")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	report, err := a.dispatcher.Reconcile(ctx, companyID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
