// Package main provides the CLI entry point for the TNS e-messaging
// pipeline: extract billing records, fill message templates, send them
// through the gateway and reconcile delivery status.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tnswater/emessaging/pkg/emessaging"
	"github.com/tnswater/emessaging/pkg/emessaging/compose"
	"github.com/tnswater/emessaging/pkg/emessaging/delivery"
	"github.com/tnswater/emessaging/pkg/emessaging/dispatch"
	"github.com/tnswater/emessaging/pkg/emessaging/gateway"
	"github.com/tnswater/emessaging/pkg/emessaging/models"
	"github.com/tnswater/emessaging/pkg/emessaging/render"
	"github.com/tnswater/emessaging/pkg/emessaging/store"
)

const dateFlagLayout = "2006-01-02"

var (
	logger *zap.Logger

	sourcePath string
	sheetName  string
	dateFlag   string
	fileName   string
	limit      int
	tolerant   bool
	summary    bool
)

func main() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	rootCmd := &cobra.Command{
		Use:   "emessaging",
		Short: "Extract water-billing records and message customers",
		Long: `emessaging extracts customer billing records from the billing
workbook, renders them into SMS notifications and tracks delivery
through the TextBee gateway.`,
		SilenceUsage: true,
	}

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract billing boxes from the workbook into the billing log",
		RunE:  runExtract,
	}
	extractCmd.Flags().StringVar(&sourcePath, "source", "", "Source workbook path (default: configured path)")
	extractCmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet name (default: active sheet)")
	extractCmd.Flags().StringVar(&dateFlag, "date", "", "Reading date as YYYY-MM-DD (default: today)")

	fillCmd := &cobra.Command{
		Use:   "fill",
		Short: "Compose pending messages from a billing log",
		RunE:  runFill,
	}
	fillCmd.Flags().StringVar(&fileName, "filename", "", "Billing log name without extension, e.g. \"Jan, 2026\"")
	fillCmd.Flags().StringVar(&dateFlag, "date", "", "Billing date as YYYY-MM-DD (default: today)")
	fillCmd.MarkFlagRequired("filename")

	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send pending messages through the gateway",
		RunE:  runSend,
	}
	sendCmd.Flags().IntVar(&limit, "limit", 0, "Maximum messages to send this batch")
	sendCmd.Flags().BoolVar(&tolerant, "tolerant", false, "Skip failed sends instead of aborting the batch")

	deliveryCmd := &cobra.Command{
		Use:   "delivery",
		Short: "Reconcile delivery status for every sent message",
		RunE:  runDelivery,
	}

	displayCmd := &cobra.Command{
		Use:   "display",
		Short: "Display a billing log as a table or summary",
		RunE:  runDisplay,
	}
	displayCmd.Flags().StringVar(&fileName, "filename", "", "Billing log name without extension")
	displayCmd.Flags().BoolVar(&summary, "summary", false, "Show the aggregated summary instead of all rows")
	displayCmd.MarkFlagRequired("filename")

	rootCmd.AddCommand(extractCmd, fillCmd, sendCmd, deliveryCmd, displayCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func parseDateFlag() (time.Time, error) {
	if dateFlag == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(dateFlagLayout, dateFlag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (want YYYY-MM-DD): %w", dateFlag, err)
	}
	return t, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := emessaging.LoadFromEnv()
	if sourcePath != "" {
		cfg.SourcePath = sourcePath
	}
	if sheetName != "" {
		cfg.SheetName = sheetName
	}
	if err := cfg.RequireOwner(); err != nil {
		return err
	}

	readingDate, err := parseDateFlag()
	if err != nil {
		return err
	}

	result, err := emessaging.RunExtraction(cfg, readingDate)
	if err != nil {
		return err
	}

	logger.Info("extraction complete",
		zap.String("period", result.PeriodLabel),
		zap.Int("found", result.Found),
		zap.Int("billable", result.Billable),
		zap.Int("appended", result.Appended))

	if result.Appended == 0 {
		fmt.Println("No new data.")
	} else {
		fmt.Printf("%s updated: %d new rows.\n", result.PeriodLabel, result.Appended)
	}
	return nil
}

func runFill(cmd *cobra.Command, args []string) error {
	cfg := emessaging.LoadFromEnv()
	if err := cfg.RequireComposer(); err != nil {
		return err
	}

	billingDate, err := parseDateFlag()
	if err != nil {
		return err
	}

	pending := store.NewJSON[models.PendingMessage](cfg.PendingStorePath())
	if err := pending.EnsureCreated(); err != nil {
		return err
	}
	sent := store.NewJSON[models.SentRecord](cfg.SentStorePath())
	if err := sent.EnsureCreated(); err != nil {
		return err
	}

	composer := &compose.Composer{
		TemplatesDir: cfg.TemplatesDir,
		Payment: compose.Payment{
			AzamPesa:     cfg.AzamPesa,
			LipaNamba:    cfg.LipaNamba,
			TigoPesa:     cfg.TigoPesa,
			ReceiverName: cfg.ReceiverName,
		},
		Pending: pending,
		Sent:    sent,
	}

	queued, err := composer.Fill(billingDate, cfg.BillingLogPath(fileName), cfg.FailedListPath())
	if err != nil {
		return err
	}

	logger.Info("pending store updated", zap.Int("queued", queued))
	fmt.Printf("Queued %d messages.\n", queued)
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg := emessaging.LoadFromEnv()
	if err := cfg.RequireGateway(); err != nil {
		return err
	}

	pending := store.NewJSON[models.PendingMessage](cfg.PendingStorePath())
	if err := pending.EnsureCreated(); err != nil {
		return err
	}
	sent := store.NewJSON[models.SentRecord](cfg.SentStorePath())
	if err := sent.EnsureCreated(); err != nil {
		return err
	}

	client := gateway.NewClient(cfg.BaseURL, cfg.APIKey, cfg.DeviceID)
	d := dispatch.New(pending, sent, client, logger)
	d.Tolerant = tolerant

	count, err := d.Run(cmd.Context(), limit)
	if err != nil {
		return err
	}
	fmt.Printf("Sent %d messages.\n", count)
	return nil
}

func runDelivery(cmd *cobra.Command, args []string) error {
	cfg := emessaging.LoadFromEnv()
	if err := cfg.RequireGateway(); err != nil {
		return err
	}

	sent := store.NewJSON[models.SentRecord](cfg.SentStorePath())
	deliveryStore := store.NewJSON[models.DeliveryRecord](cfg.DeliveryStorePath())
	client := gateway.NewClient(cfg.BaseURL, cfg.APIKey, cfg.DeviceID)

	r := delivery.New(sent, deliveryStore, client, cfg.FailedListPath(), logger)
	report, err := r.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(report.Render())
	return nil
}

func runDisplay(cmd *cobra.Command, args []string) error {
	cfg := emessaging.LoadFromEnv()
	logPath := cfg.BillingLogPath(fileName)

	if summary {
		s, err := emessaging.SummarizeLog(logPath)
		if err != nil {
			return err
		}
		fmt.Println(render.Table([]string{"Details", "Amount"}, s.Rows()))
		return nil
	}

	rows, err := store.CSVRows(logPath)
	if err != nil {
		return err
	}
	fmt.Println(render.Table(models.Header(), rows))
	return nil
}
