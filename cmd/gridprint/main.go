package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/soderasen-au/go-common/loggers"
	"github.com/soderasen-au/go-common/util"
	"github.com/spf13/cobra"

	"github.com/soderasen-au/go-gridprint/delivery"
	"github.com/soderasen-au/go-gridprint/report"
)

var version = "dev"

var (
	format       string
	outputFolder string
	logFolder    string
	auditFile    string
	parallel     int
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "gridprint",
		Short:         "Print data grids as paginated reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&outputFolder, "output", "o", "", "Output folder (overrides the report file)")
	rootCmd.PersistentFlags().StringVar(&logFolder, "log-folder", "", "Folder of the per report log files")
	rootCmd.PersistentFlags().StringVar(&auditFile, "audit", "", "CSV file every printed report is appended to")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to the console instead of log files")

	printCmd := &cobra.Command{
		Use:   "print [report.yaml]",
		Short: "Print the reports of a file",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	printCmd.Flags().StringVarP(&format, "format", "f", "", "Output format: pdf, png, xlsx, json (overrides the report file)")
	printCmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "Number of reports printed at the same time")

	previewCmd := &cobra.Command{
		Use:   "preview [report.yaml]",
		Short: "Render the reports of a file as PNG pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = string(report.REPORT_FORMAT_PNG)
			return run(cmd, args)
		},
	}
	previewCmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "Number of reports printed at the same time")

	rootCmd.AddCommand(printCmd, previewCmd, tokenCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	reports, res := report.LoadReports(args[0])
	if res != nil {
		return res
	}
	if format != "" {
		f := report.ReportFormat(format)
		if !f.IsValid() {
			return fmt.Errorf("invalid format: %s (must be pdf, png, xlsx or json)", format)
		}
		for i := range reports {
			reports[i].OutputFormat = util.Ptr(f)
		}
	}
	for i := range reports {
		if outputFolder != "" {
			reports[i].OutputFolder = util.Ptr(outputFolder)
		}
		if logFolder != "" {
			reports[i].LogFolder = util.Ptr(logFolder)
		}
		if verbose {
			reports[i].Logger = loggers.CoreDebugLogger
		}
	}
	for _, folder := range []string{outputFolder, logFolder} {
		if folder == "" {
			continue
		}
		if err := os.MkdirAll(folder, 0755); err != nil {
			return fmt.Errorf("failed to create folder %s: %w", folder, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := loggers.NullLogger
	if verbose {
		logger = loggers.CoreDebugLogger
	}
	printer := report.NewBuiltInReportPrinter()
	if auditFile != "" {
		audit, res := report.NewAuditLog(auditFile)
		if res != nil {
			return res
		}
		defer audit.Close()
		printer.Audit = audit
	}
	failures := report.PrintAll(ctx, printer, reports, parallel, logger)

	for i, r := range reports {
		if res, failed := failures[i]; failed {
			fmt.Fprintf(os.Stderr, "%s: FAILED %v\n", util.MaybeNil(r.ID), res)
			continue
		}
		rr, res := printer.GetReportResult(util.MaybeNil(r.ID))
		if res != nil {
			continue
		}
		fmt.Printf("%s: %s (%d pages, %d rows)\n", rr.ID, util.MaybeNil(rr.ReportFile), rr.Pages, rr.PrintedRows)
		if len(rr.ClippedColumns) > 0 {
			fmt.Printf("  clipped columns: %v\n", rr.ClippedColumns)
		}
		if rr.UploadLocation != "" {
			fmt.Printf("  uploaded to %s\n", rr.UploadLocation)
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d reports failed", len(failures), len(reports))
	}
	return nil
}

// tokenCmd issues and checks the bearer tokens sent along with uploads.
func tokenCmd() *cobra.Command {
	var (
		keyFile string
		keyID   string
		issuer  string
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Encode or decode upload tokens",
	}
	cmd.PersistentFlags().StringVarP(&keyFile, "key", "k", "", "RSA private key (PEM)")
	_ = cmd.MarkPersistentFlagRequired("key")

	enc := &cobra.Command{
		Use:   "enc [report-id]",
		Short: "Encode an upload token for a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, res := delivery.LoadPrivateKey(keyFile)
			if res != nil {
				return res
			}
			claims := delivery.NewUploadClaims(keyID, issuer, subject, args[0], ttl)
			token, res := claims.Sign(key)
			if res != nil {
				return res
			}
			fmt.Printf("\nPayload:\n%s\n\nJWT:\nBearer %s\n\n", util.Jsonify(claims), token)
			return nil
		},
	}
	enc.Flags().StringVar(&keyID, "kid", "", "Key id put in the token header")
	enc.Flags().StringVar(&issuer, "issuer", "gridprint", "Token issuer")
	enc.Flags().StringVar(&subject, "subject", "", "Token subject")
	enc.Flags().DurationVar(&ttl, "ttl", delivery.DefaultTokenTTL, "Token lifetime")

	dec := &cobra.Command{
		Use:   "dec [jwt]",
		Short: "Decode and verify an upload token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, res := delivery.LoadPrivateKey(keyFile)
			if res != nil {
				return res
			}
			claims, res := delivery.ParseToken(args[0], &key.PublicKey)
			if res != nil {
				return res
			}
			fmt.Printf("\nPayload:\n%s\n\n", util.Jsonify(claims))
			return nil
		},
	}

	cmd.AddCommand(enc, dec)
	return cmd
}
