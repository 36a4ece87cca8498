package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"selq/internal/mapdoc"
	"selq/internal/selq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	settings := initTelemetry()
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		if settings != nil && settings.TelemetryEnabled && !errors.Is(err, context.Canceled) {
			CaptureError(err)
			FlushAndShutdown()
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "selq [view] [field] [apply]",
	Short: "selq builds a definition query from the selected records of a view",
	Long: `selq reads the selected records of a layer or table view, builds an
IN clause over one of their fields and, when apply is "true", sets it as the
definition query of every layer and table view with the same name.

Examples:
  selq Parcels Code
  selq Parcels ID true
  selq -f city.yaml Owners OwnerName true --distinct`,
	Args:          cobra.RangeArgs(2, 3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSelq,
}

var (
	documentPath string
	distinct     bool
	dryRun       bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&documentPath, "document", "f", "", "Document file (default $SELQ_DOCUMENT, then ./selq.yaml)")
	rootCmd.Flags().BoolVar(&distinct, "distinct", false, "Drop repeated values")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build and validate but do not write the document")

	rootCmd.AddCommand(viewsCmd, fieldsCmd, selectCmd, checkCmd, pickCmd)
}

// resolveDocumentPath picks the document from the flag, the environment, the
// user settings, then the working directory.
func resolveDocumentPath() string {
	if documentPath != "" {
		return documentPath
	}
	if env := os.Getenv("SELQ_DOCUMENT"); env != "" {
		return env
	}
	if settings, err := LoadSettings(); err == nil && settings.DefaultDocument != "" {
		return settings.DefaultDocument
	}
	return "selq.yaml"
}

func openSession(msg selq.Messenger) (*selq.Session, error) {
	path := resolveDocumentPath()
	doc, err := mapdoc.Load(path)
	if err != nil {
		return nil, err
	}
	breadcrumbs.RecordDocument("load", path)

	s := selq.NewSession(doc, msg)
	s.Refresh = func(kind mapdoc.ViewKind, v *mapdoc.View) {
		debugLog("refresh %s %s\n", kind, v.Name)
		breadcrumbs.RecordStep("refresh", kind.String()+" "+v.Name)
	}
	return s, nil
}

func runSelq(cmd *cobra.Command, args []string) error {
	params := selq.Params{
		View:     args[0],
		Field:    args[1],
		Distinct: distinct,
	}
	if len(args) == 3 {
		params.Apply = args[2]
	}

	s, err := openSession(newConsole(cmd.OutOrStdout(), cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer s.Close()

	breadcrumbs.RecordStep("run", params.View+"."+params.Field)
	res, err := s.Run(cmd.Context(), params)
	if err != nil {
		return err
	}

	if res.Matched == 0 || dryRun {
		return nil
	}
	if err := s.Doc.Save(); err != nil {
		return fmt.Errorf("definition query applied but not saved: %w", err)
	}
	breadcrumbs.RecordDocument("save", s.Doc.Path())
	return nil
}

// initTelemetry loads the user settings and starts Sentry when the user opted in.
// Settings problems never stop a run.
func initTelemetry() *Settings {
	InitBreadcrumbs(100)

	settings, err := LoadSettings()
	if err != nil {
		debugLog("settings: %v\n", err)
		return nil
	}
	if !settings.FirstRunComplete {
		settings.FirstRunComplete = true
		if err := SaveSettings(settings); err != nil {
			debugLog("settings: %v\n", err)
		}
	}
	if settings.TelemetryEnabled && settings.SentryDSN != "" {
		if err := InitSentry(settings.SentryDSN); err != nil {
			debugLog("%v\n", err)
			settings.TelemetryEnabled = false
		}
	}
	return settings
}
