package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/itinera/internal/intake"
	"github.com/ppiankov/itinera/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	manifestPath   string
	vendorHint     string
	bookingType    string
	feeAmount      string
	callbackURL    string
	processTimeout time.Duration
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Process one booking from documents or a manifest",
	Long: `Process runs one booking request through normalization, classification,
enrichment and per-category extraction, then delivers the payload.

Documents may be PDF, email (.eml), text or markdown files, or zip archives of them.
The payload is printed to stdout unless an output directory is configured, and it
is also POSTed to the callback URL when one is given.

Example:
  itinera process invoice.pdf confirmation.eml
  itinera process bundle.zip --vendor "Air Canada" --fee 75
  itinera process --manifest booking.yaml --output-dir ./out`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "YAML manifest describing the request")
	processCmd.Flags().StringVar(&vendorHint, "vendor", "", "vendor hint")
	processCmd.Flags().StringVar(&bookingType, "type", "", "booking type hint, e.g. flight,hotel")
	processCmd.Flags().StringVar(&feeAmount, "fee", "", "agency planning fee; adds the service fee sections")
	processCmd.Flags().StringVar(&callbackURL, "callback", "", "POST the payload to this URL")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 15*time.Minute, "overall request timeout")
	addPipelineFlags(processCmd)
}

// addPipelineFlags binds the flags process and batch share to their config keys
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "text-understanding provider (anthropic, openai, ollama)")
	cmd.Flags().String("model", "", "provider model name")
	cmd.Flags().Duration("pacing", 0, "delay between classification and extraction (0 disables)")
	cmd.Flags().String("output-dir", "", "write payloads to this directory instead of stdout")
	cmd.Flags().String("rules", "", "rules file replacing the built-in one")

	// Only changed flags are bound, so unset flags never mask file or env values.
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		for flag, key := range map[string]string{
			"provider":   "llm.provider",
			"model":      "llm.model",
			"pacing":     "pipeline.pacing_delay",
			"output-dir": "delivery.output_dir",
			"rules":      "rules.file",
		} {
			if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
				_ = viper.BindPFlag(key, f)
			}
		}
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
	m, err := processManifest(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := newRuntime(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), processTimeout)
	defer cancel()

	report, err := rt.run(ctx, m)
	if report != nil {
		printSummary(report)
	}
	return err
}

// processManifest builds the manifest from --manifest or file arguments and applies flag overrides
func processManifest(args []string) (*intake.Manifest, error) {
	var m *intake.Manifest
	switch {
	case manifestPath != "" && len(args) > 0:
		return nil, errors.New("give either --manifest or document files, not both")
	case manifestPath != "":
		loaded, err := intake.LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		m = loaded
	case len(args) > 0:
		m = intake.Files(args)
	default:
		return nil, errors.New("no documents: pass files or --manifest")
	}

	if vendorHint != "" {
		m.Vendor = vendorHint
	}
	if bookingType != "" {
		m.BookingType = bookingType
	}
	if feeAmount != "" {
		m.Fee = feeAmount
	}
	if callbackURL != "" {
		m.Callback = callbackURL
	}
	if _, err := m.FeeAmount(); err != nil {
		return nil, err
	}
	return m, nil
}

func printSummary(r *pipeline.Report) {
	cats := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		cats[i] = string(c)
	}
	fmt.Fprintf(os.Stderr, "%s  %s  traveller=%q vendor=%q categories=[%s] sections=%d failed=%d\n",
		r.RequestID, r.Payload.Status, r.TravellerName, r.VendorName,
		strings.Join(cats, ","), len(r.Payload.Sections), len(r.Outcome.Failures))
}
