package cli

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ppiankov/itinera/internal/intake"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/worker"
	"github.com/spf13/cobra"
)

var (
	listFile     string
	queueWorkers int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Process every manifest in a directory through the request queue",
	Long: `Batch queues one request per manifest (*.yaml, *.yml) found in a directory,
or per path listed in a file, and processes them with a fixed number of queue workers.
Each request is acknowledged with an id as soon as it is queued.

Example:
  itinera batch ./inbox
  itinera batch --list manifests.txt --workers 4 --output-dir ./out`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&listFile, "list", "", "file listing manifest paths, one per line")
	batchCmd.Flags().IntVar(&queueWorkers, "workers", 0, "concurrent requests (default: pipeline.queue_workers)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for the batch")
	addPipelineFlags(batchCmd)
}

type batchOutcome struct {
	path   string
	status string
	err    error
}

func runBatch(cmd *cobra.Command, args []string) error {
	paths, err := batchManifests(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no manifests found")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Delivery.OutputDir == "" {
		cfg.Delivery.OutputDir = "./itinera-output"
	}
	rt, err := newRuntime(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	workers := queueWorkers
	if workers <= 0 {
		workers = cfg.Pipeline.QueueWorkers
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	var mu sync.Mutex
	outcomes := make(map[string]batchOutcome, len(paths))
	exec := worker.NewExecutor(ctx, workers, len(paths), func(ctx context.Context, ack string, path string) {
		out := batchOutcome{path: path, status: model.StatusError}
		m, err := intake.LoadManifest(path)
		if err == nil {
			if m.ID == "" {
				m.ID = ack
			}
			r, runErr := rt.run(ctx, m)
			if r != nil {
				out.status = r.Payload.Status
			}
			err = runErr
		}
		out.err = err

		mu.Lock()
		outcomes[ack] = out
		mu.Unlock()
	}, rt.logger)

	fmt.Fprintf(os.Stderr, "Queueing %d manifests with %d workers\n", len(paths), workers)
	acks := make([]string, 0, len(paths))
	for _, p := range paths {
		ack, err := exec.Submit(ctx, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", p, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  queued %s  %s\n", ack, p)
		acks = append(acks, ack)
	}
	exec.Close()

	success, failure := 0, 0
	for _, ack := range acks {
		out, ok := outcomes[ack]
		switch {
		case !ok:
			failure++
			fmt.Fprintf(os.Stderr, "✗ %s: not processed\n", ack)
		case out.err != nil:
			failure++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", out.path, out.err)
		case out.status != model.StatusSuccess:
			failure++
			fmt.Fprintf(os.Stderr, "✗ %s: %s payload\n", out.path, out.status)
		default:
			success++
			fmt.Fprintf(os.Stderr, "✓ %s\n", out.path)
		}
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d  Success: %d  Failures: %d  Output: %s\n",
		len(paths), success, failure, cfg.Delivery.OutputDir)
	return nil
}

func batchManifests(args []string) ([]string, error) {
	switch {
	case listFile != "" && len(args) > 0:
		return nil, fmt.Errorf("give either a directory or --list, not both")
	case listFile != "":
		return intake.ReadList(listFile)
	case len(args) == 1:
		return intake.Manifests(args[0])
	}
	return nil, fmt.Errorf("no input: pass a directory or --list")
}
