package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/talentmatch/internal/usecase/contrastive"
)

var (
	lossFile        string
	lossTemperature float64
	lossWorkers     int
)

var lossCmd = &cobra.Command{
	Use:   "loss",
	Short: "Compute contrastive losses for embedding batches",
	Long: `Compute the InfoNCE loss for each batch in a JSON file of the form

  {"batches": [{"queries": [[...]], "keys": [[...]], "positives": {"0": 1}}]}

Queries and keys must pair up one to one. Positives are optional; without them
query i matches key i. Use "-" to read stdin.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLoss(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	lossCmd.Flags().StringVarP(&lossFile, "file", "f", "-", "batch file, - for stdin")
	lossCmd.Flags().Float64VarP(&lossTemperature, "temperature", "t", contrastive.DefaultTemperature, "softmax temperature")
	lossCmd.Flags().IntVarP(&lossWorkers, "workers", "w", contrastive.DefaultWorkers, "parallel batches")
}

type lossInput struct {
	Batches []contrastive.Batch `json:"batches"`
}

type lossOutput struct {
	Losses []float64 `json:"losses"`
	Mean   float64   `json:"mean"`
}

func runLoss(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	r := stdin
	if lossFile != "-" {
		f, err := os.Open(filepath.Clean(lossFile))
		if err != nil {
			return fmt.Errorf("open batch file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var in lossInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return fmt.Errorf("decode batches: %w", err)
	}
	if len(in.Batches) == 0 {
		return errors.New("no batches in input")
	}

	engine, err := contrastive.New(lossTemperature)
	if err != nil {
		return err
	}

	report, err := contrastive.NewEvaluator(engine, lossWorkers).Run(ctx, in.Batches)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(lossOutput{Losses: report.Losses, Mean: report.Mean})
}
