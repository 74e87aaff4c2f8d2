package cli

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimrank/internal/store"
)

var (
	seedOut   string
	seedValue uint64
	seedOpts  = store.DefaultSeedOptions()
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a synthetic snapshot",
	Long: `Seed writes a random but valid snapshot for load testing and demos.
The same --seed always produces the same snapshot.

Example:
  claimrank seed --out synthetic.yaml
  claimrank seed --out big.yaml --claims 10000 --relations 40000 --seed 7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedOut == "" {
			return fmt.Errorf("--out is required")
		}

		r := rand.New(rand.NewPCG(seedValue, seedValue))
		snap := store.Generate(r, seedOpts)
		if err := snap.Validate(); err != nil {
			return fmt.Errorf("generated snapshot: %w", err)
		}

		data, err := snap.Marshal()
		if err != nil {
			return err
		}
		if err := os.WriteFile(seedOut, data, 0644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Seeded %d decisions, %d options, %d documents, %d claims, %d relations, %d links: %s\n",
			len(snap.Decisions), len(snap.Options), len(snap.Documents),
			len(snap.Claims), len(snap.Relations), len(snap.Links), seedOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&seedOut, "out", "o", "", "output snapshot path (required)")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 42, "random seed")
	seedCmd.Flags().IntVar(&seedOpts.Decisions, "decisions", seedOpts.Decisions, "number of decisions")
	seedCmd.Flags().IntVar(&seedOpts.OptionsPerDecision, "options", seedOpts.OptionsPerDecision, "options per decision")
	seedCmd.Flags().IntVar(&seedOpts.Documents, "documents", seedOpts.Documents, "number of documents")
	seedCmd.Flags().IntVar(&seedOpts.Claims, "claims", seedOpts.Claims, "number of claims")
	seedCmd.Flags().IntVar(&seedOpts.Relations, "relations", seedOpts.Relations, "relation attempts (self-loops and duplicates are skipped)")
	seedCmd.Flags().IntVar(&seedOpts.Clusters, "clusters", seedOpts.Clusters, "claim clusters options link to")
	seedCmd.Flags().IntVar(&seedOpts.ClusterSize, "cluster-size", seedOpts.ClusterSize, "claims per cluster")
}
