package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sessionwatch/internal/config"
	"github.com/ppiankov/sessionwatch/internal/store"
)

var statsTail int

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsTail, "tail", 0, "Also print the N most recent records")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize stored records",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	stats, err := st.Summarize(ctx)
	if err != nil {
		return err
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(out))

	if statsTail > 0 {
		recent, err := st.Tail(ctx, statsTail)
		if err != nil {
			return err
		}
		for _, sr := range recent {
			line, _ := json.Marshal(sr)
			fmt.Println(string(line))
		}
	}
	return nil
}
