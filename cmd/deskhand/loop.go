package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskhand/deskhand/pkg/assistant"
	"github.com/deskhand/deskhand/pkg/loop"
	"github.com/deskhand/deskhand/pkg/vault"
)

var (
	loopMaxIterations int
	loopStrategy      string
	loopTaskFile      string
)

var loopCmd = &cobra.Command{
	Use:   "loop <task prompt>",
	Short: "Run a multi-step assistant task until it declares completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		v := vault.New(cfg.VaultPath)
		if err := v.EnsureLayout(); err != nil {
			return fmt.Errorf("prepare vault: %w", err)
		}
		d := loop.New(v, assistant.NewCLI(cfg.AssistantCommand, cfg.AssistantModel))
		d.MaxIterations = loopMaxIterations
		d.Strategy = loop.Strategy(loopStrategy)
		d.TaskFile = loopTaskFile

		result, err := d.Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("completed=%t iterations=%d strategy=%s\n",
			result.Completed, result.Iterations, result.Strategy)
		return nil
	},
}

func init() {
	loopCmd.Flags().IntVar(&loopMaxIterations, "max-iterations", 5, "iteration budget")
	loopCmd.Flags().StringVar(&loopStrategy, "strategy", string(loop.StrategyPromiseTag),
		"completion strategy: promise_tag or file_movement")
	loopCmd.Flags().StringVar(&loopTaskFile, "task-file", "", "file watched for Done/ arrival (file_movement)")
}
