package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leofalp/agentgraph/simulate"
	"github.com/leofalp/agentgraph/strategy"
	"github.com/leofalp/agentgraph/synth"
	"github.com/leofalp/agentgraph/testengine"
)

func newValidateCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <agent-file>",
		Short: "Check an agent graph for structural and data-flow errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAgent(args[0])
			if err != nil {
				return err
			}
			result := get().offlineEngine().ValidateRealTime(a)
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.IsValid {
				return fmt.Errorf("agent %s is invalid: %s", a.ID, result.Errors[0].Message)
			}
			return nil
		},
	}
}

func newStrategyCmd(_ func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "strategy <agent-file>",
		Short: "Print the derived test strategy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAgent(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), strategy.DetectAgentType(a))
		},
	}
}

func newSimulateCmd(get func() *app) *cobra.Command {
	var dataPath string
	cmd := &cobra.Command{
		Use:   "simulate <agent-file>",
		Short: "Dry-run an agent without calling any provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAgent(args[0])
			if err != nil {
				return err
			}
			validation := get().offlineEngine().ValidateRealTime(a)
			if !validation.IsValid {
				return fmt.Errorf("agent %s is invalid: %s", a.ID, validation.Errors[0].Message)
			}

			data, err := readData(dataPath)
			if err != nil {
				return err
			}
			if data == nil {
				data = synth.ForAgent(a)
			}

			output, err := simulate.Simulate(cmd.Context(), a, data, validation.Strategy)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), output)
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "JSON or YAML test data (synthesized when omitted)")
	return cmd
}

func newTestCmd(get func() *app) *cobra.Command {
	var dataPath string
	cmd := &cobra.Command{
		Use:   "test <agent-file>",
		Short: "Run the full test pipeline and record the execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAgent(args[0])
			if err != nil {
				return err
			}
			data, err := readData(dataPath)
			if err != nil {
				return err
			}
			engine, err := get().engine()
			if err != nil {
				return err
			}

			execution, err := engine.TestAgent(cmd.Context(), a, data)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), execution); err != nil {
				return err
			}
			if execution.Status != testengine.StatusCompleted {
				return fmt.Errorf("test %s finished with status %s", execution.ID, execution.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "JSON or YAML test data (synthesized when omitted)")
	return cmd
}

func newRunCmd(get func() *app) *cobra.Command {
	var inputPath string
	var user string
	cmd := &cobra.Command{
		Use:   "run <agent-file>",
		Short: "Execute an agent against the configured AI providers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAgent(args[0])
			if err != nil {
				return err
			}
			input, err := readData(inputPath)
			if err != nil {
				return err
			}
			executor, err := get().executor(cmd.Context())
			if err != nil {
				return err
			}

			result, runErr := executor.Execute(withUser(cmd.Context(), user), a, input)
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if runErr != nil {
				return fmt.Errorf("%s", result.Error.UserMessage)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "JSON or YAML input payload")
	cmd.Flags().StringVar(&user, "user", "", "caller identity for rate limiting")
	return cmd
}
