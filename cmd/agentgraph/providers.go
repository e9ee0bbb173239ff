package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/agentgraph/cache"
	"github.com/leofalp/agentgraph/orchestrator"
	"github.com/leofalp/agentgraph/providers/ai"
	"github.com/leofalp/agentgraph/store"
)

func withUser(ctx context.Context, user string) context.Context {
	if user == "" {
		return ctx
	}
	return cache.WithUser(ctx, user)
}

func newCompleteCmd(get func() *app) *cobra.Command {
	var (
		provider   string
		model      string
		system     string
		user       string
		temp       float32
		maxTokens  int
		noFallback bool
		stream     bool
	)
	cmd := &cobra.Command{
		Use:   "complete <prompt>",
		Short: "Send one prompt through the provider fallback chain",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var preferred ai.ProviderID
			if provider != "" {
				id, ok := ai.ParseProviderID(provider)
				if !ok {
					return fmt.Errorf("unknown provider %q", provider)
				}
				preferred = id
			}

			orch, err := get().orchestrator(cmd.Context())
			if err != nil {
				return err
			}

			opts := orchestrator.Options{
				Temperature:     temp,
				MaxTokens:       maxTokens,
				SystemPrompt:    system,
				DisableFallback: noFallback,
			}
			prompt := strings.Join(args, " ")
			ctx := withUser(cmd.Context(), user)

			if stream {
				opts.OnChunk = func(chunk string) { fmt.Fprint(cmd.OutOrStdout(), chunk) }
				response, err := orch.GenerateStreamCompletion(ctx, preferred, prompt, model, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "\n[%s/%s, %d tokens]\n", response.Provider, response.Model, response.TokensUsed)
				return nil
			}

			response, err := orch.GenerateCompletion(ctx, preferred, prompt, model, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), response)
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "preferred provider (openai, anthropic, google, huggingface)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name, mapped to a compatible one on fallback")
	cmd.Flags().StringVar(&system, "system", "", "system prompt")
	cmd.Flags().StringVar(&user, "user", "", "caller identity for rate limiting")
	cmd.Flags().Float32Var(&temp, "temperature", 0, "sampling temperature")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "maximum tokens in the answer")
	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "fail instead of trying other providers")
	cmd.Flags().BoolVar(&stream, "stream", false, "print the answer as it arrives")
	return cmd
}

func newProvidersCmd(get func() *app) *cobra.Command {
	var ping bool
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List providers in fallback order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			orch, err := get().orchestrator(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tCONFIGURED\tDEFAULT MODEL\tREACHABLE")
			for _, id := range orch.FallbackOrder() {
				available := orch.IsAvailable(id)
				reachable := "-"
				if ping && available {
					reachable = fmt.Sprint(orch.TestProvider(cmd.Context(), id))
				}
				fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", id, available, orchestrator.DefaultModel(id), reachable)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&ping, "ping", false, "send a short test prompt to each configured provider")
	return cmd
}

func newHistoryCmd(get func() *app) *cobra.Command {
	var (
		agentID string
		kind    string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded test and run executions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, err := get().store()
			if err != nil {
				return err
			}
			records, err := history.List(cmd.Context(), store.Filter{AgentID: agentID, Kind: store.Kind(kind), Limit: limit})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tAGENT\tKIND\tSTATUS\tSTARTED\tDURATION")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.AgentID, r.Kind, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "only this agent")
	cmd.Flags().StringVar(&kind, "kind", "", "test or run")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records")
	return cmd
}
