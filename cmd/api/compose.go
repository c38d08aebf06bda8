package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"aegis-backend/internal/advice"
	"aegis-backend/internal/followup"
	"aegis-backend/internal/llm"
)

type composeOptions struct {
	dashboardPath string
	prompt        string
	showPrompt    bool
}

func composeCmd() *cobra.Command {
	var opts composeOptions
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose follow-up advice offline from a dashboard JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.dashboardPath, "dashboard", "", "Path to a request body or bare dashboard JSON file")
	cmd.Flags().StringVar(&opts.prompt, "prompt", "", "Follow-up question (overrides update_prompt in the file)")
	cmd.Flags().BoolVar(&opts.showPrompt, "show-prompt", false, "Print the model prompt to stderr")
	_ = cmd.MarkFlagRequired("dashboard")
	return cmd
}

func runCompose(ctx context.Context, opts composeOptions, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	raw, err := os.ReadFile(opts.dashboardPath)
	if err != nil {
		return fmt.Errorf("read dashboard: %w", err)
	}
	body, err := composeBody(raw, opts.prompt)
	if err != nil {
		return err
	}

	state, query, err := followup.DecodeBody(body)
	if err != nil {
		return err
	}

	composer := advice.NewRuleComposer()
	res, err := composer.Compose(ctx, advice.Input{
		Goal:  state.InitialUserQuery,
		State: state,
		Query: query,
	})
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	if opts.showPrompt {
		prompt := llm.BuildFollowUpPrompt(llm.FollowUpInput{
			InitialUserQuery: state.InitialUserQuery,
			FollowUpQuery:    query,
			DashboardJSON:    state.Raw,
			PromptVersion:    composer.PromptVersion,
		})
		fmt.Fprintf(stderr, "%s\n--- prompt %s rules %s\n", prompt, res.PromptHash, strings.Join(res.Rules, ","))
	}
	_, err = fmt.Fprintln(stdout, res.Markdown)
	return err
}

// composeBody accepts either a full request body or a bare dashboard object
// and returns a request body with the prompt override applied.
func composeBody(raw []byte, prompt string) ([]byte, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, errors.New("dashboard file must contain a JSON object")
	}
	if _, ok := top[followup.FieldDashboard]; !ok {
		top = map[string]json.RawMessage{followup.FieldDashboard: json.RawMessage(raw)}
	}
	if prompt != "" {
		encoded, err := json.Marshal(prompt)
		if err != nil {
			return nil, err
		}
		top[followup.FieldUpdatePrompt] = encoded
	}
	return json.Marshal(top)
}
