package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	convoflow "github.com/zapcampo/convoflow"
	"github.com/zapcampo/convoflow/internal/logging"
	"github.com/zapcampo/convoflow/internal/presentation/tui"
)

// RunOptions configures the interactive run command.
type RunOptions struct {
	FlowPath string
	Metadata string // Raw JSON string
	Debug    bool
}

// RunInteractive drives a conversation over stdin/stdout until the flow
// completes or the user quits.
func RunInteractive(opts RunOptions) error {
	flow, err := LoadFlow(opts.FlowPath)
	if err != nil {
		return err
	}

	var meta map[string]any
	if opts.Metadata != "" {
		if err := json.Unmarshal([]byte(opts.Metadata), &meta); err != nil {
			return fmt.Errorf("error parsing --metadata JSON: %w", err)
		}
	}

	logger := logging.NewNop()
	if opts.Debug {
		logger = logging.New(slog.LevelDebug)
	}

	eng := convoflow.NewFromDefinition(flow,
		convoflow.WithLogger(logger),
		convoflow.WithMetadata(meta),
	)

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	render := func(s string) string { return s }
	if interactive {
		tui.PrintBanner()
		render = tui.NewRenderer()
	}

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	state := eng.NewConversation()
	input := ""

	for {
		result, next, err := eng.ProcessTurn(ctx, input, state)
		if err != nil {
			return err
		}
		state = next

		if result.Response != "" {
			fmt.Print(render(result.Response))
			if !interactive {
				fmt.Println()
			}
		}
		for i, opt := range result.Choices {
			line := fmt.Sprintf("  %d) %s", i+1, opt.Text)
			if interactive {
				line = tui.ChoiceStyle(line)
			}
			fmt.Println(line)
		}

		if state.Completed() {
			return nil
		}

		prompt := "> "
		if interactive {
			prompt = tui.PromptStyle(prompt)
		}
		fmt.Print(prompt)

		text, err := reader.ReadString('\n')
		if err != nil {
			// EOF ends the conversation cleanly.
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(text)

		if input == "exit" || input == "quit" || input == "sair" {
			fmt.Println("Até logo!")
			return nil
		}

		// A bare number picks the matching option.
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(result.Choices) {
			input = result.Choices[n-1].Value
		}
	}
}

// PrintValidationReport writes a human-readable validation result and
// reports whether the flow passed without errors.
func PrintValidationReport(w *os.File, path string, errs, warns []string) bool {
	if len(errs) == 0 && len(warns) == 0 {
		fmt.Fprintf(w, "%s: flow is valid\n", path)
		return true
	}
	for _, e := range errs {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	for _, wmsg := range warns {
		fmt.Fprintf(w, "warning: %s\n", wmsg)
	}
	fmt.Fprintf(w, "%s: %d error(s), %d warning(s)\n", path, len(errs), len(warns))
	return len(errs) == 0
}
