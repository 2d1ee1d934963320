package menu

import (
	"context"
	"fmt"
	"strings"

	"wfm_order_visibility/internal/syndicate"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (s *Session) buildCommands() *cobra.Command {
	root := &cobra.Command{
		Use:           "wfm",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetOut(s.out)
	root.SetErr(s.out)

	help := &cobra.Command{
		Use:   "help",
		Short: "prints this user options info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(s.out, helpText())
		},
	}
	root.SetHelpCommand(help)

	root.AddCommand(
		&cobra.Command{
			Use:   "syndicate <key> <visible|invisible>",
			Short: "sets new visibility status for syndicate",
			Args:  cobra.ExactArgs(2),
			Run: func(cmd *cobra.Command, args []string) {
				s.setSyndicateVisibility(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "update",
			Short: "updates status of orders on Warframe Market according to syndicate visibilities",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return s.updateSiteOrderStatus(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "prints current stored username and visibility setting for all syndicates",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				s.printStatus()
			},
		},
		&cobra.Command{
			Use:   "username <username>",
			Short: "set username of your Warframe Market profile so that it can be found by the application",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				s.store.SetUserName(args[0])
				log.Debug().Str("user_name", args[0]).Msg("User name changed")
			},
		},
		&cobra.Command{
			Use:   "jwt <jwt>",
			Short: "set the JSON Web Token that will be used for authenticated requests to Warframe Market",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				s.store.SetAuthToken(args[0])
				log.Debug().Msg("Auth token changed")
			},
		},
		&cobra.Command{
			Use:   "exit",
			Short: "close this program",
			Run: func(cmd *cobra.Command, args []string) {
				s.done = true
			},
		},
	)

	s.commands = map[string]bool{"help": true}
	for _, cmd := range root.Commands() {
		// tokens such as a JWT must never be read as flags
		cmd.DisableFlagParsing = true
		s.commands[cmd.Name()] = true
	}
	return root
}

func helpText() string {
	return "User options:\n" +
		"'help' - prints this user options info\n" +
		"'syndicate [" + strings.Join(syndicate.Keys(), "/") + "] [visible/invisible]' - sets new visibility status for syndicate\n" +
		"'update' - updates status of orders on Warframe Market according to syndicate visibilities\n" +
		"'status' - prints current stored username and visibility setting for all syndicates\n" +
		"'username <username>' - set username of your Warframe Market profile so that it can be found by the application\n" +
		"'jwt <jwt>' - set the JSON Web Token that will be used for authenticated requests to Warframe Market\n" +
		"'exit' - close this program"
}

// setSyndicateVisibility checks the visibility word before the key, so a
// line with both wrong only reports the visibility.
func (s *Session) setSyndicateVisibility(key, visibility string) {
	visible, err := parseVisibility(visibility)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected syndicate command")
		fmt.Fprintln(s.out, "Invalid argument for visibility")
		return
	}

	id, err := syndicate.ParseKey(key)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected syndicate command")
		fmt.Fprintln(s.out, "Invalid argument for Syndicate")
		return
	}

	s.store.SetVisible(id, visible)
	log.Debug().Str("syndicate", id.String()).Bool("visible", visible).Msg("Syndicate visibility changed")
}

func (s *Session) updateSiteOrderStatus(ctx context.Context) error {
	fmt.Fprintln(s.out, "Updating sell orders on Warframe Market.\nThis may take a couple minutes...")

	if s.counter != nil {
		s.counter.ResetAPICallCount()
	}

	result, err := s.evaluator.UpdateAffectedOrders(ctx)

	if s.counter != nil {
		log.Debug().Int64("api_calls", s.counter.GetAPICallCount()).Msg("API call summary for update pass")
	}

	if err != nil {
		if result != nil && result.Updated > 0 {
			fmt.Fprintf(s.out, "Updated %d orders before the failure.\n", result.Updated)
		}
		return &passError{err: err}
	}

	if result.Updated > 0 {
		fmt.Fprintf(s.out, "Updated %d orders.\n", result.Updated)
	} else {
		fmt.Fprintln(s.out, "No orders were updated.")
	}

	for _, hook := range s.hooks {
		if err := hook.fn(ctx, result); err != nil {
			log.Warn().Err(err).Str("hook", hook.name).Msg("Update pass hook failed")
		}
	}
	return nil
}

func (s *Session) printStatus() {
	var sb strings.Builder
	userName := s.store.UserName()
	if userName == "" {
		userName = "(not set)"
	}
	sb.WriteString("User name: " + userName + "\n")
	sb.WriteString("Current visibility status within program for all Syndicates:")
	for _, id := range syndicate.All() {
		sb.WriteString(fmt.Sprintf("\n%s: %s", id, visibilityWord(s.store.Visible(id))))
	}
	fmt.Fprintln(s.out, sb.String())
}

func parseVisibility(visibility string) (bool, error) {
	switch visibility {
	case "visible":
		return true, nil
	case "invisible":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidVisibility, visibility)
	}
}

func visibilityWord(visible bool) string {
	if visible {
		return "visible"
	}
	return "invisible"
}
