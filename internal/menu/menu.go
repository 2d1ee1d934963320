package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"wfm_order_visibility/internal/processing"
	"wfm_order_visibility/internal/syndicate"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var ErrInvalidVisibility = errors.New("invalid argument for visibility")

const (
	welcome = "Welcome to the Warframe Market order manager.\n" +
		"Input 'help' to get a list of your options."
	prompt       = "> "
	invalidInput = "Invalid input, try again."
)

// Store is the settings state the menu reads and changes.
type Store interface {
	UserName() string
	SetUserName(name string)
	SetAuthToken(token string)
	Visible(id syndicate.ID) bool
	SetVisible(id syndicate.ID, visible bool)
}

type Evaluator interface {
	UpdateAffectedOrders(ctx context.Context) (*processing.Result, error)
}

// PassHook is told about every successful update pass. Its errors are
// logged and never end the session.
type PassHook func(ctx context.Context, result *processing.Result) error

type CallCounter interface {
	GetAPICallCount() int64
	ResetAPICallCount()
}

type namedHook struct {
	name string
	fn   PassHook
}

type Option func(*Session)

// WithUnattended makes marketplace failures end Run with the error instead
// of returning to the prompt.
func WithUnattended(unattended bool) Option {
	return func(s *Session) { s.unattended = unattended }
}

func WithPassHook(name string, hook PassHook) Option {
	return func(s *Session) { s.hooks = append(s.hooks, namedHook{name: name, fn: hook}) }
}

func WithCallCounter(counter CallCounter) Option {
	return func(s *Session) { s.counter = counter }
}

// passError marks a failed update pass, the only failure that may end a session.
type passError struct{ err error }

func (e *passError) Error() string { return e.err.Error() }
func (e *passError) Unwrap() error { return e.err }

// Session is the interactive read-eval loop.
type Session struct {
	store      Store
	evaluator  Evaluator
	in         *bufio.Scanner
	out        io.Writer
	unattended bool
	hooks      []namedHook
	counter    CallCounter

	root     *cobra.Command
	commands map[string]bool
	done     bool
}

func NewSession(store Store, evaluator Evaluator, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		store:     store,
		evaluator: evaluator,
		in:        bufio.NewScanner(in),
		out:       out,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.root = s.buildCommands()
	return s
}

// Run prompts for commands until exit or end of input. It returns an error
// only for unreadable input or, in an unattended session, a failed update.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, welcome)
	for !s.done {
		fmt.Fprint(s.out, prompt)
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			log.Debug().Msg("End of input, leaving menu")
			return nil
		}
		if err := s.Execute(ctx, s.in.Text()); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs a single input line.
func (s *Session) Execute(ctx context.Context, line string) error {
	tokens := strings.Fields(line)
	if len(tokens) == 0 || !s.commands[tokens[0]] {
		fmt.Fprintln(s.out, invalidInput)
		return nil
	}

	// cobra keeps the first context a subcommand saw
	for _, cmd := range s.root.Commands() {
		cmd.SetContext(ctx)
	}
	s.root.SetArgs(tokens)
	err := s.root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}

	var pe *passError
	if errors.As(err, &pe) {
		fmt.Fprintf(s.out, "Update failed: %v\n", pe.err)
		if s.unattended {
			return pe.err
		}
		return nil
	}
	fmt.Fprintln(s.out, err)
	return nil
}

// Done reports whether exit was requested.
func (s *Session) Done() bool { return s.done }
