package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/piratenetwork/zsign/internal/pkg/unlock"
	"github.com/piratenetwork/zsign/internal/pkg/zsign"
)

const (
	consoleWelcome = "Paste a z_sign_offline command. Use 'help' for the argument reference, 'clear' to reset and 'exit' to quit."
	consoleLocked  = "Locked after %s of inactivity."
)

type lineReader interface {
	Readline() (string, error)
	Close() error
}

// Console is the interactive sign loop. Every line counts as activity for
// the unlock timer.
type Console struct {
	signer  Signer
	reader  lineReader
	timer   *unlock.Timer
	timeout time.Duration

	closeOnce sync.Once

	mu      sync.Mutex
	out     io.Writer
	display zsign.Display
}

func NewConsole(signer Signer, reader lineReader, out io.Writer, timeout time.Duration) *Console {
	c := &Console{
		signer:  signer,
		reader:  reader,
		timeout: timeout,
		out:     out,
		display: zsign.Initial(),
	}
	c.timer = unlock.New(timeout, c.lock)

	return c
}

func (c *Console) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	loopCtx, stopTimer := context.WithCancel(gCtx)
	defer stopTimer()

	g.Go(func() error {
		c.timer.Run(loopCtx)
		return nil
	})

	// Readline only returns on input or Close, so cancellation closes it.
	g.Go(func() error {
		<-loopCtx.Done()
		c.closeReader()
		return nil
	})

	g.Go(func() error {
		defer stopTimer()

		c.printf("%s\n", consoleWelcome)
		for {
			line, err := c.reader.Readline()
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
					return nil
				}
				return err
			}

			if !c.Handle(loopCtx, line) {
				return nil
			}
		}
	})

	return g.Wait()
}

// Handle processes one console line and reports whether the loop goes on.
func (c *Console) Handle(ctx context.Context, line string) bool {
	c.timer.Reset()

	switch strings.TrimSpace(line) {
	case "":
		return true
	case "exit", "quit":
		return false
	case "help":
		c.printf("%s\n", zsign.Usage())
		return true
	case "clear":
		c.show(zsign.Initial())
		return true
	}

	outcome := c.signer.Sign(ctx, line)
	if outcome.Changed {
		c.show(outcome.Display)
	}
	if outcome.ID != "" {
		c.printf("Hand-off id: %s\n", outcome.ID)
	}

	return true
}

// Display is what the console shows right now.
func (c *Console) Display() zsign.Display {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.display
}

func (c *Console) show(display zsign.Display) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.display = display
	fmt.Fprintln(c.out, display.Heading)
	if display.Text != "" {
		fmt.Fprintln(c.out, strings.TrimRight(display.Text, "\n"))
	}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) lock() {
	c.printf(consoleLocked+"\n", c.timeout)
	c.closeReader()
}

func (c *Console) closeReader() {
	c.closeOnce.Do(func() {
		_ = c.reader.Close()
	})
}

func newConsoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Sign commands interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "zsign> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("could not start console: %w", err)
			}
			defer rl.Close()

			return NewConsole(a.signer, rl, rl.Stdout(), a.unlockTimeout).Run(cmd.Context())
		},
	}
}
