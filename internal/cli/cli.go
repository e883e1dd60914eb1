package cli

import (
	"context"
	"database/sql"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chatTracker/internal/tracker"
)

// GoTestFunc runs `go test` with args, streaming output to out.
type GoTestFunc func(ctx context.Context, args []string, out io.Writer) error

// App holds what the commands share: the open database and the service on top of it.
type App struct {
	db     *sql.DB
	svc    *tracker.Service
	log    zerolog.Logger
	goTest GoTestFunc
}

func NewApp(d *sql.DB, log zerolog.Logger) *App {
	return &App{db: d, svc: tracker.NewService(d), log: log, goTest: runGoTest}
}

// WithGoTest replaces the runner used by `test user`.
func (a *App) WithGoTest(fn GoTestFunc) *App {
	a.goTest = fn
	return a
}

// Command builds the chatctl command tree.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatctl",
		Short:         "Manage the chat tracker database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(os.Stdout)
	root.AddCommand(
		a.initCmd(),
		a.userCmd(),
		a.testCmd(),
		a.toggleChatCmd(),
		a.addCategoryCmd(),
		a.listChatsCmd(),
	)
	return root
}

func runGoTest(ctx context.Context, args []string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, "go", append([]string{"test"}, args...)...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Env = os.Environ()
	return cmd.Run()
}
