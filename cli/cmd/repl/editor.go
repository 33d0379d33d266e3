package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/loreleva/Bbo-functions/lang"
	"github.com/loreleva/Bbo-functions/log"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand]. It writes the session
// definitions to a temporary file, opens $EDITOR on it and replaces the
// definitions with the result. On error the user may edit again; declining
// returns [ErrEditDeclined].
type editCommand struct {
	session *Session
	ctxFunc func() context.Context
	logger  log.Logger
	edited  bool
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func (c *editCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp("", "bbo-repl-*.bbo")
	if err != nil {
		return err
	}

	path := f.Name()
	defer os.Remove(path)

	content := "# Variable definitions. Save an empty file to cancel.\n" + c.session.Source()

	_, err = f.WriteString(content)
	f.Close()

	if err != nil {
		return err
	}

	for {
		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		if strings.TrimSpace(string(data)) == "" {
			return nil
		}

		err = c.session.Replace(ctx, string(data))

		c.logger.TraceContext(ctx, "editor replace attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", err == nil),
		)

		if err == nil {
			c.edited = true

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n%s", err, lang.Snippet(string(data), err))
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor runs $EDITOR on path and waits for it to exit.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
