// Package shell provides a line-oriented command interface over a
// memfs instance. Each shell owns one session, so working directory
// and descriptor numbers behave like a process talking to a kernel.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/glacya/memfs"
	"github.com/glacya/memfs/internal/util"
)

// errExit signals a clean stop requested by the exit command.
var errExit = errors.New("exit")

// Shell wires a memfs session to a command table and an output stream.
type Shell struct {
	fs   *memfs.MemFS
	ctx  *memfs.Context
	out  io.Writer
	cmds map[string]*Command

	// Prompt is written before every input line when non-empty.
	Prompt string
}

// New creates a shell with its own session on fs, writing all command
// output to out. All built-in commands are registered.
func New(fs *memfs.MemFS, out io.Writer) *Shell {
	sh := &Shell{
		fs:   fs,
		ctx:  fs.NewContext(),
		out:  out,
		cmds: make(map[string]*Command),
	}
	sh.registerBuiltins()
	return sh
}

// Register ties a command to its name. Commands must be registered
// before Run; later registrations replace earlier ones.
func (s *Shell) Register(cmd *Command) {
	s.cmds[cmd.Name] = cmd
}

// Run reads commands from in line by line until EOF, the exit command,
// or ctx cancellation. Blank lines and lines starting with "#" are
// skipped. Command failures are reported to the output stream and do
// not stop the loop.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	logger := util.GetLogger("Shell.Run")

	scanner := bufio.NewScanner(in)
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("Shell loop cancelled")
			return nil
		default:
		}

		if s.Prompt != "" {
			fmt.Fprint(s.out, s.Prompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := s.Execute(line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// Execute runs a single command line against the shell's session.
func (s *Shell) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, ok := s.cmds[fields[0]]
	if !ok {
		return fmt.Errorf("unknown command %q (try \"help\")", fields[0])
	}
	return cmd.Run(s, fields[1:])
}

// Close releases the shell's session and every descriptor it holds.
func (s *Shell) Close() {
	s.ctx.Release()
}

// commandNames returns the registered names in sorted order.
func (s *Shell) commandNames() []string {
	names := make([]string, 0, len(s.cmds))
	for name := range s.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
