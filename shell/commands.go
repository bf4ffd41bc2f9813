package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/glacya/memfs"
)

// Command is one shell verb: a name, a usage line, a help summary and
// the implementation run against the shell's session.
type Command struct {
	Name  string
	Usage string
	Help  string
	Run   func(s *Shell, args []string) error
}

// registerBuiltins installs the built-in command set during shell init
func (s *Shell) registerBuiltins() {
	for _, cmd := range []*Command{
		{"open", "open PATH [ro|wo|rw|create|excl|trunc|append]...", "open a file and print its descriptor", cmdOpen},
		{"close", "close FD", "close an open descriptor", cmdClose},
		{"read", "read FD SIZE", "read up to SIZE bytes at the descriptor's position", cmdRead},
		{"write", "write FD TEXT...", "write TEXT at the descriptor's position", cmdWrite},
		{"seek", "seek FD OFFSET [set|cur|end]", "move the descriptor's position", cmdSeek},
		{"cat", "cat PATH", "print a file's content", cmdCat},
		{"mkdir", "mkdir PATH", "create a directory", cmdMkdir},
		{"rmdir", "rmdir PATH", "remove an empty directory", cmdRmdir},
		{"unlink", "unlink PATH", "remove a file", cmdUnlink},
		{"mv", "mv OLD NEW", "rename a file or directory", cmdMv},
		{"cd", "cd PATH", "change the working directory", cmdCd},
		{"pwd", "pwd", "print the working directory", cmdPwd},
		{"ls", "ls [PATH]", "list a directory", cmdLs},
		{"stat", "stat PATH", "print one node's kind and size", cmdStat},
		{"tree", "tree", "print the whole namespace", cmdTree},
		{"stats", "stats", "print filesystem counters", cmdStats},
		{"help", "help", "list available commands", cmdHelp},
		{"exit", "exit", "leave the shell", cmdExit},
	} {
		s.Register(cmd)
	}
}

func errUsage(usage string) error {
	return fmt.Errorf("usage: %s", usage)
}

func parseFd(arg string) (int, error) {
	fd, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("bad descriptor %q", arg)
	}
	return fd, nil
}

func parseOpenFlags(tokens []string) (memfs.OpenFlag, error) {
	flags := memfs.O_RDONLY
	for _, tok := range tokens {
		switch tok {
		case "ro":
		case "wo":
			flags |= memfs.O_WRONLY
		case "rw":
			flags |= memfs.O_RDWR
		case "create":
			flags |= memfs.O_CREATE
		case "excl":
			flags |= memfs.O_EXCL
		case "trunc":
			flags |= memfs.O_TRUNC
		case "append":
			flags |= memfs.O_APPEND
		default:
			return 0, fmt.Errorf("unknown open flag %q", tok)
		}
	}
	return flags, nil
}

func cmdOpen(s *Shell, args []string) error {
	if len(args) < 1 {
		return errUsage("open PATH [ro|wo|rw|create|excl|trunc|append]...")
	}
	flags, err := parseOpenFlags(args[1:])
	if err != nil {
		return err
	}
	fd, err := s.ctx.Open(args[0], flags)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "fd %d\n", fd)
	return nil
}

func cmdClose(s *Shell, args []string) error {
	if len(args) != 1 {
		return errUsage("close FD")
	}
	fd, err := parseFd(args[0])
	if err != nil {
		return err
	}
	return s.ctx.Close(fd)
}

func cmdRead(s *Shell, args []string) error {
	if len(args) != 2 {
		return errUsage("read FD SIZE")
	}
	fd, err := parseFd(args[0])
	if err != nil {
		return err
	}
	size, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad size %q", args[1])
	}
	data, err := s.ctx.Read(fd, size)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%q\n", data)
	return nil
}

func cmdWrite(s *Shell, args []string) error {
	if len(args) < 2 {
		return errUsage("write FD TEXT...")
	}
	fd, err := parseFd(args[0])
	if err != nil {
		return err
	}
	n, err := s.ctx.Write(fd, []byte(strings.Join(args[1:], " ")))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "wrote %d\n", n)
	return nil
}

func cmdSeek(s *Shell, args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return errUsage("seek FD OFFSET [set|cur|end]")
	}
	fd, err := parseFd(args[0])
	if err != nil {
		return err
	}
	offset, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad offset %q", args[1])
	}
	whence := io.SeekStart
	if len(args) == 3 {
		switch args[2] {
		case "set":
			whence = io.SeekStart
		case "cur":
			whence = io.SeekCurrent
		case "end":
			whence = io.SeekEnd
		default:
			return fmt.Errorf("unknown whence %q (set, cur or end)", args[2])
		}
	}
	pos, err := s.ctx.Seek(fd, offset, whence)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "pos %d\n", pos)
	return nil
}

func cmdCat(s *Shell, args []string) error {
	if len(args) != 1 {
		return errUsage("cat PATH")
	}
	fd, err := s.ctx.Open(args[0], memfs.O_RDONLY)
	if err != nil {
		return err
	}
	defer func() { _ = s.ctx.Close(fd) }()

	var last byte = '\n'
	for {
		chunk, err := s.ctx.Read(fd, 4096)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			break
		}
		if _, err := s.out.Write(chunk); err != nil {
			return err
		}
		last = chunk[len(chunk)-1]
	}
	// keep transcripts line-aligned for content without a final newline
	if last != '\n' {
		fmt.Fprintln(s.out)
	}
	return nil
}

func cmdMkdir(s *Shell, args []string) error {
	if len(args) != 1 {
		return errUsage("mkdir PATH")
	}
	return s.ctx.Mkdir(args[0])
}

func cmdRmdir(s *Shell, args []string) error {
	if len(args) != 1 {
		return errUsage("rmdir PATH")
	}
	return s.ctx.Rmdir(args[0])
}

func cmdUnlink(s *Shell, args []string) error {
	if len(args) != 1 {
		return errUsage("unlink PATH")
	}
	return s.ctx.Unlink(args[0])
}

func cmdMv(s *Shell, args []string) error {
	if len(args) != 2 {
		return errUsage("mv OLD NEW")
	}
	return s.ctx.Rename(args[0], args[1])
}

func cmdCd(s *Shell, args []string) error {
	if len(args) != 1 {
		return errUsage("cd PATH")
	}
	return s.ctx.Chdir(args[0])
}

func cmdPwd(s *Shell, args []string) error {
	if len(args) != 0 {
		return errUsage("pwd")
	}
	wd, err := s.ctx.Getwd()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, wd)
	return nil
}

func cmdLs(s *Shell, args []string) error {
	if len(args) > 1 {
		return errUsage("ls [PATH]")
	}
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	infos, err := s.ctx.ReadDir(path)
	if err != nil {
		return err
	}
	for _, info := range infos {
		name := info.Name
		if info.Kind == memfs.KindDir {
			name += "/"
		}
		fmt.Fprintln(s.out, name)
	}
	return nil
}

func cmdStat(s *Shell, args []string) error {
	if len(args) != 1 {
		return errUsage("stat PATH")
	}
	info, err := s.ctx.Stat(args[0])
	if err != nil {
		return err
	}
	if info.Kind == memfs.KindDir {
		fmt.Fprintf(s.out, "%s  dir\n", info.Path)
		return nil
	}
	fmt.Fprintf(s.out, "%s  file  %s\n", info.Path, humanize.IBytes(uint64(info.Size)))
	return nil
}

func cmdTree(s *Shell, args []string) error {
	if len(args) != 0 {
		return errUsage("tree")
	}
	s.fs.Walk(func(depth int, info memfs.NodeInfo) {
		name := info.Name
		if info.Kind == memfs.KindDir && name != "/" {
			name += "/"
		}
		fmt.Fprintf(s.out, "%s%s\n", strings.Repeat("  ", depth), name)
	})
	return nil
}

func cmdStats(s *Shell, args []string) error {
	if len(args) != 0 {
		return errUsage("stats")
	}
	st := s.fs.Stats()
	fmt.Fprintf(s.out, "dirs:      %d\n", st.Dirs)
	fmt.Fprintf(s.out, "files:     %d\n", st.Files)
	fmt.Fprintf(s.out, "orphaned:  %d\n", st.OrphanedFiles)
	fmt.Fprintf(s.out, "open fds:  %d\n", st.OpenDescriptors)
	fmt.Fprintf(s.out, "content:   %s\n", humanize.IBytes(uint64(st.Bytes)))
	return nil
}

func cmdHelp(s *Shell, args []string) error {
	for _, name := range s.commandNames() {
		cmd := s.cmds[name]
		fmt.Fprintf(s.out, "  %-44s %s\n", cmd.Usage, cmd.Help)
	}
	return nil
}

func cmdExit(s *Shell, args []string) error {
	return errExit
}
