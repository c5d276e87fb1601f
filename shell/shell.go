package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/domino14/yahtzee/config"
	"github.com/domino14/yahtzee/game"
	"github.com/domino14/yahtzee/scoring"
	"github.com/domino14/yahtzee/solution"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoSolution        = errors.New("no solved table; `solve` or `load` first")
	errNoGame            = errors.New("no game in progress; start one with `new`")
)

type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config

	execPath   string
	gitVersion string
	printer    *message.Printer

	variant scoring.Variant
	sol     *solution.Solution
	game    *game.Game
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36myahtzee>\033[0m ",
		HistoryFile:     "/tmp/yahtzee-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
		AutoComplete:        completer(),
	})
	if err != nil {
		panic(err)
	}
	sc := newController(cfg, execPath, gitVersion, l.Stdout())
	sc.l = l
	return sc
}

func newController(cfg *config.Config, execPath, gitVersion string, out io.Writer) *ShellController {
	v, err := scoring.VariantByName(cfg.GetString(config.ConfigVariant))
	if err != nil {
		log.Warn().Err(err).Msg("falling-back-to-reduced-variant")
		v = scoring.Reduced
	}
	return &ShellController{
		out:        out,
		config:     cfg,
		execPath:   execPath,
		gitVersion: gitVersion,
		printer:    message.NewPrinter(language.English),
		variant:    v,
	}
}

func (sc *ShellController) showMessage(m string) {
	io.WriteString(sc.out, m)
	io.WriteString(sc.out, "\n")
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a line into a command, its positional arguments,
// and its -name value options.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := &shellcmd{cmd: fields[0], options: map[string]string{}}
	for i := 1; i < len(fields); i++ {
		f := fields[i]
		if strings.HasPrefix(f, "-") && len(f) > 1 && !isNumber(f) {
			if i+1 >= len(fields) {
				return nil, errWrongOptionSyntax
			}
			cmd.options[f[1:]] = fields[i+1]
			i++
			continue
		}
		cmd.args = append(cmd.args, f)
	}
	return cmd, nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func (sc *ShellController) dispatch(cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "help":
		return sc.help(cmd)
	case "variant":
		return sc.setVariant(cmd)
	case "solve":
		return sc.solve(cmd)
	case "load":
		return sc.load(cmd)
	case "save":
		return sc.save(cmd)
	case "value":
		return sc.value(cmd)
	case "eval":
		return sc.eval(cmd)
	case "best":
		return sc.best(cmd)
	case "new":
		return sc.newGame(cmd)
	case "reroll":
		return sc.reroll(cmd)
	case "write":
		return sc.write(cmd)
	case "undo":
		return sc.undo(cmd)
	case "hint":
		return sc.hint(cmd)
	case "show":
		return sc.show(cmd)
	case "sim":
		return sc.sim(cmd)
	}
	return nil, fmt.Errorf("command %v not found", cmd.cmd)
}

// Execute runs a single command line, as from the command line arguments.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	sc.executeLine(sig, line)
}

// executeLine returns true if the shell should exit.
func (sc *ShellController) executeLine(sig chan os.Signal, line string) bool {
	line = strings.TrimSpace(line)
	if line == "bye" || line == "exit" {
		sig <- syscall.SIGINT
		return true
	}
	cmd, err := extractFields(line)
	if err != nil {
		if !errors.Is(err, errNoData) {
			sc.showError(err)
		}
		return false
	}
	resp, err := sc.dispatch(cmd)
	if err != nil {
		sc.showError(err)
		return false
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
	return false
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		if sc.executeLine(sig, line) {
			break
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}
