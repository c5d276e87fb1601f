package shell

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/chzyer/readline"
	"github.com/samber/lo"

	"github.com/domino14/yahtzee/action"
	"github.com/domino14/yahtzee/cache"
	"github.com/domino14/yahtzee/config"
	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/game"
	"github.com/domino14/yahtzee/montecarlo"
	"github.com/domino14/yahtzee/policy"
	"github.com/domino14/yahtzee/scoring"
	"github.com/domino14/yahtzee/solution"
	"github.com/domino14/yahtzee/solver"
	"github.com/domino14/yahtzee/state"
	"github.com/domino14/yahtzee/transition"
)

//go:embed helptext/*.txt
var helptext embed.FS

var commands = []string{
	"help", "variant", "solve", "load", "save", "value", "eval", "best",
	"new", "reroll", "write", "undo", "hint", "show", "sim", "exit",
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(lo.Map(commands, func(c string, _ int) readline.PrefixCompleterInterface {
		return readline.PcItem(c)
	})...)
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	topic := "usage"
	if len(cmd.args) > 0 {
		topic = cmd.args[0]
	}
	dat, err := helptext.ReadFile("helptext/" + topic + ".txt")
	if err != nil {
		return nil, fmt.Errorf("there is no help text for the topic %v", topic)
	}
	return msg(strings.TrimRight(string(dat), "\n")), nil
}

func (sc *ShellController) model() (*transition.Model, error) {
	return cache.Model(sc.config, sc.variant)
}

func (sc *ShellController) setVariant(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg("variant: " + sc.variant.Name), nil
	}
	v, err := scoring.VariantByName(cmd.args[0])
	if err != nil {
		return nil, err
	}
	sc.variant = v
	sc.sol = nil
	sc.game = nil
	sc.config.Set(config.ConfigVariant, v.Name)
	return msg(fmt.Sprintf("variant set to %s (%d categories)", v.Name, v.NumCategories())), nil
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	for _, key := range []string{config.ConfigMode, config.ConfigTolerance, config.ConfigThreads, config.ConfigMaxSweeps} {
		if v, ok := cmd.options[key]; ok {
			sc.config.Set(key, v)
		}
	}
	model, err := sc.model()
	if err != nil {
		return nil, err
	}
	sc.showMessage(sc.printer.Sprintf("solving %s: %d states", sc.variant.Name, model.Encoder().NumStates()))
	tstart := time.Now()
	sol, err := cache.Solve(context.Background(), sc.config, model)
	if err != nil {
		return nil, err
	}
	sc.sol = sol
	if sol.Status == solver.StatusConverged {
		cache.PutSolution(sc.variant, sol)
	}
	return msg(fmt.Sprintf("%s after %d sweep(s) in %v; game value %.4f",
		sol.Status, sol.Sweeps, time.Since(tstart).Round(time.Millisecond), sol.Table.GameValue())), nil
}

func (sc *ShellController) solutionPath(cmd *shellcmd) string {
	if len(cmd.args) > 0 {
		return cmd.args[0]
	}
	return cache.SolutionPath(sc.config, sc.variant)
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	model, err := sc.model()
	if err != nil {
		return nil, err
	}
	path := sc.solutionPath(cmd)
	sol, err := solution.Load(path, model)
	if err != nil {
		return nil, err
	}
	sc.sol = sol
	return msg(fmt.Sprintf("loaded %s (%s, %s); game value %.4f",
		path, sol.Mode, sol.Status, sol.Table.GameValue())), nil
}

func (sc *ShellController) save(cmd *shellcmd) (*Response, error) {
	if sc.sol == nil {
		return nil, errNoSolution
	}
	path := sc.solutionPath(cmd)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := solution.Save(path, sc.sol); err != nil {
		return nil, err
	}
	return msg("saved to " + path), nil
}

func (sc *ShellController) value(cmd *shellcmd) (*Response, error) {
	if sc.sol == nil {
		return nil, errNoSolution
	}
	enc := sc.sol.Table.Encoder()
	return msg(sc.printer.Sprintf("%s: %d states, %s (%s); expected score of a new game %.4f",
		enc.Variant().Name, enc.NumStates(), sc.sol.Status, sc.sol.Mode, sc.sol.Table.GameValue())), nil
}

// stateFromCmd builds a state from "<dice> [-rerolls n] [-open cats]".
// With no dice it uses the game in progress.
func (sc *ShellController) stateFromCmd(cmd *shellcmd, enc *state.Encoder) (state.GameState, error) {
	if len(cmd.args) == 0 {
		if sc.game == nil {
			return state.GameState{}, errors.New("give the dice, or start a game with `new`")
		}
		return game.Validate(sc.game, enc)
	}
	d, err := dice.Parse(strings.Join(cmd.args, " "))
	if err != nil {
		return state.GameState{}, err
	}
	s := state.Start(d, 0)
	if r, ok := cmd.options["rerolls"]; ok {
		n, err := strconv.Atoi(r)
		if err != nil || n < 0 || n > state.MaxRerolls {
			return state.GameState{}, fmt.Errorf("rerolls must be 0 to %d", state.MaxRerolls)
		}
		s.Rerolls = uint8(n)
	}
	if open, ok := cmd.options["open"]; ok {
		s.Mask = enc.FullMask()
		for _, name := range strings.Split(open, ",") {
			c, err := scoring.ParseCategory(name)
			if err != nil {
				return state.GameState{}, err
			}
			i, ok := enc.Variant().Index(c)
			if !ok {
				return state.GameState{}, fmt.Errorf("%v is not in the %s variant", c, enc.Variant().Name)
			}
			s.Mask &^= 1 << i
		}
	}
	return s, nil
}

func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	if sc.sol == nil {
		return nil, errNoSolution
	}
	vt := sc.sol.Table
	enc := vt.Encoder()
	s, err := sc.stateFromCmd(cmd, enc)
	if err != nil {
		return nil, err
	}
	qs := policy.QValues(s, vt)
	if len(qs) == 0 {
		return msg("the game is over"), nil
	}
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Q > qs[j].Q })
	limit, err := intOption(cmd, "n", 10)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, errors.New("-n must be at least 1")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nV = %.4f\n", s.Describe(enc.Variant()), vt.Value(s))
	fmt.Fprintf(&sb, "%-4s %-32s %6s %10s\n", "#", "action", "points", "Q")
	for i, q := range qs[:min(limit, len(qs))] {
		fmt.Fprintf(&sb, "%-4d %-32s %6d %10.4f\n", i+1, action.Describe(q.Action, s, enc), q.Reward, q.Q)
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) decider() policy.Decider {
	if sc.sol.Policy != nil {
		return sc.sol.Policy
	}
	return policy.TableDecider{Table: sc.sol.Table}
}

func (sc *ShellController) best(cmd *shellcmd) (*Response, error) {
	if sc.sol == nil {
		return nil, errNoSolution
	}
	enc := sc.sol.Table.Encoder()
	s, err := sc.stateFromCmd(cmd, enc)
	if err != nil {
		return nil, err
	}
	a, q, ok := policy.BestAction(s, sc.sol.Table)
	if !ok {
		return msg("the game is over"), nil
	}
	return msg(fmt.Sprintf("%s (expected %.4f)", action.Describe(a, s, enc), q)), nil
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	seed, err := uint64Option(cmd, "seed", 0)
	if err != nil {
		return nil, err
	}
	sc.game = game.New(sc.variant, seed)
	return msg(fmt.Sprintf("new %s game, seed %d\n%s", sc.variant.Name, sc.game.Seed(), sc.gameText())), nil
}

func (sc *ShellController) gameText() string {
	g := sc.game
	var sb strings.Builder
	sb.WriteString(g.Sheet().String())
	if g.Over() {
		fmt.Fprintf(&sb, "game over, final score %d", g.Total())
		return sb.String()
	}
	fmt.Fprintf(&sb, "round %d: dice %v, %d reroll(s) left", g.Round()+1, g.CurrentDice(), g.RerollsRemaining())
	return sb.String()
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	return msg(sc.gameText()), nil
}

func (sc *ShellController) reroll(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	if len(cmd.args) == 0 {
		return nil, errors.New("which faces? e.g. `reroll 3 6`")
	}
	var faces []int
	for _, r := range strings.Join(cmd.args, "") {
		if r < '1' || r > '6' {
			return nil, fmt.Errorf("%w: %q", dice.ErrMalformedDice, r)
		}
		faces = append(faces, int(r-'0'))
	}
	m, err := dice.MaskFor(sc.game.CurrentDice(), faces...)
	if err != nil {
		return nil, err
	}
	if err := sc.game.ApplyReroll(m); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("dice %v, %d reroll(s) left", sc.game.CurrentDice(), sc.game.RerollsRemaining())), nil
}

func (sc *ShellController) write(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	if len(cmd.args) == 0 {
		return nil, errors.New("which category? e.g. `write chance`")
	}
	c, err := scoring.ParseCategory(strings.Join(cmd.args, " "))
	if err != nil {
		return nil, err
	}
	i, ok := sc.variant.Index(c)
	if !ok {
		return nil, fmt.Errorf("%v is not in the %s variant", c, sc.variant.Name)
	}
	pts, bonus, err := sc.game.ApplyWrite(i)
	if err != nil {
		return nil, err
	}
	m := fmt.Sprintf("%v for %d", c, pts)
	if bonus {
		m += fmt.Sprintf(", plus the %d point upper bonus", scoring.BonusScore)
	}
	return msg(m + "\n" + sc.gameText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	if err := sc.game.UndoRound(); err != nil {
		return nil, err
	}
	return msg(sc.gameText()), nil
}

func (sc *ShellController) hint(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	if len(cmd.args) > 0 {
		return nil, errors.New("hint takes no arguments; use `best <dice>` for other rolls")
	}
	return sc.best(cmd)
}

func (sc *ShellController) sim(cmd *shellcmd) (*Response, error) {
	if sc.sol == nil {
		return nil, errNoSolution
	}
	enc := sc.sol.Table.Encoder()
	start, err := sc.stateFromCmd(cmd, enc)
	if err != nil {
		return nil, err
	}
	games, err := intOption(cmd, "games", sc.config.GetInt(config.ConfigSimGames))
	if err != nil {
		return nil, err
	}
	threads, err := intOption(cmd, "threads", sc.config.GetInt(config.ConfigThreads))
	if err != nil {
		return nil, err
	}
	seed, err := uint64Option(cmd, "seed", sc.config.GetUint64(config.ConfigSimSeed))
	if err != nil {
		return nil, err
	}
	stopStr := sc.config.GetString(config.ConfigSimStop)
	if v, ok := cmd.options["stop"]; ok {
		stopStr = v
	}
	stop, err := montecarlo.ParseStoppingCondition(stopStr)
	if err != nil {
		return nil, err
	}
	maxErr := 0.1
	if v, ok := cmd.options["maxerr"]; ok {
		if maxErr, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, err
		}
	}

	opts := []montecarlo.Option{
		montecarlo.WithThreads(threads),
		montecarlo.WithSeed(seed),
		montecarlo.WithStoppingCondition(stop, maxErr),
	}
	if path, ok := cmd.options["log"]; ok {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		opts = append(opts, montecarlo.WithLogStream(f))
	}
	model, err := sc.model()
	if err != nil {
		return nil, err
	}
	sim := montecarlo.NewSimulator(model, sc.decider(), opts...)
	sum, err := sim.Run(context.Background(), start, games)
	if err != nil {
		return nil, err
	}
	return msg(sc.simSummary(start, sum, sim.Seed())), nil
}

func (sc *ShellController) simSummary(start state.GameState, sum *montecarlo.Summary, seed uint64) string {
	var sb strings.Builder
	sb.WriteString(sc.printer.Sprintf("%d games from %v (seed %d) in %v\n",
		sum.Games, start, seed, sum.Elapsed.Round(time.Millisecond)))
	fmt.Fprintf(&sb, "mean %.4f  stdev %.4f  stderr %.4f  min %.0f  max %.0f\n",
		sum.Mean, sum.Stdev, sum.StdErr, sum.Min, sum.Max)
	fmt.Fprintf(&sb, "expected (solved) %.4f\n", sc.sol.Table.Value(start))
	if sum.Stopped {
		sb.WriteString("stopped early: stopping condition reached\n")
	}
	if len(sum.Scores) > 1 && sum.Max > sum.Min {
		var buf bytes.Buffer
		if err := histogram.Fprint(&buf, histogram.Hist(15, sum.Scores), histogram.Linear(40)); err == nil {
			sb.Write(buf.Bytes())
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func intOption(cmd *shellcmd, key string, def int) (int, error) {
	v, ok := cmd.options[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("-%s: %w", key, err)
	}
	return n, nil
}

func uint64Option(cmd *shellcmd, key string, def uint64) (uint64, error) {
	v, ok := cmd.options[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("-%s: %w", key, err)
	}
	return n, nil
}
