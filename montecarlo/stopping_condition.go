package montecarlo

import (
	"fmt"
	"strings"

	"github.com/domino14/yahtzee/stats"
)

type StoppingCondition int

const (
	StopNone StoppingCondition = iota
	Stop95
	Stop98
	Stop99
)

// The variance estimate is too noisy to stop on before this many games.
const minGames = 1000

func (sc StoppingCondition) Confidence() float64 {
	switch sc {
	case Stop95:
		return 95
	case Stop98:
		return 98
	case Stop99:
		return 99
	}
	return 0
}

func (sc StoppingCondition) String() string {
	if sc == StopNone {
		return "none"
	}
	return fmt.Sprintf("%g", sc.Confidence())
}

func ParseStoppingCondition(s string) (StoppingCondition, error) {
	switch strings.TrimSuffix(strings.ToLower(s), "%") {
	case "", "none", "0":
		return StopNone, nil
	case "95":
		return Stop95, nil
	case "98":
		return Stop98, nil
	case "99":
		return Stop99, nil
	}
	return StopNone, fmt.Errorf("unknown stopping condition %q (want 95, 98, 99 or none)", s)
}

// satisfied reports whether the mean is known to within maxError points at
// the condition's confidence.
func (sc StoppingCondition) satisfied(st *stats.Statistic, maxError float64) bool {
	if sc == StopNone || st.Iterations() < minGames {
		return false
	}
	return st.HalfWidth(sc.Confidence()) <= maxError
}
