package scenarios

import (
	"fmt"
	"slices"

	"github.com/kilianp07/pulse/core/eventbus"
	"github.com/kilianp07/pulse/core/events"
)

// Result reports what a scenario observed and whether it matched.
type Result struct {
	Name     string
	Each     [][]int
	Last     [][]int
	Pending  Pending
	Failures []string
}

// Passed reports whether every expectation held.
func (r Result) Passed() bool { return len(r.Failures) == 0 }

// Run executes the scenario on a fresh bus.
func Run(sc *Scenario) Result {
	b := eventbus.New(eventbus.WithName(sc.Name))
	res := Result{Name: sc.Name}
	tx := eventbus.RequestSender[events.Sample](b)

	for _, st := range sc.Steps {
		switch {
		case len(st.Push) > 0:
			for _, v := range st.Push {
				tx.Push(events.Sample{Value: v})
			}
		case st.Process:
			b.Process()
		case st.Flush:
			b.Flush()
		case st.Register == "each":
			i := len(res.Each)
			res.Each = append(res.Each, []int{})
			eventbus.Each(b, func(s events.Sample) { res.Each[i] = append(res.Each[i], s.Value) })
		case st.Register == "last":
			i := len(res.Last)
			res.Last = append(res.Last, []int{})
			eventbus.Last(b, func(s events.Sample) { res.Last[i] = append(res.Last[i], s.Value) })
		}
	}
	res.Pending = Pending{
		Each: eventbus.Unobserved[events.Sample](b),
		Last: eventbus.UnobservedLast[events.Sample](b),
	}
	b.Close()

	res.Failures = append(res.Failures, compare("each", sc.Expected.Each, res.Each)...)
	res.Failures = append(res.Failures, compare("last", sc.Expected.Last, res.Last)...)
	if p := sc.Expected.Pending; p != nil && *p != res.Pending {
		res.Failures = append(res.Failures, fmt.Sprintf("pending: want %+v got %+v", *p, res.Pending))
	}
	return res
}

func compare(mode string, want, got [][]int) []string {
	if len(want) != len(got) {
		return []string{fmt.Sprintf("%s: want %d callbacks got %d", mode, len(want), len(got))}
	}
	var out []string
	for i := range want {
		if !slices.Equal(want[i], got[i]) {
			out = append(out, fmt.Sprintf("%s callback %d: want %v got %v", mode, i+1, want[i], got[i]))
		}
	}
	return out
}
