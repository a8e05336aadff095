package observers

import "github.com/anggasct/statechart"

// changedStates returns the names of the states left and entered by a state
// change. Startup and Resume exit nothing, Finish enters nothing.
func changedStates(from, to *statechart.StateConfiguration, t *statechart.Transition) (exited, entered []string) {
	scope := to.Template().Root().ID()
	if t != nil {
		scope = t.LeastCommonAncestor()
	}
	from.WalkFrom(scope, func(_ *statechart.Region, s *statechart.State) {
		exited = append(exited, s.Name())
	})
	to.WalkFrom(scope, func(_ *statechart.Region, s *statechart.State) {
		entered = append(entered, s.Name())
	})
	return exited, entered
}
