// Package statechart provides a hierarchical, orthogonal state machine
// engine. A Template is declared once with a Builder: nested regions and
// states with entry, exit and do actions, plus guarded transitions ordered
// by priority. Any number of StateMachine instances then share it and are
// driven by trigger events under run-to-completion semantics.
//
//	tmpl := statechart.NewBuilder().
//		Region("Locked", false).
//		State("Locked").
//		Transition("Unlock", "Coin", []string{"Unlocked"}).
//		EndState().
//		State("Unlocked").
//		Transition("Lock", "Push", []string{"Locked"}).
//		EndState().
//		EndRegion().
//		MustBuild()
//
//	m := tmpl.CreateStateMachine()
//	_ = m.Startup()
//	steps, err := m.SendTriggerEvent("Coin", nil)
//
// The active configuration of a running machine, together with its history,
// can be written with SaveState and restored with Resume. A structural
// signature of the template guards against resuming into a different
// statechart shape.
package statechart
