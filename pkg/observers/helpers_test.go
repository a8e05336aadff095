package observers_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anggasct/statechart"
)

var errBroken = errors.New("broken")

// newLampTemplate builds Off/On where On runs regions A and B concurrently.
// Break fails in its transition action.
func newLampTemplate(t *testing.T) *statechart.Template {
	t.Helper()
	tmpl, err := statechart.NewBuilder().
		Region("Off", false).
		State("Off").
		Transition("SwitchOn", "On", []string{"On"}).
		Transition("Break", "Break", []string{"Off"}, statechart.Do(func(m *statechart.StateMachine, event, args any) error {
			return errBroken
		})).
		EndState().
		State("On").
		Transition("SwitchOff", "Off", []string{"Off"}).
		Region("A1", false).
		State("A1").
		Transition("StepA", "Step", []string{"A2"}).
		EndState().
		State("A2").
		EndState().
		EndRegion().
		Region("B1", false).
		State("B1").
		Transition("StepB", "Step", []string{"B2"}).
		EndState().
		State("B2").
		EndState().
		EndRegion().
		EndState().
		EndRegion().
		Build()
	require.NoError(t, err)
	return tmpl
}

func startLamp(t *testing.T, tracer statechart.Tracer) *statechart.StateMachine {
	t.Helper()
	m := newLampTemplate(t).CreateStateMachine(statechart.WithID("lamp-1"), statechart.WithTracer(tracer))
	require.NoError(t, m.Startup())
	return m
}

func send(t *testing.T, m *statechart.StateMachine, events ...string) {
	t.Helper()
	for _, event := range events {
		_, err := m.SendTriggerEvent(event, nil)
		require.NoError(t, err, event)
	}
}
