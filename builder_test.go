package statechart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Metrics(t *testing.T) {
	t.Run("two states", func(t *testing.T) {
		tmpl := CreateTwoStateTemplate(t)

		assert.Equal(t, 2, tmpl.StateCount())
		assert.Equal(t, 1, tmpl.RegionCount())
		assert.Equal(t, 2, tmpl.TransitionCount())
		assert.Equal(t, 1, tmpl.StateConfigurationMax())
		assert.Equal(t, 1, tmpl.ConcurrencyDegree())
		assert.Equal(t, 0, tmpl.HistoryMax())
		assert.Equal(t, "R0-{State1,State2}", tmpl.Structure())
	})

	t.Run("orthogonal regions get disjoint slots", func(t *testing.T) {
		tmpl := CreateOrthogonalTemplate(t, &CallLog{})

		assert.Equal(t, 6, tmpl.StateCount())
		assert.Equal(t, 3, tmpl.RegionCount())
		assert.Equal(t, 3, tmpl.StateConfigurationMax())
		assert.Equal(t, 2, tmpl.ConcurrencyDegree())
		assert.Equal(t, 0, tmpl.HistoryMax())

		on, ok := tmpl.StateByName("On")
		require.True(t, ok)
		subs := tmpl.State(on).Regions()
		require.Len(t, subs, 2)
		assert.Equal(t, 0, tmpl.Root().SlotIndex())
		assert.Equal(t, 1, tmpl.Region(subs[0]).SlotIndex())
		assert.Equal(t, 2, tmpl.Region(subs[1]).SlotIndex())
		assert.Equal(t, "R0-{Off,On(R1-{A1,A2}R2-{B1,B2})}", tmpl.Structure())
	})

	t.Run("exclusive branches share slots", func(t *testing.T) {
		tmpl, err := NewBuilder().
			Region("A", false).
			State("A").
			Region("A1", false).
			State("A1").EndState().
			EndRegion().
			Region("A2", false).
			State("A2").EndState().
			EndRegion().
			EndState().
			State("B").
			Region("B1", false).
			State("B1").EndState().
			EndRegion().
			EndState().
			EndRegion().
			Build()
		require.NoError(t, err)

		assert.Equal(t, 3, tmpl.StateConfigurationMax())
		assert.Equal(t, 2, tmpl.ConcurrencyDegree())

		b, _ := tmpl.StateByName("B")
		assert.Equal(t, 1, tmpl.Region(tmpl.State(b).Regions()[0]).SlotIndex())
	})

	t.Run("history regions are indexed in preorder", func(t *testing.T) {
		tmpl := CreateHierarchicalTemplate(t, &CallLog{})

		assert.Equal(t, 2, tmpl.StateConfigurationMax())
		assert.Equal(t, 1, tmpl.ConcurrencyDegree())
		assert.Equal(t, 1, tmpl.HistoryMax())
		assert.Equal(t, "R0-{Idle,Active(R1H{Low,High})}", tmpl.Structure())

		active, _ := tmpl.StateByName("Active")
		region := tmpl.Region(tmpl.State(active).Regions()[0])
		assert.True(t, region.HasHistory())
		assert.Equal(t, 0, region.HistoryIndex())
		assert.Equal(t, -1, tmpl.Root().HistoryIndex())
	})

	t.Run("depth and base states", func(t *testing.T) {
		tmpl := CreateHierarchicalTemplate(t, &CallLog{})

		idle, _ := tmpl.StateByName("Idle")
		high, _ := tmpl.StateByName("High")
		active, _ := tmpl.StateByName("Active")
		assert.Equal(t, 0, tmpl.State(idle).Depth())
		assert.Equal(t, 1, tmpl.State(high).Depth())
		assert.True(t, tmpl.State(high).IsBase())
		assert.False(t, tmpl.State(active).IsBase())
		assert.True(t, tmpl.IsAncestorOrSelf(active, high))
		assert.True(t, tmpl.IsAncestorOrSelf(high, high))
		assert.False(t, tmpl.IsAncestorOrSelf(idle, high))
	})
}

func TestBuilder_Signature(t *testing.T) {
	tmpl := CreateTwoStateTemplate(t)
	assert.Equal(t, DefaultSignatureHash([]byte(tmpl.Structure())), tmpl.Signature())
	assert.Len(t, tmpl.Signature(), 64)

	t.Run("transitions do not change the shape", func(t *testing.T) {
		other := NewBuilder().
			Region("State1", false).
			State("State1").
			Transition("Other", "Other", []string{"State1"}).
			EndState().
			State("State2").EndState().
			EndRegion().
			MustBuild()
		assert.Equal(t, tmpl.Signature(), other.Signature())
	})

	t.Run("state names change the shape", func(t *testing.T) {
		other := NewBuilder().
			Region("State1", false).
			State("State1").EndState().
			State("State3").EndState().
			EndRegion().
			MustBuild()
		assert.NotEqual(t, tmpl.Signature(), other.Signature())
	})

	t.Run("custom hash", func(t *testing.T) {
		other := NewBuilder(WithSignatureHash(func(structure []byte) string {
			return "len:" + string(rune('0'+len(structure)%10))
		})).
			Region("S", false).
			State("S").EndState().
			EndRegion().
			MustBuild()
		assert.Equal(t, "R0-{S}", other.Structure())
		assert.Equal(t, "len:6", other.Signature())
	})

	t.Run("sealed signature", func(t *testing.T) {
		sig := &signature{hash: DefaultSignatureHash}
		require.NoError(t, sig.write("R0-{S}"))
		_, err := sig.sum()
		require.NoError(t, err)

		err = sig.write("more")
		assert.Equal(t, ErrCodeSignatureSealed, GetErrorCode(err))
		_, err = sig.sum()
		assert.Equal(t, ErrCodeSignatureSealed, GetErrorCode(err))
	})
}

func TestBuilder_Errors(t *testing.T) {
	doAction := OnDo(func(m *StateMachine) error { return nil })

	tests := []struct {
		name  string
		build func() *Builder
		code  ErrorCode
	}{
		{
			name: "region inside region",
			build: func() *Builder {
				return NewBuilder().Region("A", false).Region("B", false)
			},
			code: ErrCodeInvalidNesting,
		},
		{
			name: "state outside region",
			build: func() *Builder {
				return NewBuilder().State("A")
			},
			code: ErrCodeInvalidNesting,
		},
		{
			name: "transition outside state",
			build: func() *Builder {
				return NewBuilder().Region("A", false).Transition("T", "E", []string{"A"})
			},
			code: ErrCodeInvalidNesting,
		},
		{
			name: "end state without state",
			build: func() *Builder {
				return NewBuilder().Region("A", false).EndState()
			},
			code: ErrCodeInvalidNesting,
		},
		{
			name: "end region inside state",
			build: func() *Builder {
				return NewBuilder().Region("A", false).State("A").EndRegion()
			},
			code: ErrCodeInvalidNesting,
		},
		{
			name: "empty region",
			build: func() *Builder {
				return NewBuilder().Region("A", false).EndRegion()
			},
			code: ErrCodeInvalidNesting,
		},
		{
			name: "invalid state name",
			build: func() *Builder {
				return NewBuilder().Region("1a", false).State("1a")
			},
			code: ErrCodeInvalidName,
		},
		{
			name: "invalid transition name",
			build: func() *Builder {
				return NewBuilder().Region("A", false).State("A").Transition("to-b", "E", []string{"A"})
			},
			code: ErrCodeInvalidName,
		},
		{
			name: "duplicate state name",
			build: func() *Builder {
				return NewBuilder().Region("A", false).
					State("A").EndState().
					State("A")
			},
			code: ErrCodeDuplicateName,
		},
		{
			name: "duplicate state name in nested region",
			build: func() *Builder {
				return NewBuilder().Region("A", false).
					State("A").
					Region("A", false).
					State("A")
			},
			code: ErrCodeDuplicateName,
		},
		{
			name: "duplicate transition name",
			build: func() *Builder {
				return NewBuilder().Region("A", false).
					State("A").
					Transition("T", "E", []string{"A"}).
					Transition("T", "F", []string{"A"})
			},
			code: ErrCodeDuplicateName,
		},
		{
			name: "unknown initial state",
			build: func() *Builder {
				return NewBuilder().Region("X", false).State("A").EndState().EndRegion()
			},
			code: ErrCodeUnknownState,
		},
		{
			name: "initial state from another region",
			build: func() *Builder {
				return NewBuilder().Region("A", false).
					State("A").
					Region("B", false).
					State("C").EndState().
					EndRegion().
					EndState().
					State("B").EndState().
					EndRegion()
			},
			code: ErrCodeUnknownState,
		},
		{
			name: "history on root",
			build: func() *Builder {
				return NewBuilder().Region("A", true)
			},
			code: ErrCodeHistoryOnRoot,
		},
		{
			name: "do-action without do-action support",
			build: func() *Builder {
				return NewBuilder().Region("A", false).State("A", doAction)
			},
			code: ErrCodeDoActionsDisabled,
		},
		{
			name: "unknown target",
			build: func() *Builder {
				return NewBuilder().Region("A", false).
					State("A").Transition("T", "E", []string{"Nowhere"}).EndState().
					EndRegion()
			},
			code: ErrCodeUnknownState,
		},
		{
			name: "unknown source",
			build: func() *Builder {
				return NewBuilder().Region("A", false).
					State("A").Transition("T", "E", []string{"A"}, From("Nowhere")).EndState().
					EndRegion()
			},
			code: ErrCodeUnknownState,
		},
		{
			name: "source not under anchor",
			build: func() *Builder {
				return NewBuilder().Region("A", false).
					State("A").Transition("T", "E", []string{"A"}, From("B")).EndState().
					State("B").EndState().
					EndRegion()
			},
			code: ErrCodeSourceNotUnderAnchor,
		},
		{
			name: "conflicting targets",
			build: func() *Builder {
				return NewBuilder().Region("A", false).
					State("A").Transition("T", "E", []string{"A", "B"}).EndState().
					State("B").EndState().
					EndRegion()
			},
			code: ErrCodeConflictingStates,
		},
		{
			name: "no target",
			build: func() *Builder {
				return NewBuilder().Region("A", false).State("A").Transition("T", "E", nil)
			},
			code: ErrCodeNoTarget,
		},
		{
			name: "non-comparable event",
			build: func() *Builder {
				return NewBuilder().Region("A", false).State("A").Transition("T", []string{"E"}, []string{"A"})
			},
			code: ErrCodeInvalidEvent,
		},
		{
			name: "second root region",
			build: func() *Builder {
				return NewBuilder().Region("A", false).State("A").EndState().EndRegion().Region("B", false)
			},
			code: ErrCodeTemplateFrozen,
		},
		{
			name: "not closed",
			build: func() *Builder {
				return NewBuilder().Region("A", false).State("A").EndState()
			},
			code: ErrCodeTemplateNotClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := tt.build().Build()
			require.Error(t, err)
			assert.Nil(t, tmpl)
			assert.True(t, IsBuildError(err))
			assert.Equal(t, tt.code, GetErrorCode(err), err.Error())
		})
	}
}

func TestBuilder_NumericNames(t *testing.T) {
	tmpl, err := NewBuilder().
		Region("1", false).
		State("1").Transition("10", 10, []string{"2"}).EndState().
		State("2").EndState().
		EndRegion().
		Build()
	require.NoError(t, err)

	id, ok := tmpl.TransitionByName("10")
	require.True(t, ok)
	assert.Equal(t, 10, tmpl.Transition(id).TriggerEvent())
}

func TestBuilder_StickyError(t *testing.T) {
	b := NewBuilder().
		Region("A", false).
		State("bad name").
		State("A").
		EndState().
		EndRegion()

	require.Error(t, b.Err())
	assert.Equal(t, ErrCodeInvalidName, GetErrorCode(b.Err()))

	_, err := b.Build()
	assert.Same(t, b.Err(), err)
}

func TestBuilder_NotClosed(t *testing.T) {
	_, err := NewBuilder().Region("A", false).State("A").EndState().Build()
	assert.True(t, errors.Is(err, ErrTemplateNotClosed))

	_, err = NewBuilder().Build()
	assert.True(t, errors.Is(err, ErrTemplateNotClosed))
}

func TestBuilder_MustBuild(t *testing.T) {
	assert.Panics(t, func() {
		NewBuilder().Region("A", false).MustBuild()
	})
	assert.NotPanics(t, func() {
		NewBuilder().Region("A", false).State("A").EndState().EndRegion().MustBuild()
	})
}

func TestBuilder_DoActions(t *testing.T) {
	tmpl, err := NewBuilder(WithDoActions()).
		Region("A", false).
		State("A", OnDo(func(m *StateMachine) error { return nil })).EndState().
		EndRegion().
		Build()
	require.NoError(t, err)

	assert.True(t, tmpl.DoActionsEnabled())
	a, _ := tmpl.StateByName("A")
	assert.True(t, tmpl.State(a).HasDoAction())
	assert.False(t, tmpl.State(a).HasEntryAction())
}

func TestTemplate_String(t *testing.T) {
	tmpl := CreateOrthogonalTemplate(t, &CallLog{})
	assert.Equal(t, "Template{states: 6, regions: 3, transitions: 5, slots: 3, concurrency: 2, history: 0}", tmpl.String())
}

func TestTemplate_Walk(t *testing.T) {
	tmpl := CreateOrthogonalTemplate(t, &CallLog{})

	var names []string
	tmpl.Walk(func(r *Region, s *State) {
		names = append(names, s.Name())
	})
	assert.Equal(t, []string{"Off", "On", "A1", "A2", "B1", "B2"}, names)
}
