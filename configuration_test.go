package statechart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateConfiguration_NewConfiguration(t *testing.T) {
	tmpl := CreateOrthogonalTemplate(t, &CallLog{})

	t.Run("empty", func(t *testing.T) {
		c, err := tmpl.NewConfiguration()
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())
		assert.Equal(t, "*", c.String())
		assert.Equal(t, tmpl.StateConfigurationMax(), c.Len())
		assert.Same(t, tmpl, c.Template())
	})

	t.Run("ancestors are designated", func(t *testing.T) {
		c := tmpl.MustNewConfiguration("A2")
		assert.Equal(t, "On(A2,*)", c.String())

		on, _ := tmpl.StateByName("On")
		assert.Equal(t, on, c.Slot(0))
		assert.Equal(t, Wildcard, c.Slot(2))
	})

	t.Run("concurrent states", func(t *testing.T) {
		c := tmpl.MustNewConfiguration("B1", "A2")
		assert.Equal(t, "On(A2,B1)", c.String())
	})

	t.Run("conflicting states", func(t *testing.T) {
		_, err := tmpl.NewConfiguration("A1", "A2")
		assert.Equal(t, ErrCodeConflictingStates, GetErrorCode(err))

		_, err = tmpl.NewConfiguration("Off", "A1")
		assert.Equal(t, ErrCodeConflictingStates, GetErrorCode(err))
	})

	t.Run("unknown state", func(t *testing.T) {
		_, err := tmpl.NewConfiguration("Nope")
		assert.Equal(t, ErrCodeUnknownState, GetErrorCode(err))
		assert.Panics(t, func() { tmpl.MustNewConfiguration("Nope") })
	})
}

func TestStateConfiguration_IsMatching(t *testing.T) {
	tmpl := CreateOrthogonalTemplate(t, &CallLog{})
	full := tmpl.MustNewConfiguration("A2", "B1")

	tests := []struct {
		name     string
		partial  []string
		expected bool
	}{
		{"empty matches everything", nil, true},
		{"itself", []string{"A2", "B1"}, true},
		{"ancestor only", []string{"On"}, true},
		{"one region", []string{"A2"}, true},
		{"other region", []string{"B1"}, true},
		{"different state in one region", []string{"A1"}, false},
		{"different state in second region", []string{"A2", "B2"}, false},
		{"different root state", []string{"Off"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			partial := tmpl.MustNewConfiguration(tt.partial...)
			assert.Equal(t, tt.expected, full.IsMatching(partial))
			assert.Equal(t, tt.expected, partial.IsMatching(full))
		})
	}

	t.Run("different templates never match", func(t *testing.T) {
		other := CreateOrthogonalTemplate(t, &CallLog{})
		assert.False(t, full.IsMatching(other.MustNewConfiguration("A2", "B1")))
		assert.False(t, full.IsMatching(nil))
	})

	t.Run("fully specified configurations match only themselves", func(t *testing.T) {
		var configs []*StateConfiguration
		for _, names := range [][]string{{"Off"}, {"A1", "B1"}, {"A1", "B2"}, {"A2", "B1"}, {"A2", "B2"}} {
			configs = append(configs, tmpl.MustNewConfiguration(names...))
		}
		for i, a := range configs {
			for j, b := range configs {
				assert.Equal(t, i == j, a.IsMatching(b), "%s vs %s", a, b)
			}
		}
	})
}

func TestStateConfiguration_Equal(t *testing.T) {
	tmpl := CreateOrthogonalTemplate(t, &CallLog{})

	a := tmpl.MustNewConfiguration("A2")
	assert.True(t, a.Equal(tmpl.MustNewConfiguration("A2")))
	assert.False(t, a.Equal(tmpl.MustNewConfiguration("A2", "B1")))
	assert.False(t, a.Equal(nil))

	// slots outside the designated branch are ignored
	off := tmpl.MustNewConfiguration("Off")
	stale := off.Clone()
	stale.slots[1], _ = tmpl.StateByName("A1")
	assert.True(t, off.Equal(stale))
}

func TestStateConfiguration_Clone(t *testing.T) {
	tmpl := CreateOrthogonalTemplate(t, &CallLog{})
	original := tmpl.MustNewConfiguration("A2", "B1")

	clone := original.Clone()
	clone.clear()

	assert.Equal(t, "On(A2,B1)", original.String())
	assert.Equal(t, "*", clone.String())

	var nilConfig *StateConfiguration
	assert.Nil(t, nilConfig.Clone())
}

func TestStateConfiguration_Walk(t *testing.T) {
	tmpl := CreateOrthogonalTemplate(t, &CallLog{})
	c := tmpl.MustNewConfiguration("A2", "B1")

	var visited []string
	c.Walk(func(r *Region, s *State) {
		visited = append(visited, s.Name())
	})
	assert.Equal(t, []string{"On", "A2", "B1"}, visited)

	var names []string
	for _, id := range c.BaseStates() {
		names = append(names, tmpl.State(id).Name())
	}
	assert.Equal(t, []string{"A2", "B1"}, names)
}

func TestStateConfiguration_InitializeAndResolve(t *testing.T) {
	tmpl := CreateHierarchicalTemplate(t, &CallLog{})
	high, _ := tmpl.StateByName("High")
	active, _ := tmpl.StateByName("Active")
	lowRegion := tmpl.State(active).Regions()[0]

	t.Run("initial states", func(t *testing.T) {
		c := newConfiguration(tmpl)
		c.initializeAndResolve(nil, nil, tmpl.rootID, nil)
		assert.Equal(t, "Idle", c.String())
	})

	t.Run("target without history", func(t *testing.T) {
		c := newConfiguration(tmpl)
		c.initializeAndResolve(nil, tmpl.MustNewConfiguration("Active"), tmpl.rootID, nil)
		assert.Equal(t, "Active(Low)", c.String())
	})

	t.Run("wildcard resolved from history", func(t *testing.T) {
		c := newConfiguration(tmpl)
		c.initializeAndResolve(nil, tmpl.MustNewConfiguration("Active"), tmpl.rootID, []StateID{high})
		assert.Equal(t, "Active(High)", c.String())
	})

	t.Run("target wins over history", func(t *testing.T) {
		low, _ := tmpl.StateByName("Low")
		c := newConfiguration(tmpl)
		c.initializeAndResolve(nil, tmpl.MustNewConfiguration("Low"), tmpl.rootID, []StateID{high})
		assert.Equal(t, "Active(Low)", c.String())
		assert.Equal(t, low, c.StateIn(lowRegion))
	})

	t.Run("only the subtree below from changes", func(t *testing.T) {
		base := newConfiguration(tmpl)
		base.initializeAndResolve(nil, tmpl.MustNewConfiguration("Active"), tmpl.rootID, nil)

		c := newConfiguration(tmpl)
		c.initializeAndResolve(base, tmpl.MustNewConfiguration("High"), lowRegion, nil)
		assert.Equal(t, "Active(High)", c.String())
		assert.Equal(t, "Active(Low)", base.String())
	})

	t.Run("every reachable slot is resolved", func(t *testing.T) {
		for _, tmpl := range []*Template{
			CreateTwoStateTemplate(t),
			CreateOrthogonalTemplate(t, &CallLog{}),
			CreateHierarchicalTemplate(t, &CallLog{}),
		} {
			tmpl.Walk(func(_ *Region, s *State) {
				c := newConfiguration(tmpl)
				c.initializeAndResolve(nil, tmpl.MustNewConfiguration(s.Name()), tmpl.rootID, nil)
				assert.Equal(t, tmpl.StateConfigurationMax(), c.Len())
				c.Walk(func(r *Region, state *State) {
					for _, sub := range state.Regions() {
						assert.NotEqual(t, Wildcard, c.StateIn(sub), "%s below %s", c, state.Name())
					}
				})
			})
		}
	})
}

func TestStateConfiguration_UnresolvedSlotPanics(t *testing.T) {
	tmpl := CreateTwoStateTemplate(t)
	c := newConfiguration(tmpl)
	assert.Panics(t, func() { c.stateAt(tmpl.rootID) })
}
