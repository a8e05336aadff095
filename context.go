package statechart

import "reflect"

// Context returns the opaque application value attached with WithContext
func (m *StateMachine) Context() any {
	return m.context
}

// SetContext replaces the attached application value
func (m *StateMachine) SetContext(ctx any) {
	m.context = ctx
}

// ContextAs returns the attached application value as T
//
//	counter, ok := statechart.ContextAs[*Counter](m)
func ContextAs[T any](m *StateMachine) (T, bool) {
	v, ok := m.context.(T)
	return v, ok
}

// MustContextAs is like ContextAs but panics when the value is not a T
func MustContextAs[T any](m *StateMachine) T {
	v, ok := m.context.(T)
	if !ok {
		panic("statechart: machine context is not of type " + reflect.TypeFor[T]().String())
	}
	return v
}
