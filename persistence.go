package statechart

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/anggasct/statechart/internal/codec"
)

// Persisted state stream layout, all integers little-endian:
//
//	magic | version int16 | 'G' signature
//	| 'S' count int16 { 's' 1 'n' name }*   active base states
//	| 'H' count int16 { 's' 1 'n' name }*   history table in preorder
//
// Strings are a uvarint byte length followed by UTF-8 bytes.
const (
	persistMagic   byte  = 0xA5
	persistVersion int16 = 2

	tagSignature byte = 'G'
	tagStates    byte = 'S'
	tagState     byte = 's'
	tagStateName byte = 'n'
	tagHistory   byte = 'H'

	stateRecordFields byte = 1
)

// SaveState writes the active base states and the history table together
// with the template signature. The machine must be running.
func (m *StateMachine) SaveState(w io.Writer) error {
	if m.status != StatusRunning {
		return NewNotRunningError("SaveState")
	}

	t := m.template
	cw := codec.NewWriter(w)
	cw.Byte(persistMagic)
	cw.Int16(persistVersion)

	cw.Byte(tagSignature)
	cw.String(t.signature)

	base := m.active.BaseStates()
	cw.Byte(tagStates)
	cw.Int16(int16(len(base)))
	for _, s := range base {
		writeStateRecord(cw, t.states[s].name)
	}

	cw.Byte(tagHistory)
	cw.Int16(int16(len(m.history)))
	for _, s := range m.history {
		name := ""
		if s != Wildcard {
			name = t.states[s].name
		}
		writeStateRecord(cw, name)
	}

	if err := cw.Flush(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	m.logger.Debug("state saved", slog.Int("states", len(base)), slog.Int("history", len(m.history)))
	return nil
}

func writeStateRecord(cw *codec.Writer, name string) {
	cw.Byte(tagState)
	cw.Byte(stateRecordFields)
	cw.Byte(tagStateName)
	cw.String(name)
}

// Resume restores a configuration written by SaveState. The whole stream is
// decoded and validated against the template before anything changes, so a
// failed Resume leaves the machine untouched. The machine must not be
// running. With executeEntryActions the restored states are entered like in
// Startup; otherwise the machine silently reattaches to them.
func (m *StateMachine) Resume(r io.Reader, executeEntryActions bool) error {
	if m.dispatching {
		return NewDispatchingError("Resume")
	}

	active, history, err := m.decodeState(r)
	if err != nil {
		m.logger.Error("failed to resume state", slog.String("error", err.Error()))
		return err
	}
	if m.status == StatusRunning {
		return NewAlreadyRunningError("Resume")
	}

	done := m.beginDispatch()
	defer done()

	t := m.template
	copy(m.history, history)
	m.queue.clear()
	m.active.initializeAndResolve(nil, active, t.rootID, m.history)
	m.status = StatusRunning

	m.logger.Info("state machine resumed",
		slog.String("configuration", m.active.String()),
		slog.Bool("entry_actions", executeEntryActions))
	m.traceStateChange(newConfiguration(t), nil)

	if !executeEntryActions {
		return nil
	}
	if err := m.enterRegion(t.rootID, nil, nil); err != nil {
		return m.fail(err)
	}
	return m.settle()
}

func (m *StateMachine) decodeState(r io.Reader) (*StateConfiguration, []StateID, error) {
	t := m.template
	cr := codec.NewReader(r)

	magic, err := cr.Byte()
	if err != nil {
		return nil, nil, formatError(cr, "reading magic", err)
	}
	if magic != persistMagic {
		return nil, nil, formatError(cr, fmt.Sprintf("unexpected magic 0x%02X", magic), nil)
	}
	version, err := cr.Int16()
	if err != nil {
		return nil, nil, formatError(cr, "reading version", err)
	}
	if version != persistVersion {
		return nil, nil, formatError(cr, fmt.Sprintf("unsupported version %d", version), nil)
	}

	if err := cr.Tag(tagSignature); err != nil {
		return nil, nil, formatError(cr, "reading signature", err)
	}
	sig, err := cr.String()
	if err != nil {
		return nil, nil, formatError(cr, "reading signature", err)
	}
	if sig != t.signature {
		return nil, nil, formatError(cr, "signature does not match template", ErrSignatureMismatch)
	}

	if err := cr.Tag(tagStates); err != nil {
		return nil, nil, formatError(cr, "reading active states", err)
	}
	count, err := cr.Int16()
	if err != nil {
		return nil, nil, formatError(cr, "reading active state count", err)
	}
	if count < 0 || int(count) > t.concurrency {
		return nil, nil, formatError(cr, fmt.Sprintf("active state count %d out of range", count), nil)
	}
	active := newConfiguration(t)
	for i := 0; i < int(count); i++ {
		name, err := readStateRecord(cr)
		if err != nil {
			return nil, nil, formatError(cr, "reading active state", err)
		}
		id, ok := t.stateIndex[name]
		if !ok {
			return nil, nil, formatError(cr, fmt.Sprintf("unknown state '%s'", name), nil)
		}
		if err := active.designate(id); err != nil {
			return nil, nil, formatError(cr, "inconsistent active states", err)
		}
	}

	if err := cr.Tag(tagHistory); err != nil {
		return nil, nil, formatError(cr, "reading history", err)
	}
	count, err = cr.Int16()
	if err != nil {
		return nil, nil, formatError(cr, "reading history count", err)
	}
	if int(count) != t.historyCount {
		return nil, nil, formatError(cr, fmt.Sprintf("history count %d, template has %d", count, t.historyCount), nil)
	}
	history := make([]StateID, t.historyCount)
	for i := range history {
		name, err := readStateRecord(cr)
		if err != nil {
			return nil, nil, formatError(cr, "reading history state", err)
		}
		if name == "" {
			history[i] = Wildcard
			continue
		}
		id, ok := t.stateIndex[name]
		if !ok {
			return nil, nil, formatError(cr, fmt.Sprintf("unknown history state '%s'", name), nil)
		}
		if t.states[id].parent != t.historyRegions[i] {
			return nil, nil, formatError(cr, fmt.Sprintf("history state '%s' is not in region %s",
				name, t.regionLabel(t.historyRegions[i])), nil)
		}
		history[i] = id
	}
	return active, history, nil
}

func readStateRecord(cr *codec.Reader) (string, error) {
	if err := cr.Tag(tagState); err != nil {
		return "", err
	}
	fields, err := cr.Byte()
	if err != nil {
		return "", err
	}
	if fields != stateRecordFields {
		return "", fmt.Errorf("state record with %d fields", fields)
	}
	if err := cr.Tag(tagStateName); err != nil {
		return "", err
	}
	return cr.String()
}

func formatError(cr *codec.Reader, message string, err error) *FormatError {
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		message += ": " + buildErr.Message
		err = nil
	}
	return &FormatError{Offset: cr.Offset(), Message: message, Err: err}
}
