package telemetry

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
)

// MemoryLog is a Log held entirely in memory, built record by record or
// column by column. Fields missing from a record read back as NaN.
type MemoryLog struct {
	messages map[string]*memMessage
	params   map[string]float64
}

type memMessage struct {
	fields    []string
	instanced bool
	instances []int
	columns   map[string][]float64
}

func (m *memMessage) rows() int {
	return len(m.instances)
}

func (m *memMessage) ensureField(name string) {
	if _, ok := m.columns[name]; ok {
		return
	}
	col := make([]float64, m.rows())
	for i := range col {
		col[i] = math.NaN()
	}
	m.columns[name] = col
	m.fields = append(m.fields, name)
}

// NewMemoryLog creates an empty in-memory log
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		messages: make(map[string]*memMessage),
		params:   make(map[string]float64),
	}
}

func (l *MemoryLog) message(msg string, instanced bool) *memMessage {
	m, ok := l.messages[msg]
	if !ok {
		m = &memMessage{instanced: instanced, columns: make(map[string][]float64)}
		l.messages[msg] = m
	}
	if m.instanced != instanced {
		panic(fmt.Sprintf("telemetry: message %s mixes instanced and plain records", msg))
	}
	return m
}

func (l *MemoryLog) appendRow(m *memMessage, instance int, values map[string]float64) {
	for _, name := range slices.Sorted(maps.Keys(values)) {
		m.ensureField(name)
	}
	m.instances = append(m.instances, instance)
	for _, name := range m.fields {
		v, ok := values[name]
		if !ok {
			v = math.NaN()
		}
		m.columns[name] = append(m.columns[name], v)
	}
}

// Add appends one record of a message that is not instanced.
func (l *MemoryLog) Add(msg string, values map[string]float64) *MemoryLog {
	l.appendRow(l.message(msg, false), -1, values)
	return l
}

// AddInstance appends one record of an instanced message.
func (l *MemoryLog) AddInstance(msg string, instance int, values map[string]float64) *MemoryLog {
	l.appendRow(l.message(msg, true), instance, values)
	return l
}

func (l *MemoryLog) addColumns(msg string, instanced bool, instance int, columns map[string][]float64) *MemoryLog {
	n := -1
	for name, col := range columns {
		if n >= 0 && len(col) != n {
			panic(fmt.Sprintf("telemetry: %s.%s has %d samples, want %d", msg, name, len(col), n))
		}
		n = len(col)
	}

	m := l.message(msg, instanced)
	names := slices.Sorted(maps.Keys(columns))
	for i := range max(n, 0) {
		row := make(map[string]float64, len(names))
		for _, name := range names {
			row[name] = columns[name][i]
		}
		l.appendRow(m, instance, row)
	}
	return l
}

// AddSeries appends equally long columns of a message that is not instanced.
func (l *MemoryLog) AddSeries(msg string, columns map[string][]float64) *MemoryLog {
	return l.addColumns(msg, false, -1, columns)
}

// AddInstanceSeries appends equally long columns for one instance.
func (l *MemoryLog) AddInstanceSeries(msg string, instance int, columns map[string][]float64) *MemoryLog {
	return l.addColumns(msg, true, instance, columns)
}

// SetParam records a parameter value; later values replace earlier ones.
func (l *MemoryLog) SetParam(name string, value float64) *MemoryLog {
	l.params[name] = value
	return l
}

// Param returns the value of a parameter.
func (l *MemoryLog) Param(name string) (float64, bool) {
	v, ok := l.params[name]
	return v, ok
}

// Params returns a copy of every parameter value.
func (l *MemoryLog) Params() map[string]float64 {
	return maps.Clone(l.params)
}

// MessageTypes returns every message type present in the log.
func (l *MemoryLog) MessageTypes() map[string]MessageType {
	out := make(map[string]MessageType, len(l.messages))
	for name, m := range l.messages {
		t := MessageType{Fields: slices.Clone(m.fields)}
		if m.instanced {
			seen := make(map[int]struct{})
			for _, inst := range m.instances {
				seen[inst] = struct{}{}
			}
			t.Instances = slices.Collect(maps.Keys(seen))
			sort.Ints(t.Instances)
		}
		out[name] = t
	}
	return out
}

func (l *MemoryLog) column(msg, field string) (*memMessage, []float64, error) {
	m, ok := l.messages[msg]
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", msg, ErrNoMessage)
	}
	col, ok := m.columns[field]
	if !ok {
		return nil, nil, fmt.Errorf("%s.%s: %w", msg, field, ErrNoField)
	}
	return m, col, nil
}

// Get returns one field of every record of msg.
func (l *MemoryLog) Get(msg, field string) ([]float64, error) {
	_, col, err := l.column(msg, field)
	if err != nil {
		return nil, err
	}
	return slices.Clone(col), nil
}

// GetInstance returns one field of the records of one instance of msg.
func (l *MemoryLog) GetInstance(msg string, instance int, field string) ([]float64, error) {
	m, col, err := l.column(msg, field)
	if err != nil {
		return nil, err
	}
	if !m.instanced || !slices.Contains(m.instances, instance) {
		return nil, fmt.Errorf("%s[%d]: %w", msg, instance, ErrNoInstance)
	}

	out := make([]float64, 0, len(col))
	for i, inst := range m.instances {
		if inst == instance {
			out = append(out, col[i])
		}
	}
	return out, nil
}
