// Package telemetry defines the read-only flight log contract consumed by
// the notch tracking estimators, plus in-memory and SQLite implementations.
package telemetry

import (
	"errors"
	"slices"
)

var (
	// ErrNoMessage indicates the message type is absent from the log
	ErrNoMessage = errors.New("message not in log")

	// ErrNoField indicates the message type has no such field
	ErrNoField = errors.New("field not in message")

	// ErrNoInstance indicates the message type has no such instance
	ErrNoInstance = errors.New("instance not in message")
)

// TimeField is the microsecond timestamp field carried by every message
const TimeField = "TimeUS"

// MessageType describes one message type found in a log.
type MessageType struct {
	Fields []string `json:"fields"`

	// Instances lists the instance ids in ascending order. It is empty for
	// messages that are not instanced.
	Instances []int `json:"instances,omitempty"`
}

// Instanced reports whether the message carries an instance id
func (m MessageType) Instanced() bool {
	return len(m.Instances) > 0
}

// HasInstance reports whether instance id i was logged
func (m MessageType) HasInstance(i int) bool {
	return slices.Contains(m.Instances, i)
}

// HasField reports whether the message type has the named field
func (m MessageType) HasField(name string) bool {
	return slices.Contains(m.Fields, name)
}

// Log is a decoded flight log. Parsing of the on-disk container format is
// done elsewhere; implementations only expose decoded columns.
//
// Slices returned by Get and GetInstance belong to the log and may be shared
// between calls. Callers must copy a column before modifying it. Columns of
// one message are not guaranteed to be equally long.
type Log interface {
	// MessageTypes returns every message type present in the log.
	MessageTypes() map[string]MessageType

	// Get returns one field of every record of msg in log order,
	// across all instances.
	Get(msg, field string) ([]float64, error)

	// GetInstance returns one field of the records of msg with the given
	// instance id, in log order.
	GetInstance(msg string, instance int, field string) ([]float64, error)
}

// ParamSource gives access to logged parameter values.
type ParamSource interface {
	// Param returns the last logged value of a parameter.
	Param(name string) (float64, bool)
}

// Lookup returns the description of msg if the log contains it
func Lookup(log Log, msg string) (MessageType, bool) {
	if log == nil {
		return MessageType{}, false
	}
	m, ok := log.MessageTypes()[msg]
	return m, ok
}

// TimeUSToSeconds converts microsecond timestamps to seconds
func TimeUSToSeconds(us []float64) []float64 {
	out := make([]float64, len(us))
	for i, t := range us {
		out[i] = t * 1e-6
	}
	return out
}

// Seconds reads the timestamps of msg in seconds
func Seconds(log Log, msg string) ([]float64, error) {
	us, err := log.Get(msg, TimeField)
	if err != nil {
		return nil, err
	}
	return TimeUSToSeconds(us), nil
}

// InstanceSeconds reads the timestamps of one instance of msg in seconds
func InstanceSeconds(log Log, msg string, instance int) ([]float64, error) {
	us, err := log.GetInstance(msg, instance, TimeField)
	if err != nil {
		return nil, err
	}
	return TimeUSToSeconds(us), nil
}
