// Package protocol defines the wire vocabulary of the control channel: the
// closed set of operations a client can send to a running daemon and their
// encode/decode contract. Frames are single JSON values; the five zero-
// argument commands are additionally accepted as bare lowercase keywords for
// backward compatibility with `echo start | socat`-style scripting.
package protocol

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ExitSignal is the frame content that tells the listener to tear down its
// socket and stop. It is matched case-sensitively and bypasses decoding.
const ExitSignal = "exit"

// IsExit reports whether a raw frame carries the exit signal.
func IsExit(frame string) bool {
	return strings.Contains(frame, ExitSignal)
}

// Op enumerates the control operations. The string value doubles as the wire
// tag (kebab-case, matching the original protocol).
type Op string

const (
	OpStart     Op = "start"
	OpStop      Op = "stop"
	OpToggle    Op = "toggle"
	OpReset     Op = "reset"
	OpNextState Op = "next-state"

	OpSetWork    Op = "set-work"
	OpSetShort   Op = "set-short"
	OpSetLong    Op = "set-long"
	OpSetCurrent Op = "set-current"
)

func (op Op) isCommand() bool {
	switch op {
	case OpStart, OpStop, OpToggle, OpReset, OpNextState:
		return true
	}
	return false
}

func (op Op) isDurationOp() bool {
	switch op {
	case OpSetWork, OpSetShort, OpSetLong, OpSetCurrent:
		return true
	}
	return false
}

// ValueKind distinguishes absolute sets from signed deltas.
type ValueKind int

const (
	// KindSet stores the value as the new duration.
	KindSet ValueKind = iota
	// KindAdd increases the duration by the value.
	KindAdd
	// KindSubtract decreases the duration by the value.
	KindSubtract
)

// timeValuePattern accepts "25", "+5", "5+", "-3", "3-". Prefix and suffix
// signs are mutually exclusive.
var timeValuePattern = regexp.MustCompile(`^([+-])?(\d+)([+-])?$`)

// TimeValue is the payload of a duration operation: a minute count in the
// signed 16-bit range, interpreted per Kind.
type TimeValue struct {
	Kind    ValueKind
	Minutes int16
}

// ParseTimeValue parses the textual time-value forms.
func ParseTimeValue(s string) (TimeValue, error) {
	m := timeValuePattern.FindStringSubmatch(s)
	if m == nil {
		return TimeValue{}, fmt.Errorf("invalid time value %q", s)
	}
	prefix, digits, suffix := m[1], m[2], m[3]

	if prefix != "" && suffix != "" {
		return TimeValue{}, fmt.Errorf("invalid time value %q: prefix and suffix sign are mutually exclusive", s)
	}

	n, err := strconv.ParseInt(digits, 10, 16)
	if err != nil {
		return TimeValue{}, fmt.Errorf("invalid time value %q: %w", s, err)
	}

	sign := prefix
	if sign == "" {
		sign = suffix
	}
	switch sign {
	case "+":
		return TimeValue{Kind: KindAdd, Minutes: int16(n)}, nil
	case "-":
		return TimeValue{Kind: KindSubtract, Minutes: int16(n)}, nil
	default:
		return TimeValue{Kind: KindSet, Minutes: int16(n)}, nil
	}
}

// String renders the canonical textual form: "25", "+5", "-3".
func (v TimeValue) String() string {
	switch v.Kind {
	case KindAdd:
		return fmt.Sprintf("+%d", v.Minutes)
	case KindSubtract:
		return fmt.Sprintf("-%d", v.Minutes)
	default:
		return strconv.Itoa(int(v.Minutes))
	}
}

// SignedMinutes returns the value as a signed delta: negative for subtract.
// For KindSet the plain minute count is returned.
func (v TimeValue) SignedMinutes() int {
	if v.Kind == KindSubtract {
		return -int(v.Minutes)
	}
	return int(v.Minutes)
}

// MarshalJSON encodes the canonical textual form as a JSON string.
func (v TimeValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON decodes any of the accepted textual forms.
func (v *TimeValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeValue(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Message is one decoded control operation. Time is meaningful only for
// duration ops.
type Message struct {
	Op   Op
	Time TimeValue
}

type timePayload struct {
	Time TimeValue `json:"time"`
}

// Encode serializes to the canonical wire frame: a JSON string for commands
// ("start"), a single-key tagged object for duration ops
// ({"set-work":{"time":"+5"}}).
func (m Message) Encode() (string, error) {
	if m.Op.isCommand() {
		data, err := json.Marshal(string(m.Op))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if !m.Op.isDurationOp() {
		return "", fmt.Errorf("unknown operation %q", m.Op)
	}
	data, err := json.Marshal(map[Op]timePayload{m.Op: {Time: m.Time}})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a wire frame. It is a two-stage attempt: a structured JSON
// parse first, then the input re-tried as a quoted bare keyword with
// surrounding whitespace trimmed. If both fail the first error is returned.
func Decode(input string) (Message, error) {
	msg, err := decodeJSON(input)
	if err == nil {
		return msg, nil
	}

	quoted := strconv.Quote(strings.TrimSpace(input))
	if msg, retryErr := decodeJSON(quoted); retryErr == nil {
		return msg, nil
	}
	return Message{}, err
}

func decodeJSON(input string) (Message, error) {
	// Commands travel as plain JSON strings.
	var keyword string
	if err := json.Unmarshal([]byte(input), &keyword); err == nil {
		op := Op(keyword)
		if !op.isCommand() {
			return Message{}, fmt.Errorf("unknown command %q", keyword)
		}
		return Message{Op: op}, nil
	}

	var tagged map[string]timePayload
	if err := json.Unmarshal([]byte(input), &tagged); err != nil {
		return Message{}, fmt.Errorf("decoding frame: %w", err)
	}
	if len(tagged) != 1 {
		return Message{}, fmt.Errorf("frame must carry exactly one operation, got %d", len(tagged))
	}
	for tag, payload := range tagged {
		op := Op(tag)
		if !op.isDurationOp() {
			return Message{}, fmt.Errorf("unknown operation %q", tag)
		}
		return Message{Op: op, Time: payload.Time}, nil
	}
	return Message{}, fmt.Errorf("empty frame")
}
