package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// AnswerKind tags which value an Answer carries.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerOption
	AnswerBool
	AnswerText
)

// Answer is a user's answer (or a question's expected answer). On the wire it is the bare JSON
// number, boolean or string; which one is meaningful depends on the question type and is
// resolved at scoring time.
type Answer struct {
	Kind   AnswerKind
	Option int
	Bool   bool
	Text   string
}

func OptionAnswer(index int) Answer { return Answer{Kind: AnswerOption, Option: index} }

func BoolAnswer(v bool) Answer { return Answer{Kind: AnswerBool, Bool: v} }

func TextAnswer(s string) Answer { return Answer{Kind: AnswerText, Text: s} }

// IsSet reports whether the answer carries a value.
func (a Answer) IsSet() bool {
	return a.Kind != AnswerNone
}

// Equal compares kind and value.
func (a Answer) Equal(other Answer) bool {
	if a.Kind != other.Kind {
		return false
	}
	switch a.Kind {
	case AnswerOption:
		return a.Option == other.Option
	case AnswerBool:
		return a.Bool == other.Bool
	case AnswerText:
		return a.Text == other.Text
	}
	return true
}

// String renders the value as text; an unset answer renders empty.
func (a Answer) String() string {
	switch a.Kind {
	case AnswerOption:
		return strconv.Itoa(a.Option)
	case AnswerBool:
		return strconv.FormatBool(a.Bool)
	case AnswerText:
		return a.Text
	}
	return ""
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerOption:
		return json.Marshal(a.Option)
	case AnswerBool:
		return json.Marshal(a.Bool)
	case AnswerText:
		return json.Marshal(a.Text)
	}
	return []byte("null"), nil
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		*a = Answer{}
	case bytes.Equal(raw, []byte("true")):
		*a = BoolAnswer(true)
	case bytes.Equal(raw, []byte("false")):
		*a = BoolAnswer(false)
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
		}
		*a = TextAnswer(s)
	default:
		idx, err := strconv.Atoi(string(raw))
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAnswer, raw)
		}
		*a = OptionAnswer(idx)
	}
	return nil
}

// Answers maps question IDs to the submitted answer.
type Answers map[int]Answer

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
