package diag

import (
	"fmt"
)

// Code identifies a tool diagnostic (not a rule finding).
type Code uint16

const (
	UnknownCode Code = 0

	// выполнение правил
	RuleExecutionFailed Code = 1001
	RuleFactoryFailed   Code = 1002

	// конфигурация
	ConfigUnknownProperty    Code = 2001
	ConfigNestedExpected     Code = 2002
	ConfigConflictingPattern Code = 2003
	ConfigInvalidPattern     Code = 2004
	ConfigTypeMismatch       Code = 2005

	// фронтенд и дампы деревьев
	FrontendLoadFailed  Code = 3001
	FrontendTreeInvalid Code = 3002

	// кэш и IO
	IOReadFailed  Code = 4001
	CacheFailure  Code = 4002
	FixApplyError Code = 4003
)

var codeDescription = map[Code]string{
	UnknownCode:              "Unknown error",
	RuleExecutionFailed:      "Rule execution failed",
	RuleFactoryFailed:        "Rule could not be instantiated",
	ConfigUnknownProperty:    "Unknown configuration property",
	ConfigNestedExpected:     "Nested configuration expected",
	ConfigConflictingPattern: "Pattern is both included and excluded",
	ConfigInvalidPattern:     "Invalid pattern",
	ConfigTypeMismatch:       "Configuration value has the wrong type",
	FrontendLoadFailed:       "Syntax tree could not be loaded",
	FrontendTreeInvalid:      "Syntax tree is malformed",
	IOReadFailed:             "File could not be read",
	CacheFailure:             "Findings cache failure",
	FixApplyError:            "Correction could not be applied",
}

// ID returns the stable textual identifier, e.g. "CFG2001".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("RUN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("FE%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

// IsConfig reports whether c is a configuration notification.
func (c Code) IsConfig() bool { return c >= 2000 && c < 3000 }

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
