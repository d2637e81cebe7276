package syntax

import "fmt"

// Kind tags the variant of a syntax node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFile
	KindPackageDirective
	KindImportList
	KindImportDirective
	KindClass
	KindObject
	KindEnumEntry
	KindFunction
	KindProperty
	KindParameter
	KindBlock
	KindIf
	KindWhen
	KindWhenEntry
	KindCall
	KindDotQualified
	KindSafeQualified
	KindLambda
	KindStringTemplate
	KindStringTemplateEntry
	KindAnnotation
	KindModifierList
	KindComment
	KindStatement
	KindExpression
	KindIdentifier
	KindLiteral

	kindCount
)

var kindNames = [...]string{
	KindInvalid:             "invalid",
	KindFile:                "file",
	KindPackageDirective:    "package",
	KindImportList:          "import_list",
	KindImportDirective:     "import",
	KindClass:               "class",
	KindObject:              "object",
	KindEnumEntry:           "enum_entry",
	KindFunction:            "function",
	KindProperty:            "property",
	KindParameter:           "parameter",
	KindBlock:               "block",
	KindIf:                  "if",
	KindWhen:                "when",
	KindWhenEntry:           "when_entry",
	KindCall:                "call",
	KindDotQualified:        "dot_qualified",
	KindSafeQualified:       "safe_qualified",
	KindLambda:              "lambda",
	KindStringTemplate:      "string_template",
	KindStringTemplateEntry: "string_template_entry",
	KindAnnotation:          "annotation",
	KindModifierList:        "modifier_list",
	KindComment:             "comment",
	KindStatement:           "statement",
	KindExpression:          "expression",
	KindIdentifier:          "identifier",
	KindLiteral:             "literal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps the textual kind used in tree dumps back to a Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s && Kind(i) != KindInvalid {
			return Kind(i), nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown node kind %q", s)
}

// IsDeclaration reports whether nodes of this kind can carry declaration-level
// annotations (and therefore suppression directives).
func (k Kind) IsDeclaration() bool {
	switch k {
	case KindClass, KindObject, KindEnumEntry, KindFunction, KindProperty, KindParameter:
		return true
	}
	return false
}

// Role describes the slot a child occupies in its parent.
type Role uint8

const (
	RoleNone Role = iota
	RoleCondition
	RoleThen
	RoleElse
	RoleBody
	RoleReceiver
	RoleSelector
	RoleArgument
	RoleSubject

	roleCount
)

var roleNames = [...]string{
	RoleNone:      "",
	RoleCondition: "condition",
	RoleThen:      "then",
	RoleElse:      "else",
	RoleBody:      "body",
	RoleReceiver:  "receiver",
	RoleSelector:  "selector",
	RoleArgument:  "argument",
	RoleSubject:   "subject",
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// ParseRole maps the textual role used in tree dumps back to a Role.
func ParseRole(s string) (Role, error) {
	for i, name := range roleNames {
		if name == s {
			return Role(i), nil
		}
	}
	return RoleNone, fmt.Errorf("unknown node role %q", s)
}
