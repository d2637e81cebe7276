package config

// Kind is the declared type of a rule option.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindStringList
	KindValuesWithReason
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindStringList:
		return "list of strings"
	case KindValuesWithReason:
		return "list of values with reason"
	}
	return "unknown"
}

// Option declares one configurable property of a rule. Fallback names an
// older option whose value is used when Name is not configured.
type Option struct {
	Name        string
	Kind        Kind
	Default     any
	Fallback    string
	Description string
}

// Schema is the ordered list of a rule's own options.
type Schema []Option

// Lookup finds the option called name.
func (s Schema) Lookup(name string) (Option, bool) {
	for _, o := range s {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// Keys accepted on every rule (and, for the first three, every rule set)
// without being declared in a schema.
const (
	KeyActive          = "active"
	KeyIncludes        = "includes"
	KeyExcludes        = "excludes"
	KeyAliases         = "aliases"
	KeySeverity        = "severity"
	KeyAutoCorrect     = "autoCorrect"
	KeyIgnoreAnnotated = "ignoreAnnotated"
	KeyIgnoreFunction  = "ignoreFunction"
)

// GenericOptions are resolved for every rule in addition to its schema.
var GenericOptions = Schema{
	{Name: KeyActive, Kind: KindBool, Default: true},
	{Name: KeyIncludes, Kind: KindStringList},
	{Name: KeyExcludes, Kind: KindStringList},
	{Name: KeyAliases, Kind: KindStringList},
	{Name: KeySeverity, Kind: KindString, Default: "warning"},
	{Name: KeyAutoCorrect, Kind: KindBool, Default: false},
	{Name: KeyIgnoreAnnotated, Kind: KindStringList},
	{Name: KeyIgnoreFunction, Kind: KindStringList},
}

// IsGenericKey reports whether key is one of GenericOptions.
func IsGenericKey(key string) bool {
	_, ok := GenericOptions.Lookup(key)
	return ok
}
