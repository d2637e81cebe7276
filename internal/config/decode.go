package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

var stringSliceType = reflect.TypeOf([]string(nil))

// trimListHook drops surrounding blanks and empty entries produced by
// splitting "a, b,,c".
func trimListHook(from, to reflect.Type, data any) (any, error) {
	if to != stringSliceType || from != stringSliceType {
		return data, nil
	}
	in := data.([]string)
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// weakDecode coerces a YAML value into out: "3" becomes 3, "true" becomes
// true, "a, b" becomes ["a", "b"].
func weakDecode(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.DecodeHookFuncType(trimListHook),
		),
		Result: out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func decodeValue(v any, kind Kind) (any, error) {
	switch kind {
	case KindString:
		if _, isMap := v.(map[string]any); isMap {
			return nil, errors.New("nested mapping given")
		}
		var s string
		err := weakDecode(v, &s)
		return s, err
	case KindInt:
		var n int
		err := weakDecode(v, &n)
		return n, err
	case KindBool:
		var b bool
		err := weakDecode(v, &b)
		return b, err
	case KindStringList:
		if _, isMap := v.(map[string]any); isMap {
			return nil, errors.New("nested mapping given")
		}
		var l []string
		if err := weakDecode(v, &l); err != nil {
			return nil, err
		}
		if l == nil {
			l = []string{}
		}
		return l, nil
	case KindValuesWithReason:
		return decodeValuesWithReason(v)
	}
	return nil, fmt.Errorf("unsupported option kind %d", kind)
}
