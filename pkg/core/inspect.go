package core

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Inspect renders method arguments for log lines and diagnostics.
// Absent arguments render as nil, strings are quoted.
func Inspect(args []any) string {
	if args == nil {
		return "nil"
	}
	var b strings.Builder
	inspectSlice(&b, args)
	return b.String()
}

// TypeName returns the name of v's type without pointer indirection.
func TypeName(v any) string {
	if v == nil {
		return "nil"
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}

func inspectSlice(b *strings.Builder, items []any) {
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		inspectValue(b, item)
	}
	b.WriteByte(']')
}

func inspectValue(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("nil")
	case string:
		b.WriteString(strconv.Quote(val))
	case []any:
		if val == nil {
			b.WriteString("nil")
			return
		}
		inspectSlice(b, val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(": ")
			inspectValue(b, val[k])
		}
		b.WriteByte('}')
	case error:
		b.WriteString(strconv.Quote(val.Error()))
	default:
		inspectReflect(b, reflect.ValueOf(v))
	}
}

// inspectReflect renders typed strings, slices, maps and structs the way
// their JSON-decoded counterparts render.
func inspectReflect(b *strings.Builder, v reflect.Value) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			b.WriteString("nil")
			return
		}
		inspectValue(b, v.Elem().Interface())
	case reflect.String:
		b.WriteString(strconv.Quote(v.String()))
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			b.WriteString("nil")
			return
		}
		items := make([]any, v.Len())
		for i := range items {
			items[i] = v.Index(i).Interface()
		}
		inspectSlice(b, items)
	case reflect.Map:
		if v.IsNil() {
			b.WriteString("nil")
			return
		}
		pairs := make([][2]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			var k, e strings.Builder
			inspectValue(&k, iter.Key().Interface())
			inspectValue(&e, iter.Value().Interface())
			pairs = append(pairs, [2]string{k.String(), e.String()})
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
		b.WriteByte('{')
		for i, pair := range pairs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(pair[0])
			b.WriteString(": ")
			b.WriteString(pair[1])
		}
		b.WriteByte('}')
	case reflect.Struct:
		data, err := json.Marshal(v.Interface())
		var decoded any
		if err == nil && json.Unmarshal(data, &decoded) == nil {
			inspectValue(b, decoded)
			return
		}
		fmt.Fprintf(b, "%v", v.Interface())
	default:
		fmt.Fprintf(b, "%v", v.Interface())
	}
}
