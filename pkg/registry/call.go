package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/ztrue/tracerr"

	"github.com/jdziat/backgrounder/pkg/core"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Call invokes method on target with args as positional arguments.
//
// A leading context.Context parameter receives ctx. Arguments that are not
// directly assignable are converted through JSON, so values decoded from a
// backend payload reach typed parameters. A trailing error result is
// returned; other results are discarded. Panics are recovered into an error
// carrying the panic's stack trace.
func Call(ctx context.Context, target any, method string, args []any) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = tracerr.Wrap(fmt.Errorf("panic: %v", p))
		}
	}()

	fn, ok := lookupMethod(reflect.ValueOf(target), method)
	if !ok {
		return fmt.Errorf("%w %q for %s", core.ErrUnknownMethod, method, core.TypeName(target))
	}

	in, err := buildArgs(ctx, fn.Type(), args)
	if err != nil {
		return fmt.Errorf("%s#%s: %w", core.TypeName(target), method, err)
	}

	return resultError(fn.Call(in))
}

// Responds reports whether target has a method callable under name.
func Responds(target any, method string) bool {
	_, ok := lookupMethod(reflect.ValueOf(target), method)
	return ok
}

func lookupMethod(v reflect.Value, name string) (reflect.Value, bool) {
	if !v.IsValid() || name == "" {
		return reflect.Value{}, false
	}
	for _, candidate := range methodCandidates(name) {
		if m := v.MethodByName(candidate); m.IsValid() {
			return m, true
		}
	}
	return reflect.Value{}, false
}

// methodCandidates returns name followed by its CamelCase form when that differs.
func methodCandidates(name string) []string {
	camel := toCamel(name)
	if camel == name {
		return []string{name}
	}
	return []string{name, camel}
}

func toCamel(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

func buildArgs(ctx context.Context, fnType reflect.Type, args []any) ([]reflect.Value, error) {
	numIn := fnType.NumIn()
	in := make([]reflect.Value, 0, numIn+len(args))

	first := 0
	if numIn > 0 && fnType.In(0) == contextType {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(ctx))
		first = 1
	}

	params := numIn - first
	variadic := fnType.IsVariadic()
	if (!variadic && len(args) != params) || (variadic && len(args) < params-1) {
		return nil, fmt.Errorf("%w (given %d, expected %d)", core.ErrArgumentCount, len(args), params)
	}

	for i, arg := range args {
		var paramType reflect.Type
		if variadic && i >= params-1 {
			paramType = fnType.In(numIn - 1).Elem()
		} else {
			paramType = fnType.In(first + i)
		}

		v, err := convertArg(arg, paramType)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		in = append(in, v)
	}
	return in, nil
}

func convertArg(arg any, paramType reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(paramType), nil
	}

	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(paramType) {
		return v, nil
	}

	data, err := json.Marshal(arg)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s: %w", arg, paramType, err)
	}
	ptr := reflect.New(paramType)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s: %w", arg, paramType, err)
	}
	return ptr.Elem(), nil
}

func resultError(out []reflect.Value) error {
	if len(out) == 0 {
		return nil
	}
	last := out[len(out)-1]
	if !last.Type().Implements(errorType) {
		return nil
	}
	switch last.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if last.IsNil() {
			return nil
		}
	}
	return last.Interface().(error)
}
