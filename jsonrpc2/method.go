package jsonrpc2

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

var typeOfError = reflect.TypeOf((*error)(nil)).Elem()
var typeOfContext = reflect.TypeOf((*context.Context)(nil)).Elem()

// isExported returns true of a string is an exported (upper case) name.
func isExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// isExportedOrBuiltin returns true if a type is exported or a builtin.
func isExportedOrBuiltin(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return isExported(t.Name()) || t.PkgPath() == ""
}

// methodArgType returns the params type of a method, if it takes one, and
// whether it accepts a context. Supported layouts, after the receiver:
// (), (ctx), (T), (ctx, T).
func methodArgType(methodType reflect.Type) (argType reflect.Type, hasCtx bool, ok bool) {
	pos := 1 // Skip receiver
	if pos < methodType.NumIn() && methodType.In(pos) == typeOfContext {
		hasCtx = true
		pos++
	}
	switch methodType.NumIn() - pos {
	case 0:
		return nil, hasCtx, true
	case 1:
		argType = methodType.In(pos)
		if !isExportedOrBuiltin(argType) {
			return nil, hasCtx, false
		}
		return argType, hasCtx, true
	}
	return nil, hasCtx, false
}

// methodErrPos returns the return value index position of an error type for
// supported return layouts: (), (interface{}), (error), (interface{}, error)
func methodErrPos(methodType reflect.Type) (int, bool) {
	switch methodType.NumOut() {
	case 0:
		return -1, true
	case 1:
		if methodType.Out(0) == typeOfError {
			// Single error return value
			return 0, true
		}
		// Single non-error return value
		return -1, true
	case 2:
		if methodType.Out(1) == typeOfError {
			// Two return values, one error type
			return 1, true
		}
		// Two return values, no error type, unsupported.
		return -1, false
	}
	return -1, false
}

func newMethod(val reflect.Value, method reflect.Method) (Method, error) {
	argType, hasCtx, ok := methodArgType(method.Type)
	if !ok {
		return Method{}, fmt.Errorf("unsupported arguments in method: %s", method.Name)
	}
	errPos, ok := methodErrPos(method.Type)
	if !ok {
		return Method{}, fmt.Errorf("unsupported return values in method: %s", method.Name)
	}
	return Method{
		Receiver: val,
		Method:   method,
		ArgType:  argType,
		ErrPos:   errPos,
		HasCtx:   hasCtx,
	}, nil
}

// Methods returns a mapping of valid method names to Method definitions for a
// instance's receiver. Methods with unsupported signatures are skipped.
func Methods(receiver interface{}) (map[string]Method, error) {
	kind := reflect.TypeOf(receiver)
	val := reflect.ValueOf(receiver)
	if name := reflect.Indirect(val).Type().Name(); !isExported(name) {
		return nil, fmt.Errorf("receiver must be exported: %s", name)
	}

	methods := map[string]Method{}
	for i := 0; i < kind.NumMethod(); i++ {
		method := kind.Method(i)
		if method.PkgPath != "" {
			// Skip unexported methods
			continue
		}
		m, err := newMethod(val, method)
		if err != nil {
			continue
		}
		methods[method.Name] = m
	}

	return methods, nil
}

// MethodByName returns the Method definition for a single method of receiver.
func MethodByName(receiver interface{}, name string) (Method, error) {
	method, ok := reflect.TypeOf(receiver).MethodByName(name)
	if !ok {
		return Method{}, fmt.Errorf("method not found: %s", name)
	}
	return newMethod(reflect.ValueOf(receiver), method)
}

// Method is the definition of a callable method.
type Method struct {
	Receiver reflect.Value
	Method   reflect.Method
	ArgType  reflect.Type
	ErrPos   int
	HasCtx   bool
}

// parseParams decodes a params object into a new value of the method's
// argument type. Missing params decode into the zero value.
func (m *Method) parseParams(rawParams json.RawMessage) ([]reflect.Value, error) {
	if m.ArgType == nil {
		return nil, nil
	}
	ptr := reflect.New(m.ArgType)
	if len(rawParams) > 0 && string(rawParams) != "null" {
		if isArray(rawParams) {
			return nil, fmt.Errorf("positional params are not supported")
		}
		if err := json.Unmarshal(rawParams, ptr.Interface()); err != nil {
			return nil, err
		}
	}
	return []reflect.Value{ptr.Elem()}, nil
}

// CallJSON wraps Call but decodes the argument from a JSON params object.
func (m *Method) CallJSON(ctx context.Context, rawParams json.RawMessage) (interface{}, error) {
	args, err := m.parseParams(rawParams)
	if err != nil {
		return nil, err
	}
	return m.Call(ctx, args)
}

// Call executes the method with the given arguments.
func (m *Method) Call(ctx context.Context, args []reflect.Value) (interface{}, error) {
	want := 0
	if m.ArgType != nil {
		want = 1
	}
	if len(args) != want {
		return nil, fmt.Errorf("invalid number of args: expected %d, got %d", want, len(args))
	}

	arguments := []reflect.Value{m.Receiver}
	if m.HasCtx {
		arguments = append(arguments, reflect.ValueOf(ctx))
	}
	arguments = append(arguments, args...)

	reply := m.Method.Func.Call(arguments)

	// Are there any return values?
	if len(reply) == 0 {
		return nil, nil
	}
	// Is there an error return value?
	if m.ErrPos >= 0 && !reply[m.ErrPos].IsNil() {
		return nil, reply[m.ErrPos].Interface().(error)
	}
	if m.ErrPos == 0 {
		return nil, nil
	}

	// All is good, assume the first result is what we want to return
	// This supports (res), (res, err)
	return reply[0].Interface(), nil
}
