// Package params analyzes parameter-object structs for struct-based injection.
package params

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"
)

var (
	ErrNotStruct  = errors.New("parameter object must be a struct")
	ErrInvalidTag = errors.New("invalid struct tag")
)

// Tag keys understood on parameter-object fields.
const (
	TagInject   = "inject"
	TagOptional = "optional"
)

// Field describes one injectable field of a parameter object.
type Field struct {
	Index    int
	Field    string       // Go field name
	Name     string       // parameter name: the inject tag, or the field name
	Type     reflect.Type // field type
	Optional bool
}

// Info describes a parameter-object struct.
type Info struct {
	Type   reflect.Type
	Fields []Field
}

var cache sync.Map // map[reflect.Type]*Info

// Analyze inspects t, which must be a struct type. Exported fields become
// parameters; `inject:"-"` excludes a field, `inject:"name"` renames it and
// `optional:"true"` makes it optional. Unexported and embedded fields are ignored.
func Analyze(t reflect.Type) (*Info, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %v", ErrNotStruct, t)
	}

	if cached, ok := cache.Load(t); ok {
		return cached.(*Info), nil
	}

	info := &Info{Type: t}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous || !sf.IsExported() {
			continue
		}

		f, skip, err := parseField(i, sf)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		info.Fields = append(info.Fields, f)
	}

	actual, _ := cache.LoadOrStore(t, info)
	return actual.(*Info), nil
}

func parseField(index int, sf reflect.StructField) (Field, bool, error) {
	f := Field{
		Index: index,
		Field: sf.Name,
		Name:  sf.Name,
		Type:  sf.Type,
	}

	if name, ok := sf.Tag.Lookup(TagInject); ok {
		switch name {
		case "-":
			return Field{}, true, nil
		case "":
			return Field{}, false, fmt.Errorf("%w: field %s has an empty %s tag", ErrInvalidTag, sf.Name, TagInject)
		default:
			f.Name = name
		}
	}

	if raw, ok := sf.Tag.Lookup(TagOptional); ok {
		optional, err := strconv.ParseBool(raw)
		if err != nil {
			return Field{}, false, fmt.Errorf("%w: field %s: %s:%q", ErrInvalidTag, sf.Name, TagOptional, raw)
		}
		f.Optional = optional
	}

	return f, false, nil
}
