// Package fieldstruct implements the schema-driven FieldStruct body
// codec: given a *schema.Schema and an Instance of present field values,
// Encode walks the field table in uid order and writes one TLV field per
// present value; Decode reads the field-count prefix and dispatches each
// TLV field back to a typed value, skipping any field uid the schema
// does not recognize (forward compatibility).
package fieldstruct

import (
	"reflect"

	"github.com/matteobertozzi/r5lrpc/pkg/schema"
)

// Instance is a schema reference plus a sparse map of present field
// values, keyed by field uid. It is the closed capability-set view over
// a decoded (or about-to-be-encoded) message: callers look up fields by
// uid through Get/GetOrDefault rather than reflecting over arbitrary
// struct tags.
type Instance struct {
	Schema *schema.Schema
	values map[uint64]any
}

// NewInstance creates an empty instance over s with no fields present.
func NewInstance(s *schema.Schema) *Instance {
	return &Instance{Schema: s, values: make(map[uint64]any)}
}

// Set stores v as the value for uid, marking the field present.
func (i *Instance) Set(uid uint64, v any) {
	i.values[uid] = v
}

// Present reports whether uid has a value set on this instance.
func (i *Instance) Present(uid uint64) bool {
	_, ok := i.values[uid]
	return ok
}

// Get returns the raw value for uid and whether it was present.
func (i *Instance) Get(uid uint64) (any, bool) {
	v, ok := i.values[uid]
	return v, ok
}

// GetOrDefault returns the value for uid if present, else the schema
// field's declared default, else the zero value for its type.
func (i *Instance) GetOrDefault(uid uint64) any {
	if v, ok := i.values[uid]; ok {
		return v
	}
	fd := i.Schema.FieldByUID(uid)
	if fd == nil {
		return nil
	}
	if fd.Default != nil {
		return fd.Default
	}
	return zeroValue(fd)
}

// ForEachPresent calls fn once per present field, in ascending uid order.
func (i *Instance) ForEachPresent(fn func(uid uint64, v any)) {
	for _, fd := range i.Schema.Fields {
		if v, ok := i.values[fd.UID]; ok {
			fn(fd.UID, v)
		}
	}
}

func zeroValue(fd *schema.FieldDescriptor) any {
	if fd.Repeated {
		return nil
	}
	switch {
	case fd.ElemType == schema.TypeBool:
		return false
	case fd.ElemType.IsUnsignedInt():
		return uint64(0)
	case fd.ElemType.IsSignedInt():
		return int64(0)
	case fd.ElemType == schema.TypeString:
		return ""
	case fd.ElemType == schema.TypeBytes, fd.ElemType == schema.TypeBlob:
		return []byte(nil)
	case fd.ElemType == schema.TypeNested:
		return (*Instance)(nil)
	default:
		return nil
	}
}

// Equal reports whether i and o hold structurally equal present fields,
// filling in defaults for fields absent on either side, recursing into
// nested instances.
func (i *Instance) Equal(o *Instance) bool {
	if i == nil || o == nil {
		return i == o
	}
	if i.Schema != o.Schema {
		return false
	}
	for _, fd := range i.Schema.Fields {
		av := i.GetOrDefault(fd.UID)
		bv := o.GetOrDefault(fd.UID)
		if !valuesEqual(&fd, av, bv) {
			return false
		}
	}
	return true
}

func valuesEqual(fd *schema.FieldDescriptor, a, b any) bool {
	if fd.ElemType == schema.TypeNested && !fd.Repeated {
		ai, _ := a.(*Instance)
		bi, _ := b.(*Instance)
		return ai.Equal(bi)
	}
	if fd.ElemType == schema.TypeNested && fd.Repeated {
		al, _ := a.([]*Instance)
		bl, _ := b.([]*Instance)
		if len(al) != len(bl) {
			return false
		}
		for idx := range al {
			if !al[idx].Equal(bl[idx]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}
