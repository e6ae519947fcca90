package idl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matteobertozzi/r5lrpc/pkg/schema"
)

var primitiveTypes = map[string]schema.Type{
	"bool":   schema.TypeBool,
	"int8":   schema.TypeInt8,
	"int16":  schema.TypeInt16,
	"int32":  schema.TypeInt32,
	"int64":  schema.TypeInt64,
	"uint8":  schema.TypeUint8,
	"uint16": schema.TypeUint16,
	"uint32": schema.TypeUint32,
	"uint64": schema.TypeUint64,
	"string": schema.TypeString,
	"bytes":  schema.TypeBytes,
	"blob":   schema.TypeBlob,
}

// Compile resolves a parsed File into a schema.Registry: every
// struct/request/response block becomes a schema.Schema (request and
// response schemas are registered under "<Name>Request"/"<Name>Response"
// since a request and a response block may share a bare Name), and every
// rpc block becomes a schema.RpcService whose calls reference the
// request/response pair compiled from the same bare call name.
func Compile(file *File) (*schema.Registry, error) {
	c := &compiler{
		structs:   make(map[string]*Message),
		requests:  make(map[string]*Message),
		responses: make(map[string]*Message),
		compiled:  make(map[string]*schema.Schema),
		visiting:  make(map[string]bool),
		reg:       schema.NewRegistry(),
	}

	for i := range file.Messages {
		m := &file.Messages[i]
		switch m.Kind {
		case KindStruct:
			if _, dup := c.structs[m.Name]; dup {
				return nil, fmt.Errorf("idl: line %d: duplicate struct %q", m.Line, m.Name)
			}
			c.structs[m.Name] = m
		case KindRequest:
			if _, dup := c.requests[m.Name]; dup {
				return nil, fmt.Errorf("idl: line %d: duplicate request %q", m.Line, m.Name)
			}
			c.requests[m.Name] = m
		case KindResponse:
			if _, dup := c.responses[m.Name]; dup {
				return nil, fmt.Errorf("idl: line %d: duplicate response %q", m.Line, m.Name)
			}
			c.responses[m.Name] = m
		}
	}

	for name := range c.structs {
		s, err := c.compileStruct(name)
		if err != nil {
			return nil, err
		}
		c.reg.Structs[name] = s
	}
	for name, m := range c.requests {
		key := name + "Request"
		s, err := c.compileNamed(m, key)
		if err != nil {
			return nil, err
		}
		c.reg.Structs[key] = s
	}
	for name, m := range c.responses {
		key := name + "Response"
		s, err := c.compileNamed(m, key)
		if err != nil {
			return nil, err
		}
		c.reg.Structs[key] = s
	}

	for i := range file.Services {
		svc, err := c.compileService(&file.Services[i])
		if err != nil {
			return nil, err
		}
		c.reg.Services[svc.Name] = svc
	}

	return c.reg, nil
}

type compiler struct {
	structs   map[string]*Message
	requests  map[string]*Message
	responses map[string]*Message
	compiled  map[string]*schema.Schema
	visiting  map[string]bool
	reg       *schema.Registry
}

func (c *compiler) compileStruct(name string) (*schema.Schema, error) {
	m, ok := c.structs[name]
	if !ok {
		return nil, fmt.Errorf("idl: undefined struct %q", name)
	}
	if c.visiting[name] {
		return nil, fmt.Errorf("idl: struct %q is part of a nested-type reference cycle", name)
	}
	c.visiting[name] = true
	s, err := c.compileNamed(m, name)
	delete(c.visiting, name)
	return s, err
}

// compileNamed compiles m once and caches the result under key, so a
// struct referenced as a nested type from several fields (or a
// request/response compiled once up front and again while building its
// rpc service) is only built a single time.
func (c *compiler) compileNamed(m *Message, key string) (*schema.Schema, error) {
	if s, ok := c.compiled[key]; ok {
		return s, nil
	}
	s, err := c.compileMessage(m, key)
	if err != nil {
		return nil, err
	}
	c.compiled[key] = s
	return s, nil
}

func (c *compiler) compileMessage(m *Message, registeredName string) (*schema.Schema, error) {
	fields := make([]schema.FieldDescriptor, 0, len(m.Fields))
	for _, f := range m.Fields {
		fd, err := c.compileField(f)
		if err != nil {
			return nil, err
		}
		fields = append(fields, fd)
	}

	kind := schema.KindStruct
	switch m.Kind {
	case KindRequest:
		kind = schema.KindRequest
	case KindResponse:
		kind = schema.KindResponse
	}

	s, err := schema.NewSchema(registeredName, kind, fields)
	if err != nil {
		return nil, fmt.Errorf("idl: line %d: %w", m.Line, err)
	}
	return s, nil
}

func (c *compiler) compileField(f Field) (schema.FieldDescriptor, error) {
	fd := schema.FieldDescriptor{UID: f.UID, Name: f.Name, Repeated: f.Type.List}

	typeName := f.Type.Name
	if prim, ok := primitiveTypes[typeName]; ok {
		fd.ElemType = prim
	} else {
		nested, err := c.compileStruct(typeName)
		if err != nil {
			return schema.FieldDescriptor{}, fmt.Errorf("idl: line %d: field %q: %w", f.Line, f.Name, err)
		}
		fd.ElemType = schema.TypeNested
		fd.Nested = nested
	}

	if f.Default != "" {
		def, err := parseDefaultLiteral(fd.ElemType, f.Default)
		if err != nil {
			return schema.FieldDescriptor{}, fmt.Errorf("idl: line %d: field %q: %w", f.Line, f.Name, err)
		}
		fd.Default = def
	}

	return fd, nil
}

// parseDefaultLiteral interprets the raw bracket text of a field's
// default expression according to the field's resolved wire type.
func parseDefaultLiteral(t schema.Type, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case t == schema.TypeString:
		if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
			return raw[1 : len(raw)-1], nil
		}
		return raw, nil
	case t == schema.TypeBool:
		return raw == "true", nil
	case t.IsSignedInt():
		v, err := strconv.ParseInt(raw, 10, 64)
		return v, err
	case t.IsUnsignedInt():
		v, err := strconv.ParseUint(raw, 10, 64)
		return v, err
	default:
		return raw, nil
	}
}

func (c *compiler) compileService(svc *Service) (*schema.RpcService, error) {
	calls := make([]schema.RpcCall, 0, len(svc.Calls))
	for _, call := range svc.Calls {
		req, ok := c.requests[call.Name]
		if !ok {
			return nil, fmt.Errorf("idl: line %d: rpc call %q: no request %q declared", call.Line, call.Name, call.Name)
		}
		resp, ok := c.responses[call.Name]
		if !ok {
			return nil, fmt.Errorf("idl: line %d: rpc call %q: no response %q declared", call.Line, call.Name, call.Name)
		}
		reqSchema, err := c.compileNamed(req, call.Name+"Request")
		if err != nil {
			return nil, err
		}
		respSchema, err := c.compileNamed(resp, call.Name+"Response")
		if err != nil {
			return nil, err
		}
		calls = append(calls, schema.RpcCall{
			UID:      call.UID,
			Name:     call.Name,
			Request:  reqSchema,
			Response: respSchema,
			Async:    call.Async,
		})
	}

	s, err := schema.NewRpcService(svc.Name, calls)
	if err != nil {
		return nil, fmt.Errorf("idl: line %d: %w", svc.Line, err)
	}
	return s, nil
}
