package mqtt

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
)

// Fields is the encoding independent content of a published message.
// Values are strings, bools, uint64, float64, []byte or nested Fields.
type Fields map[string]interface{}

// Encoder serializes Fields.
type Encoder interface {
	Name() string
	Encode(Fields) ([]byte, error)
	Decode([]byte) (Fields, error)
}

// ProtoEncoder encodes as google.protobuf.Struct. Numbers become doubles
// and byte strings become hex.
type ProtoEncoder struct{}

// CBOREncoder encodes as a CBOR map.
type CBOREncoder struct{}

// EncoderByName looks up an Encoder.
func EncoderByName(name string) (Encoder, error) {
	switch name {
	case "", "proto":
		return ProtoEncoder{}, nil
	case "cbor":
		return CBOREncoder{}, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}

// Name implements Encoder.
func (ProtoEncoder) Name() string { return "proto" }

// Encode implements Encoder.
func (ProtoEncoder) Encode(fields Fields) ([]byte, error) {
	s, err := toStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// Decode implements Encoder.
func (ProtoEncoder) Decode(b []byte) (Fields, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return fromStruct(&s), nil
}

func toStruct(fields Fields) (*structpb.Struct, error) {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for key, val := range fields {
		v, err := toValue(val)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		s.Fields[key] = v
	}
	return s, nil
}

func toValue(val interface{}) (*structpb.Value, error) {
	switch v := val.(type) {
	case nil:
		return &structpb.Value{Kind: &structpb.Value_NullValue{}}, nil
	case string:
		return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: v}}, nil
	case bool:
		return &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: v}}, nil
	case uint64:
		return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: float64(v)}}, nil
	case float64:
		return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}, nil
	case []byte:
		return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: hex.EncodeToString(v)}}, nil
	case Fields:
		s, err := toStruct(v)
		if err != nil {
			return nil, err
		}
		return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: s}}, nil
	}
	return nil, fmt.Errorf("unsupported type %T", val)
}

func fromStruct(s *structpb.Struct) Fields {
	fields := make(Fields, len(s.Fields))
	for key, v := range s.Fields {
		fields[key] = fromValue(v)
	}
	return fields
}

func fromValue(v *structpb.Value) interface{} {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_NumberValue:
		return k.NumberValue
	case *structpb.Value_StructValue:
		return fromStruct(k.StructValue)
	}
	return nil
}

var cborEncMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// Name implements Encoder.
func (CBOREncoder) Name() string { return "cbor" }

// Encode implements Encoder.
func (CBOREncoder) Encode(fields Fields) ([]byte, error) {
	return cborEncMode.Marshal(toMap(fields))
}

// Decode implements Encoder.
func (CBOREncoder) Decode(b []byte) (Fields, error) {
	var m map[string]interface{}
	if err := cbor.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return fromMap(m), nil
}

func toMap(fields Fields) map[string]interface{} {
	m := make(map[string]interface{}, len(fields))
	for key, val := range fields {
		if nested, ok := val.(Fields); ok {
			val = toMap(nested)
		}
		m[key] = val
	}
	return m
}

func fromMap(m map[string]interface{}) Fields {
	fields := make(Fields, len(m))
	for key, val := range m {
		if nested, ok := val.(map[interface{}]interface{}); ok {
			inner := make(map[string]interface{}, len(nested))
			for k, v := range nested {
				inner[fmt.Sprint(k)] = v
			}
			val = fromMap(inner)
		}
		fields[key] = val
	}
	return fields
}

// Keys returns the field names in order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
