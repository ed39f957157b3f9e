// Package codec provides value serialization for cache storage
package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Codec converts domain values to and from the byte encoding stored in the
// backend. The cache never inspects the encoded form.
type Codec interface {
	// Marshal encodes a value for storage
	Marshal(v interface{}) ([]byte, error)

	// Unmarshal decodes stored bytes into dest, which must be a pointer
	Unmarshal(data []byte, dest interface{}) error

	// Name identifies the codec in logs
	Name() string
}

// JSON is the default codec. It handles any value encodable by
// encoding/json, which covers all the domain record shapes.
type JSON struct{}

// NewJSON creates a new JSON codec
func NewJSON() *JSON {
	return &JSON{}
}

// Marshal encodes a value as JSON
func (c *JSON) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON into dest
func (c *JSON) Unmarshal(data []byte, dest interface{}) error {
	return json.Unmarshal(data, dest)
}

// Name identifies the codec
func (c *JSON) Name() string {
	return "json"
}

// Proto encodes protobuf messages in wire format. Values passed to a
// Proto-backed service must implement proto.Message.
type Proto struct{}

// NewProto creates a new protobuf codec
func NewProto() *Proto {
	return &Proto{}
}

// Marshal encodes a proto.Message in wire format
func (c *Proto) Marshal(v interface{}) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("proto codec: %T does not implement proto.Message", v)
	}
	return proto.Marshal(msg)
}

// Unmarshal decodes wire format into dest
func (c *Proto) Unmarshal(data []byte, dest interface{}) error {
	msg, ok := dest.(proto.Message)
	if !ok {
		return fmt.Errorf("proto codec: %T does not implement proto.Message", dest)
	}
	return proto.Unmarshal(data, msg)
}

// Name identifies the codec
func (c *Proto) Name() string {
	return "proto"
}
