package store

import (
	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackCodec encodes values with msgpack
type MsgpackCodec struct{}

// Marshal encodes v
func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes data into v
func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

var _ Codec = MsgpackCodec{}
