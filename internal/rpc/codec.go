/**
 * @description
 * This package defines the wire surface shared by RPC callers and callees:
 * a JSON codec registered with the gRPC encoding registry, the fully
 * qualified method names, and the request/response shapes. Services on both
 * sides of the boundary import this package instead of generated stubs, so
 * the contract lives in one place.
 */

package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype negotiated for every internal RPC call.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}
