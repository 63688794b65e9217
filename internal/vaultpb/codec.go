// Package vaultpb is the hand-authored client/server contract for the
// external key-vault's KeysPairs.keysPairs RPC. There is no protoc step in
// this build, so the wire types below carry JSON struct tags instead of
// protobuf-generated marshaling, transported over a genuine gRPC channel
// via a registered JSON codec — the same approach DeltaRule-DeltaDatabase's
// api/proto package uses for its MainWorker service.
package vaultpb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

func init() {
	encoding.RegisterCodec(JSONCodec{})
	// Registered under "proto" too so a standard gRPC peer negotiating
	// Content-Type: application/grpc+proto still round-trips correctly;
	// the wire payload is JSON either way since our structs have no
	// protobuf binary representation.
	encoding.RegisterCodec(protoNamedJSONCodec{})
}

// JSONCodec lets the hand-written request/response structs travel over a
// real grpc.ClientConn / grpc.Server without generated marshal code.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

type protoNamedJSONCodec struct{}

func (protoNamedJSONCodec) Name() string { return "proto" }

func (protoNamedJSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (protoNamedJSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
