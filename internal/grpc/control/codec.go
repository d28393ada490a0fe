package control

import (
	"github.com/bytedance/sonic"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype the control service speaks.
const CodecName = "json"

type codec struct{}

func (codec) Marshal(v interface{}) ([]byte, error)      { return sonic.Marshal(v) }
func (codec) Unmarshal(data []byte, v interface{}) error { return sonic.Unmarshal(data, v) }
func (codec) Name() string                               { return CodecName }

func init() {
	encoding.RegisterCodec(codec{})
}
