package graph

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Description 对应 Department 的 depDescription 属性, 按值保存
type Description struct {
	LeaderName    string `msgpack:"leaderName,omitempty"`
	EmployeeCount int64  `msgpack:"employeeCount,omitempty"`
}

// descriptionVersion 编码格式版本, 写在第一个字节
const descriptionVersion byte = 1

// EncodeDescription 编码格式: 1 字节版本号, 后面是 msgpack map
func EncodeDescription(d Description) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(descriptionVersion)
	if err := msgpack.NewEncoder(&buf).Encode(&d); err != nil {
		return nil, errorf(ErrMalformed, "encode: %v", err)
	}
	return buf.Bytes(), nil
}

// DecodeDescription 解码 EncodeDescription 的输出
func DecodeDescription(data []byte) (Description, error) {
	var d Description
	if len(data) == 0 {
		return d, errorf(ErrMalformed, "empty input")
	}
	if data[0] != descriptionVersion {
		return d, errorf(ErrMalformed, "unsupported version %d", data[0])
	}
	r := bytes.NewReader(data[1:])
	dec := msgpack.NewDecoder(r)
	dec.DisallowUnknownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Description{}, errorf(ErrMalformed, "decode: %v", err)
	}
	if r.Len() != 0 {
		return Description{}, errorf(ErrMalformed, "%d trailing bytes", r.Len())
	}
	return d, nil
}
