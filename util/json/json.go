package json

import (
	stdjson "encoding/json"
	"io"

	"github.com/bytedance/sonic"
)

// Number UseNumber模式下数字解码为此类型
type Number = stdjson.Number

// API 全局sonic配置实例
var API = sonic.ConfigDefault

func init() {
	// UseNumber保留数字原样，方便解析AI返回的打分（整数、小数、字符串混杂）
	API = sonic.Config{
		UseNumber:   true,
		EscapeHTML:  true,
		SortMapKeys: true, // 保证sourcesCount等map输出稳定
	}.Froze()
}

// Marshal 使用sonic序列化对象到JSON
func Marshal(v interface{}) ([]byte, error) {
	return API.Marshal(v)
}

// Unmarshal 使用sonic反序列化JSON到对象
func Unmarshal(data []byte, v interface{}) error {
	return API.Unmarshal(data, v)
}

// DecodeFirst 从reader解码第一个完整的JSON值，忽略其后的内容
func DecodeFirst(r io.Reader, v interface{}) error {
	return API.NewDecoder(r).Decode(v)
}

// MarshalIndent 序列化对象到格式化的JSON
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return API.MarshalIndent(v, prefix, indent)
}
