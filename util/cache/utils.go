package cache

import (
	"bytes"
	"sync"

	"github.com/Popoeson/e-library/util/json"
)

// 缓冲区对象池
var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// SerializeWithPool 使用对象池序列化数据
func SerializeWithPool(v interface{}) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	encoder := json.API.NewEncoder(buf)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	// 复制结果以避免池化对象被修改
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// DeserializeWithPool 反序列化缓存数据
func DeserializeWithPool(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
