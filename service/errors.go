package service

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery 查询为空或只有空白
var ErrInvalidQuery = errors.New("query is required")

// InternalError 流水线内部阶段的意外失败，详细信息只记录在服务端
type InternalError struct {
	Stage string
	Err   error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// runStage 执行一个阶段并把panic转换为InternalError
func runStage(stage string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InternalError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := fn(); err != nil {
		var internal *InternalError
		if errors.As(err, &internal) {
			return err
		}
		return &InternalError{Stage: stage, Err: err}
	}
	return nil
}
