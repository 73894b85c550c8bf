package pool

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Task 表示一个工作任务，结果类型由调用方决定
type Task[T any] func(ctx context.Context) T

// WorkerPool 基于ants的工作池，进程内共享
// 常驻worker数有上限，池满时任务直接起协程执行，不在池外排队
type WorkerPool struct {
	pool *ants.Pool
}

// NewWorkerPool 创建一个新的工作池
func NewWorkerPool(maxWorkers int) (*WorkerPool, error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	p, err := ants.NewPool(maxWorkers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &WorkerPool{pool: p}, nil
}

// Running 当前运行中的worker数量
func (p *WorkerPool) Running() int {
	return p.pool.Running()
}

// Cap 工作池容量
func (p *WorkerPool) Cap() int {
	return p.pool.Cap()
}

// Release 释放工作池
func (p *WorkerPool) Release() {
	p.pool.Release()
}

type indexedResult[T any] struct {
	index  int
	result T
}

// ExecuteBatchWithTimeout 在工作池上批量执行任务，按任务顺序返回结果
// 每个任务提交后立即开始执行，一批任务的耗时不受其他批次占用的worker影响
// done[i]为false表示任务i在超时或ctx取消前未完成，对应结果为零值
func ExecuteBatchWithTimeout[T any](ctx context.Context, p *WorkerPool, tasks []Task[T], timeout time.Duration) ([]T, []bool) {
	results := make([]T, len(tasks))
	done := make([]bool, len(tasks))
	if len(tasks) == 0 {
		return results, done
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// 缓冲通道保证超时后迟到的任务不会阻塞
	resultChan := make(chan indexedResult[T], len(tasks))

	for i, task := range tasks {
		i, task := i, task
		run := func() {
			resultChan <- indexedResult[T]{index: i, result: task(ctx)}
		}
		// 非阻塞提交：池满或已释放时直接起协程执行
		if err := p.pool.Submit(run); err != nil {
			go run()
		}
	}

	for received := 0; received < len(tasks); received++ {
		select {
		case r := <-resultChan:
			results[r.index] = r.result
			done[r.index] = true
		case <-ctx.Done():
			return results, done
		}
	}

	return results, done
}
