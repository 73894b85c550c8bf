package ai

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/util"
	"github.com/Popoeson/e-library/util/json"
)

// 打分摘要中每条结果的片段长度
const digestSnippetLen = 200

// 同时进行的打分请求数
const maxConcurrentBatches = 4

// digestEntry 发送给模型的精简结果，id是结果在输入中的位置
type digestEntry struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Category string `json:"category"`
}

// Score 为每个结果打分，返回等长、同序的副本，不排序也不删除
// 任何批次失败时该批次全部使用NeutralScore，缺失的id同样使用NeutralScore
func (c *Client) Score(ctx context.Context, query, subject string, results []model.SearchResult) []model.SearchResult {
	scores := make([]float64, len(results))
	for i := range scores {
		scores[i] = NeutralScore
	}

	if c.gen != nil && len(results) > 0 {
		c.scoreBatches(ctx, query, subject, results, scores)
	}

	out := make([]model.SearchResult, len(results))
	for i, r := range results {
		out[i] = r.WithScore(scores[i])
	}
	return out
}

// scoreBatches 分批并发打分，各批次写入scores的不相交区间
func (c *Client) scoreBatches(ctx context.Context, query, subject string, results []model.SearchResult, scores []float64) {
	var (
		rngMu sync.Mutex
		rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)

	for start := 0; start < len(results); start += c.cfg.BatchSize {
		start := start
		end := start + c.cfg.BatchSize
		if end > len(results) {
			end = len(results)
		}

		digest := buildDigest(results[start:end])
		if c.cfg.Shuffle {
			rngMu.Lock()
			rng.Shuffle(len(digest), func(i, j int) { digest[i], digest[j] = digest[j], digest[i] })
			rngMu.Unlock()
		}

		g.Go(func() error {
			batchScores, err := c.scoreBatch(gctx, query, subject, digest)
			if err != nil {
				c.logger.Warn("relevance scoring failed, using neutral score",
					zap.String("stage", StageScore),
					zap.Int("batch_start", start),
					zap.Int("batch_size", end-start),
					zap.Error(err))
				return nil
			}
			missing := 0
			for id := range digest {
				if s, ok := batchScores[id]; ok {
					scores[start+id] = s
				} else {
					missing++
				}
			}
			if missing > 0 {
				c.logger.Debug("model omitted ids, neutral score assigned",
					zap.String("stage", StageScore),
					zap.Int("missing", missing))
			}
			return nil
		})
	}

	// 批次错误已被吸收，Wait只用于等待全部完成
	_ = g.Wait()
}

// scoreBatch 请求一个批次的打分，返回批次内位置到分数的映射
func (c *Client) scoreBatch(ctx context.Context, query, subject string, digest []digestEntry) (map[int]float64, error) {
	payload, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return nil, err
	}

	raw, err := c.generate(ctx, StageScore, scoreSystemPrompt, scoreUserPrompt(query, subject, string(payload)),
		llms.WithTemperature(0), llms.WithMaxTokens(32+len(digest)*16))
	if err != nil {
		return nil, err
	}

	return parseScores(raw, len(digest))
}

// buildDigest 构建批次摘要，id为批次内的原始位置
func buildDigest(results []model.SearchResult) []digestEntry {
	digest := make([]digestEntry, len(results))
	for i, r := range results {
		digest[i] = digestEntry{
			ID:       i,
			Title:    r.Title,
			Snippet:  util.TruncateText(r.Snippet, digestSnippetLen),
			Category: string(r.Category),
		}
	}
	return digest
}
