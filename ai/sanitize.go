package ai

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Popoeson/e-library/util/json"
)

// MaxRewriteLen 改写结果的最大字符数，超出视为模型在闲聊
const MaxRewriteLen = 256

// 改写结果可能带的前缀标签
var rewriteLabels = []string{"rewritten query:", "rewritten:", "query:", "search query:"}

var errNoArray = errors.New("no JSON array in model output")

// stripFences 去掉markdown代码块标记
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// 去掉语言标记（```json）
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		if lang := strings.TrimSpace(s[:idx]); !strings.ContainsAny(lang, "[{") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeScoreArray 从每个'['开始尝试解码第一个完整的对象数组
// 数组前后的说明文字（即使含有方括号）都被忽略
func decodeScoreArray(raw string) ([]map[string]interface{}, error) {
	s := stripFences(raw)
	lastErr := errNoArray
	for i := 0; i < len(s); i++ {
		if s[i] != '[' {
			continue
		}
		var items []map[string]interface{}
		if err := json.DecodeFirst(strings.NewReader(s[i:]), &items); err != nil {
			lastErr = fmt.Errorf("decode score array: %w", err)
			continue
		}
		return items, nil
	}
	return nil, lastErr
}

// parseScores 解析模型返回的[{id, score}]数组
// id和score可以是数字或数字字符串；越界的id被忽略；重复id以第一次为准；分数裁剪到[0,100]
func parseScores(raw string, n int) (map[int]float64, error) {
	items, err := decodeScoreArray(raw)
	if err != nil {
		return nil, err
	}

	scores := make(map[int]float64, len(items))
	for _, item := range items {
		idVal, ok := toFloat(item["id"])
		if !ok || idVal != math.Trunc(idVal) {
			continue
		}
		id := int(idVal)
		if id < 0 || id >= n {
			continue
		}
		if _, seen := scores[id]; seen {
			continue
		}
		score, ok := toFloat(item["score"])
		if !ok {
			continue
		}
		scores[id] = ClampScore(score)
	}
	return scores, nil
}

// ClampScore 将分数限制在[0,100]
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return NeutralScore
	}
	return math.Max(MinScore, math.Min(MaxScore, v))
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// cleanRewrite 清理改写结果，不可用时返回false
func cleanRewrite(raw string) (string, bool) {
	text := stripFences(raw)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	// 多段说明文字视为无效输出
	if len(lines) == 0 || len(lines) > 2 {
		return "", false
	}

	line := lines[0]
	lower := strings.ToLower(line)
	for _, label := range rewriteLabels {
		if strings.HasPrefix(lower, label) {
			line = strings.TrimSpace(line[len(label):])
			break
		}
	}
	line = strings.Trim(line, "\"'`“”‘’ ")
	line = strings.TrimSpace(line)

	if line == "" || utf8.RuneCountInString(line) > MaxRewriteLen {
		return "", false
	}
	return line, true
}
