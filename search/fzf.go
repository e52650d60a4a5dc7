// Package search 实现剪贴板历史的模糊子序列打分
//
// 打分是一个按查询字符逐行推进的动态规划：每一行只保留上一行的分数，
// 最后一行给出整个查询以每个文本位置结尾时的最好得分。
package search

import (
	"sort"
	"unicode"
)

const (
	InitialBonus   = 5  // 文本首字符
	BoundaryBonus  = 3  // 分隔符之后的字符
	CamelCaseBonus = 2  // 小写后紧跟的大写字符
	MatchScore     = 10 // 每个命中字符
	GapPenalty     = -2 // 两次命中之间每跳过一个字符

	// NoScore 表示该位置无法结束一个有效匹配
	NoScore = -10000
)

// minValid 有效分数的下限，避免长间隔把有效分数压到 NoScore 以下
const minValid = NoScore + 1

func isBoundary(r rune) bool {
	switch r {
	case '/', '_', '-', '.', ' ':
		return true
	}
	return false
}

// bonusTable 计算每个文本位置的加分
// 驼峰判断在分隔符判断之后执行，两者同时成立时驼峰加分生效
func bonusTable(text []rune) []int {
	bonus := make([]int, len(text))
	for i, r := range text {
		if i == 0 {
			bonus[i] = InitialBonus
			continue
		}
		prev := text[i-1]
		if isBoundary(prev) {
			bonus[i] = BoundaryBonus
		}
		if unicode.IsLower(prev) && unicode.IsUpper(r) {
			bonus[i] = CamelCaseBonus
		}
	}
	return bonus
}

func equalFold(a, b rune) bool {
	return a == b || unicode.ToLower(a) == unicode.ToLower(b)
}

// Scores 返回长度为 len([]rune(text)) 的分数行，
// 第 j 项是整个 query 以文本第 j 个字符结尾时的最好得分，不可达为 NoScore
func Scores(text, query string) []int {
	t := []rune(text)
	q := []rune(query)

	prev := make([]int, len(t))
	for j := range prev {
		prev[j] = NoScore
	}
	if len(q) == 0 {
		return prev
	}

	bonus := bonusTable(t)
	for i, qc := range q {
		cur := make([]int, len(t))
		best := NoScore
		for j, tc := range t {
			if i == 0 {
				// 第一个查询字符不需要前驱
				best = 0
			} else {
				if best > NoScore {
					best = max(best+GapPenalty, minValid)
				}
				if j > 0 && prev[j-1] > best {
					best = prev[j-1]
				}
			}

			cur[j] = NoScore
			if best > NoScore && equalFold(qc, tc) {
				cur[j] = max(best+bonus[j]+MatchScore, minValid)
			}
		}
		prev = cur
	}
	return prev
}

// Score 返回 query 匹配 text 的最好得分，空查询或无法匹配时为 NoScore
func Score(text, query string) int {
	best := NoScore
	for _, s := range Scores(text, query) {
		if s > best {
			best = s
		}
	}
	return best
}

// Hit 一个命中的候选项
type Hit struct {
	Index int // 候选项在输入中的下标
	Score int
}

// Rank 对候选文本打分并按分数降序排列，排除不匹配的候选
// 同分时保持输入顺序
func Rank(texts []string, query string) []Hit {
	hits := make([]Hit, 0, len(texts))
	for i, text := range texts {
		score := Score(text, query)
		if score == NoScore {
			continue
		}
		hits = append(hits, Hit{Index: i, Score: score})
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	return hits
}
