// Package personality derives venue-matching tags from personality codes.
package personality

import (
	"sort"
	"strings"
)

// MaxTags bounds the output of Map.
const MaxTags = 5

// SameType is the pair tag for two identical codes.
const SameType = "Đồng điệu"

var codes = map[string]bool{
	"INTJ": true, "INTP": true, "ENTJ": true, "ENTP": true,
	"INFJ": true, "INFP": true, "ENFJ": true, "ENFP": true,
	"ISTJ": true, "ISFJ": true, "ESTJ": true, "ESFJ": true,
	"ISTP": true, "ISFP": true, "ESTP": true, "ESFP": true,
}

// dimension holds the tag for each combination of one letter position.
type dimension struct {
	first, second byte
	bothFirst     string
	bothSecond    string
	mixed         string
}

var dimensions = [4]dimension{
	{'E', 'I', "Sôi động", "Yên tĩnh", "Cân bằng"},
	{'S', 'N', "Thực tế", "Sáng tạo", "Trải nghiệm mới"},
	{'T', 'F', "Lý trí", "Lãng mạn", "Ấm áp"},
	{'J', 'P', "Có kế hoạch", "Ngẫu hứng", "Linh hoạt"},
}

// pairTags is keyed by the two codes sorted and joined with "+".
var pairTags = map[string]string{
	"ENFP+INFJ": "Tâm giao",
	"ENFJ+INFP": "Tâm giao",
	"ENTP+INTJ": "Tranh luận trí tuệ",
	"ENTJ+INTP": "Tranh luận trí tuệ",
	"ESFP+ISFJ": "Chăm sóc lẫn nhau",
	"ESTP+ISTJ": "Phiêu lưu",
	"ESFJ+ISFP": "Nghệ thuật",
	"ESTJ+ISTP": "Thực hành",
}

// Map returns up to MaxTags tags for a pair of codes. The result does not
// depend on argument order. Either code being unknown yields an empty list.
func Map(code1, code2 string) []string {
	a, b := Normalize(code1), Normalize(code2)
	if a == "" || b == "" {
		return []string{}
	}

	tags := make([]string, 0, MaxTags)
	if a == b {
		tags = append(tags, SameType)
	} else if tag, ok := pairTags[pairKey(a, b)]; ok {
		tags = append(tags, tag)
	}

	for i, d := range dimensions {
		tags = append(tags, d.tagFor(a[i], b[i]))
	}

	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	return tags
}

// SingleTags returns the four dimension tags of a lone code, or an empty
// list when the code is unknown.
func SingleTags(code string) []string {
	c := Normalize(code)
	if c == "" {
		return []string{}
	}
	tags := make([]string, 0, len(dimensions))
	for i, d := range dimensions {
		tags = append(tags, d.tagFor(c[i], c[i]))
	}
	return tags
}

// Normalize upper-cases and trims a code, returning "" when unknown.
func Normalize(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if codes[c] {
		return c
	}
	return ""
}

// Codes returns the sixteen known codes in lexical order.
func Codes() []string {
	out := make([]string, 0, len(codes))
	for c := range codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (d dimension) tagFor(x, y byte) string {
	switch {
	case x == d.first && y == d.first:
		return d.bothFirst
	case x == d.second && y == d.second:
		return d.bothSecond
	default:
		return d.mixed
	}
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "+" + b
}
