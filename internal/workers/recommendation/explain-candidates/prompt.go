// internal/workers/recommendation/explain-candidates/prompt.go
package explaincandidates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"venue-recommender/internal/models"
)

const systemInstruction = `Bạn là chuyên gia gợi ý địa điểm hẹn hò và vui chơi.
Dựa trên hồ sơ người dùng và danh sách địa điểm, hãy trả lời đúng định dạng:

OVERVIEW: <tóm tắt 2-3 câu vì sao danh sách phù hợp>

[1] <lý do ngắn cho địa điểm 1>
[2] <lý do ngắn cho địa điểm 2>

Mỗi lý do một dòng, bằng tiếng Việt, không thêm nội dung khác.`

var reasonLine = regexp.MustCompile(`^\[([^\]]*)\]\s*(.*)$`)

// BuildPrompt renders the profile, the original query and the numbered
// candidate list. The output depends only on in.
func BuildPrompt(in Input) string {
	var parts []string

	parts = append(parts, "HỒ SƠ NGƯỜI DÙNG:")
	if in.IsCouple() {
		parts = append(parts, "- Đối tượng: Cặp đôi")
	} else {
		parts = append(parts, "- Đối tượng: Một người")
	}
	if in.CoupleMood != nil {
		parts = append(parts, fmt.Sprintf("- Tâm trạng cặp đôi: %s", *in.CoupleMood))
	}
	if in.SingleMood != nil {
		parts = append(parts, fmt.Sprintf("- Tâm trạng: %s", *in.SingleMood))
	}
	if codes := personalityCodes(in); codes != "" {
		parts = append(parts, fmt.Sprintf("- Tính cách: %s", codes))
	}
	if len(in.PersonalityTags) > 0 {
		parts = append(parts, fmt.Sprintf("- Phong cách: %s", strings.Join(in.PersonalityTags, ", ")))
	}

	if in.Query != nil && strings.TrimSpace(*in.Query) != "" {
		parts = append(parts, fmt.Sprintf("\nYÊU CẦU: %s", strings.TrimSpace(*in.Query)))
	}

	parts = append(parts, "\nĐỊA ĐIỂM:")
	for i, v := range in.Venues {
		parts = append(parts, fmt.Sprintf("[%d] %s", i+1, v.Name))
		parts = append(parts, fmt.Sprintf("    Địa chỉ: %s", v.Address))
		if v.Description != "" {
			parts = append(parts, fmt.Sprintf("    Mô tả: %s", v.Description))
		}
		if tags := describeTags(v.Tags); tags != "" {
			parts = append(parts, fmt.Sprintf("    Nhãn: %s", tags))
		}
		parts = append(parts, fmt.Sprintf("    Đánh giá: %s", describeRating(v)))
	}

	return strings.Join(parts, "\n")
}

// ParseReply extracts the overview (key OverviewIndex) and the per-venue
// reasons (0-based keys) from a reply. Lines that do not follow the format
// and indices outside [0, count) are ignored.
func ParseReply(text string, count int) map[int]string {
	out := make(map[int]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if len(line) >= len("OVERVIEW:") && strings.EqualFold(line[:len("OVERVIEW:")], "OVERVIEW:") {
			if body := strings.TrimSpace(line[len("OVERVIEW:"):]); body != "" {
				out[OverviewIndex] = body
			}
			continue
		}

		m := reasonLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(m[1]))
		if err != nil || n < 1 || n > count {
			continue
		}
		if body := strings.TrimSpace(m[2]); body != "" {
			out[n-1] = body
		}
	}
	return out
}

// SynthesizeOverview builds a deterministic overview from the request
// profile when the service gave none.
func SynthesizeOverview(in Input) string {
	if len(in.Venues) == 0 {
		return "Chưa tìm thấy địa điểm phù hợp, hãy thử mở rộng khu vực hoặc ngân sách."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Gợi ý %d địa điểm", len(in.Venues))
	if in.IsCouple() {
		b.WriteString(" dành cho hai bạn")
	} else {
		b.WriteString(" dành cho bạn")
	}
	if in.Query != nil && strings.TrimSpace(*in.Query) != "" {
		fmt.Fprintf(&b, " theo yêu cầu \"%s\"", strings.TrimSpace(*in.Query))
	}
	switch {
	case in.CoupleMood != nil:
		fmt.Fprintf(&b, ", phù hợp với tâm trạng %s", *in.CoupleMood)
	case in.SingleMood != nil:
		fmt.Fprintf(&b, ", phù hợp với cảm xúc %s", *in.SingleMood)
	}
	if len(in.PersonalityTags) > 0 {
		fmt.Fprintf(&b, " và phong cách %s", strings.Join(in.PersonalityTags, ", "))
	}
	b.WriteString(".")
	return b.String()
}

func personalityCodes(in Input) string {
	var codes []string
	for _, p := range []*string{in.Personality1, in.Personality2} {
		if p != nil && *p != "" {
			codes = append(codes, strings.ToUpper(*p))
		}
	}
	return strings.Join(codes, " & ")
}

func describeTags(tags []models.Tag) string {
	var out []string
	for _, t := range tags {
		if t.MoodCategory != "" {
			out = append(out, t.MoodCategory)
		}
		if t.PersonalityType != "" {
			out = append(out, t.PersonalityType)
		}
		out = append(out, t.Details...)
	}
	return strings.Join(out, ", ")
}

func describeRating(v models.Venue) string {
	if v.Rating == nil {
		return "chưa có"
	}
	return fmt.Sprintf("%.1f (%d đánh giá)", *v.Rating, v.ReviewCount)
}
