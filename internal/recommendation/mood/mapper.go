// Package mood maps the emotions of two people onto a couple-mood category
// and a single emotion onto the detail keyword used for solo matching.
package mood

import "strings"

// Emotion labels accepted by the mapper.
const (
	Happy     = "HAPPY"
	Sad       = "SAD"
	Angry     = "ANGRY"
	Disgusted = "DISGUSTED"
	Surprised = "SURPRISED"
	Calm      = "CALM"
	Fear      = "FEAR"
	Confused  = "CONFUSED"
)

// Category is a couple-mood label. The Vietnamese names are the taxonomy
// stored on venue tags.
type Category string

const (
	SharedHappiness      Category = "Vui vẻ"
	MutualCalm           Category = "Bình yên"
	ComfortSeeking       Category = "Cần an ủi"
	StressTension        Category = "Căng thẳng"
	EmotionalImbalance   Category = "Lệch nhịp cảm xúc"
	Exploration          Category = "Khám phá"
	PlayfulSensitive     Category = "Tinh nghịch nhưng nhạy cảm"
	ReassuranceNeeded    Category = "Cần trấn an"
	LowIntimacy          Category = "Giữ khoảng cách"
	ResolutionMode       Category = "Hàn gắn"
	HighEnergyDivergence Category = "Năng lượng trái chiều"
	Neutral              Category = "Trung tính"
)

var emotions = []string{Happy, Sad, Angry, Disgusted, Surprised, Calm, Fear, Confused}

var detailTags = map[string]string{
	Happy:     "vui vẻ",
	Sad:       "buồn",
	Angry:     "giận dữ",
	Disgusted: "khó chịu",
	Surprised: "bất ngờ",
	Calm:      "bình yên",
	Fear:      "lo lắng",
	Confused:  "bối rối",
}

type rule struct {
	category Category
	matches  func(a, b string) bool
}

// rules are evaluated top to bottom and the first match wins. Several rules
// overlap (ANGRY+DISGUSTED satisfies both stress and low intimacy), so the
// order is part of the contract.
var rules = []rule{
	{SharedHappiness, func(a, b string) bool {
		return oneWithOther(a, b, []string{Happy}, []string{Happy, Calm, Surprised, Confused})
	}},
	{MutualCalm, func(a, b string) bool {
		return oneWithOther(a, b, []string{Calm}, []string{Calm, Confused})
	}},
	{ComfortSeeking, func(a, b string) bool {
		return oneWithOther(a, b, []string{Sad}, []string{Happy, Sad, Surprised, Calm, Fear, Confused})
	}},
	{StressTension, func(a, b string) bool {
		return either(a, b, Angry, Fear, Disgusted)
	}},
	{EmotionalImbalance, func(a, b string) bool {
		return oneWithOther(a, b, []string{Happy}, []string{Sad, Angry, Fear, Disgusted})
	}},
	{Exploration, func(a, b string) bool {
		return oneWithOther(a, b, []string{Surprised}, []string{Happy, Calm, Confused})
	}},
	{PlayfulSensitive, func(a, b string) bool {
		return pairIn(a, b, [][2]string{{Happy, Sad}, {Happy, Confused}, {Happy, Fear}})
	}},
	{ReassuranceNeeded, func(a, b string) bool {
		return oneWithOther(a, b, []string{Fear, Confused}, []string{Calm, Surprised})
	}},
	{LowIntimacy, func(a, b string) bool {
		return either(a, b, Disgusted)
	}},
	{ResolutionMode, func(a, b string) bool {
		return pairIn(a, b, [][2]string{{Angry, Sad}, {Angry, Confused}, {Sad, Disgusted}})
	}},
	{HighEnergyDivergence, func(a, b string) bool {
		return pairIn(a, b, [][2]string{{Happy, Angry}, {Surprised, Angry}})
	}},
}

// Map returns the couple-mood category for two emotion labels. Labels are
// case-insensitive; unknown or empty labels satisfy no rule clause, so a
// pair containing one typically lands on Neutral.
func Map(mood1, mood2 string) Category {
	a, b := Normalize(mood1), Normalize(mood2)
	for _, r := range rules {
		if r.matches(a, b) {
			return r.category
		}
	}
	return Neutral
}

// Normalize upper-cases and trims a label, returning "" when it is not one
// of the eight known emotions.
func Normalize(label string) string {
	l := strings.ToUpper(strings.TrimSpace(label))
	if _, ok := detailTags[l]; ok {
		return l
	}
	return ""
}

// Emotions returns the eight accepted labels.
func Emotions() []string {
	out := make([]string, len(emotions))
	copy(out, emotions)
	return out
}

// Categories returns all twelve categories in rule priority order, with the
// default last.
func Categories() []Category {
	out := make([]Category, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.category)
	}
	return append(out, Neutral)
}

// IsCategory reports whether name is one of the twelve category labels.
func IsCategory(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, c := range Categories() {
		if strings.EqualFold(string(c), name) {
			return true
		}
	}
	return false
}

// Canonical returns the category spelled as in the taxonomy, or "" when
// name is not a category.
func Canonical(name string) Category {
	name = strings.TrimSpace(name)
	for _, c := range Categories() {
		if strings.EqualFold(string(c), name) {
			return c
		}
	}
	return ""
}

// DetailTag returns the keyword matched against venue detail tags when only
// one person's emotion is known. Unknown labels yield "".
func DetailTag(label string) string {
	return detailTags[Normalize(label)]
}

func is(v string, set []string) bool {
	if v == "" {
		return false
	}
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// oneWithOther matches when one label is in first and the other in second,
// in either order.
func oneWithOther(a, b string, first, second []string) bool {
	return (is(a, first) && is(b, second)) || (is(b, first) && is(a, second))
}

func either(a, b string, set ...string) bool {
	return is(a, set) || is(b, set)
}

func pairIn(a, b string, pairs [][2]string) bool {
	for _, p := range pairs {
		if (a == p[0] && b == p[1]) || (a == p[1] && b == p[0]) {
			return true
		}
	}
	return false
}
