package venue

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	headerFormat = "為您搜尋「%s」的結果如下：\n\n"
	entryFormat  = "📍 %s\n⭐ 評分：%s (%d 則評論)\n🗺️ 地圖：%s\n\n"
	emptyFormat  = "抱歉，您附近 %s內找不到「%s」相關的店家耶..."
	unratedLabel = "無評分"
)

// UnavailableText is shown when the provider could not be reached.
const UnavailableText = "哎呀！地圖好像壞掉了，請稍後再試一次。"

// Text renders the result as the message sent to the user.
func (r Result) Text() string {
	switch r.Outcome {
	case OutcomeFound:
		var b strings.Builder
		fmt.Fprintf(&b, headerFormat, r.Keyword)
		for _, v := range r.Venues {
			fmt.Fprintf(&b, entryFormat, v.Name, formatRating(v), v.Reviews, v.MapURL())
		}
		return b.String()
	case OutcomeEmpty:
		return fmt.Sprintf(emptyFormat, FormatRadius(r.RadiusM), r.Keyword)
	default:
		return UnavailableText
	}
}

func formatRating(v Venue) string {
	if !v.Rated {
		return unratedLabel
	}
	return strconv.FormatFloat(float64(v.Rating), 'f', 1, 32)
}

// FormatRadius renders a radius in metres the way it is shown to users:
// kilometres from 1000 up ("1 公里", "1.5 公里"), metres below ("500 公尺").
func FormatRadius(m int) string {
	if m >= 1000 {
		return strconv.FormatFloat(float64(m)/1000, 'f', -1, 64) + " 公里"
	}
	return strconv.Itoa(m) + " 公尺"
}
