package venue

import "testing"

func TestResultTextFound(t *testing.T) {
	res := Result{
		Outcome: OutcomeFound,
		Keyword: "日式料理",
		RadiusM: 1000,
		Venues: []Venue{
			{Name: "壽司郎", Rating: 4.2, Rated: true, Reviews: 1520, PlaceID: "abc"},
			{Name: "新開的店", PlaceID: "def"},
		},
	}
	want := "為您搜尋「日式料理」的結果如下：\n\n" +
		"📍 壽司郎\n⭐ 評分：4.2 (1520 則評論)\n🗺️ 地圖：https://www.google.com/maps/place/?q=place_id:abc\n\n" +
		"📍 新開的店\n⭐ 評分：無評分 (0 則評論)\n🗺️ 地圖：https://www.google.com/maps/place/?q=place_id:def\n\n"
	if got := res.Text(); got != want {
		t.Fatalf("text mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatRadius(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{1000, "1 公里"},
		{1500, "1.5 公里"},
		{2000, "2 公里"},
		{500, "500 公尺"},
	}
	for _, tc := range cases {
		if got := FormatRadius(tc.in); got != tc.want {
			t.Fatalf("FormatRadius(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEmptyTextEchoesRadius(t *testing.T) {
	res := Result{Outcome: OutcomeEmpty, Keyword: "火鍋", RadiusM: 500}
	if got, want := res.Text(), "抱歉，您附近 500 公尺內找不到「火鍋」相關的店家耶..."; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}
