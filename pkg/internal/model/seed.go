package model

// ReferenceSet 全部参考数据.
type ReferenceSet struct {
	Formats    []Format       `json:"formats"`
	Types      []CreativeType `json:"types"`
	Placements []Placement    `json:"placements"`
	Platforms  []Platform     `json:"platforms"`
	Countries  []Country      `json:"countries"`
}

func row(code, name string) ReferenceRow { return ReferenceRow{Code: code, Name: name} }

// DefaultReferences 返回 db seed 使用的默认参考数据.
func DefaultReferences() ReferenceSet {
	return ReferenceSet{
		Formats: []Format{
			{row("image", "Image")}, {row("video", "Video")}, {row("carousel", "Carousel")}, {row("playable", "Playable")},
		},
		Types: []CreativeType{
			{row("banner", "Banner")}, {row("native", "Native")}, {row("interstitial", "Interstitial")},
			{row("story", "Story")}, {row("search", "Search")},
		},
		Placements: []Placement{
			{row("feed", "Feed")}, {row("sidebar", "Sidebar")}, {row("stories", "Stories")},
			{row("search_results", "Search results")}, {row("in_stream", "In-stream")},
		},
		Platforms: []Platform{
			{row("facebook", "Facebook")}, {row("instagram", "Instagram")}, {row("tiktok", "TikTok")},
			{row("google", "Google")}, {row("youtube", "YouTube")},
		},
		Countries: []Country{
			{Code: "US", Name: "United States"}, {Code: "GB", Name: "United Kingdom"}, {Code: "DE", Name: "Germany"},
			{Code: "FR", Name: "France"}, {Code: "JP", Name: "Japan"}, {Code: "BR", Name: "Brazil"}, {Code: "IN", Name: "India"},
		},
	}
}
