package events

// CreativeEvent 素材变更事件负载.
type CreativeEvent struct {
	IDs []uint `json:"ids"`
	// Status 变更后的状态，删除事件为空.
	Status   string `json:"status,omitempty"`
	Operator string `json:"operator,omitempty"`
	// Fields 更新事件中改动的字段.
	Fields []string `json:"fields,omitempty"`
	// Redrafted 更新使已发布记录回到 draft.
	Redrafted bool `json:"redrafted,omitempty"`
}
