package events

// 主题命名：cv.<域>.<动作>.
const (
	TopicCreativeCreated   = "cv.creative.created"   // 摄取成功，记录为 draft
	TopicCreativeUpdated   = "cv.creative.updated"   // 字段或资产变更，已发布记录会回到 draft
	TopicCreativeModerated = "cv.creative.moderated" // 批量审核
	TopicCreativeDeleted   = "cv.creative.deleted"   // 批量删除
)

// CreativeTopics 素材相关主题集合.
var CreativeTopics = []string{
	TopicCreativeCreated, TopicCreativeUpdated, TopicCreativeModerated, TopicCreativeDeleted,
}
