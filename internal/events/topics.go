package events

// Topics emitted by the pricing engine.
const (
	TopicSaleCompleted    = "sale.completed"
	TopicPromotionChanged = "promotion.changed"
)
