package orders

const (
	TopicOrderPlaced   = "order.placed"
	TopicStockReserved = "order.stock.reserved"
	TopicStockRejected = "order.stock.rejected"
)

// Partition key = order_id so every event for one order keeps its ordering.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
