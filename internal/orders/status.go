package orders

type Status string

const (
	StatusPlaced        Status = "PLACED"
	StatusStockReserved Status = "STOCK_RESERVED"
	StatusCompleted     Status = "COMPLETED"
	StatusFailed        Status = "FAILED"
)

var validNext = map[Status]map[Status]bool{
	StatusPlaced:        {StatusStockReserved: true, StatusFailed: true},
	StatusStockReserved: {StatusCompleted: true, StatusFailed: true},
	StatusCompleted:     {},
	StatusFailed:        {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
