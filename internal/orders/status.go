package orders

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPaymentFailed  Status = "PAYMENT_FAILED"
	StatusPaid           Status = "PAID"
	StatusProcessing     Status = "PROCESSING"
	StatusShipped        Status = "SHIPPED"
	StatusDelivered      Status = "DELIVERED"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// General table; role tables below narrow it, never widen it.
var validNext = map[Status]map[Status]bool{
	StatusPendingPayment: {StatusPaymentFailed: true, StatusPaid: true, StatusCancelled: true},
	StatusPaymentFailed:  {StatusPaid: true, StatusCancelled: true},
	StatusPaid:           {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing:     {StatusShipped: true, StatusCancelled: true},
	StatusShipped:        {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered:      {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

// Forward edges a seller may drive. COMPLETED is deliberately absent:
// it signals customer-confirmed receipt and belongs to the buyer alone.
var sellerNext = map[Status]map[Status]bool{
	StatusPaid:       {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered:  {StatusCancelled: true},
}

func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

func ValidStatus(s Status) bool {
	_, ok := validNext[s]
	return ok
}

// AllowedNext returns the set of statuses the given role may move an
// order to from the current status. The result is a fresh map; callers
// may not mutate the underlying tables through it.
func AllowedNext(role Role, current Status) map[Status]bool {
	out := map[Status]bool{}
	switch role {
	case RoleAdmin:
		for s := range validNext[current] {
			out[s] = true
		}
	case RoleSeller:
		for s := range sellerNext[current] {
			out[s] = true
		}
	case RoleBuyer:
		if !IsTerminal(current) {
			out[StatusCancelled] = true
		}
		if current == StatusDelivered {
			out[StatusCompleted] = true
		}
	}
	return out
}

// CanTransition reports whether role may move an order from -> to.
func CanTransition(role Role, from, to Status) bool {
	return AllowedNext(role, from)[to]
}
