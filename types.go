package fetchcache

type Employee struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Transaction is the record patched on approval changes. Only ID and
// Approved are read by the cache; other fields pass through untouched.
type Transaction struct {
	ID       string   `json:"id"`
	Amount   float64  `json:"amount"`
	Employee Employee `json:"employee"`
	Merchant string   `json:"merchant"`
	Date     string   `json:"date"`
	Approved bool     `json:"approved"`
}

type PaginatedResponse[T any] struct {
	Data     T    `json:"data"`
	NextPage *int `json:"nextPage"`
}

type PaginatedRequestParams struct {
	Page *int `json:"page"`
}

type RequestByEmployeeParams struct {
	EmployeeID string `json:"employeeId"`
}

type SetTransactionApprovalParams struct {
	TransactionID string `json:"transactionId"`
	Value         bool   `json:"value"`
}
