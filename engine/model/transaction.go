package model

// Transaction is the canonical sale record. The receipt code is the
// primary external identifier, so it doubles as the ID.
type Transaction struct {
	ReceiptCode     string
	Type            string
	Date            string
	IsRenewal       bool
	IsNewActivation bool
	Customer        Customer
	MSISDN          string
	Cashier         Cashier
	Items           []TransactionItem
	Total           float64
	IsRefunded      bool
	IsVoided        bool
}

// Customer is the person a transaction was sold to.
type Customer struct {
	ID       int
	Slug     string
	FullName string
	NumberID string
	Phone    string
}

// Cashier is the operator who recorded the transaction.
type Cashier struct {
	Name     string
	Username string
}

// TransactionItem is a single line on the receipt.
type TransactionItem struct {
	ID          int
	PackageName string
	ProductID   string
	Qty         int
	Price       float64
	Total       float64
	PhoneNumber string
}

// PackageName returns the package of the first line item, which is what
// the list views filter against. Transactions without items match the
// empty string rather than failing.
func (t Transaction) PackageName() string {
	if len(t.Items) == 0 {
		return ""
	}
	return t.Items[0].PackageName
}

type TransactionWire struct {
	ID              string                `json:"id"`
	Type            string                `json:"transaction_type"`
	Date            string                `json:"transaction_date"`
	IsRenewal       bool                  `json:"is_renewal"`
	IsNewActivation bool                  `json:"is_new_activation"`
	Customer        CustomerWire          `json:"customer"`
	SelectedMSISDN  string                `json:"selected_msisdn"`
	User            CashierWire           `json:"user"`
	Items           []TransactionItemWire `json:"items"`
	Total           float64               `json:"total"`
	IsRefunded      bool                  `json:"is_refunded"`
	IsVoided        bool                  `json:"is_voided"`
}

type CustomerWire struct {
	ID       int    `json:"id"`
	Slug     string `json:"slug"`
	FullName string `json:"fullname"`
	NumberID string `json:"number_id"`
	WPNumber string `json:"wp_number"`
}

type CashierWire struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

type TransactionItemWire struct {
	ID          int     `json:"id"`
	Package     struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"package"`
	ProductID   string  `json:"product_id"`
	Qty         int     `json:"qty"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
	PhoneNumber string  `json:"phone_number"`
}

func (w TransactionWire) Canonical() Transaction {
	items := make([]TransactionItem, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, TransactionItem{
			ID:          it.ID,
			PackageName: it.Package.Name,
			ProductID:   it.ProductID,
			Qty:         it.Qty,
			Price:       it.Price,
			Total:       it.Total,
			PhoneNumber: it.PhoneNumber,
		})
	}

	return Transaction{
		ReceiptCode:     w.ID,
		Type:            w.Type,
		Date:            w.Date,
		IsRenewal:       w.IsRenewal,
		IsNewActivation: w.IsNewActivation,
		Customer: Customer{
			ID:       w.Customer.ID,
			Slug:     w.Customer.Slug,
			FullName: w.Customer.FullName,
			NumberID: w.Customer.NumberID,
			Phone:    w.Customer.WPNumber,
		},
		MSISDN:     w.SelectedMSISDN,
		Cashier:    Cashier{Name: w.User.Name, Username: w.User.Username},
		Items:      items,
		Total:      w.Total,
		IsRefunded: w.IsRefunded,
		IsVoided:   w.IsVoided,
	}
}

func (t Transaction) Wire() TransactionWire {
	items := make([]TransactionItemWire, 0, len(t.Items))
	for _, it := range t.Items {
		wi := TransactionItemWire{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Qty:         it.Qty,
			Price:       it.Price,
			Total:       it.Total,
			PhoneNumber: it.PhoneNumber,
		}
		wi.Package.ID = it.ProductID
		wi.Package.Name = it.PackageName
		items = append(items, wi)
	}

	return TransactionWire{
		ID:              t.ReceiptCode,
		Type:            t.Type,
		Date:            t.Date,
		IsRenewal:       t.IsRenewal,
		IsNewActivation: t.IsNewActivation,
		Customer: CustomerWire{
			ID:       t.Customer.ID,
			Slug:     t.Customer.Slug,
			FullName: t.Customer.FullName,
			NumberID: t.Customer.NumberID,
			WPNumber: t.Customer.Phone,
		},
		SelectedMSISDN: t.MSISDN,
		User:           CashierWire{Name: t.Cashier.Name, Username: t.Cashier.Username},
		Items:          items,
		Total:          t.Total,
		IsRefunded:     t.IsRefunded,
		IsVoided:       t.IsVoided,
	}
}
