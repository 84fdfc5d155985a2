package engine

import "github.com/counterdeskhq/counterdesk/engine/model"

// PersonView declares the filterable and sortable fields of a person
// record. Field names match the /users query parameters so the demo
// server and the client share one table.
var PersonView = View[model.Person]{
	Fields: map[string]Field[model.Person]{
		"id":                func(p model.Person) Value { return Number(float64(p.ID)) },
		"name":              func(p model.Person) Value { return String(p.Name) },
		"username":          func(p model.Person) Value { return String(p.Username) },
		"email":             func(p model.Person) Value { return String(p.Email) },
		"phone":             func(p model.Person) Value { return String(p.Phone) },
		"number_id":         func(p model.Person) Value { return String(p.NumberID) },
		"registration_type": func(p model.Person) Value { return StringPtr(p.RegistrationType) },
	},
}

// TransactionView declares the filterable and sortable fields of a
// transaction record.
var TransactionView = View[model.Transaction]{
	Fields: map[string]Field[model.Transaction]{
		"receipt_code":     func(t model.Transaction) Value { return String(t.ReceiptCode) },
		"transaction_type": func(t model.Transaction) Value { return String(t.Type) },
		"transaction_date": func(t model.Transaction) Value { return String(t.Date) },
		"msisdn":           func(t model.Transaction) Value { return String(t.MSISDN) },
		"fullname":         func(t model.Transaction) Value { return String(t.Customer.FullName) },
		"number_id":        func(t model.Transaction) Value { return String(t.Customer.NumberID) },
		"package_name":     func(t model.Transaction) Value { return String(t.PackageName()) },
		"total":            func(t model.Transaction) Value { return Number(t.Total) },
	},
}
