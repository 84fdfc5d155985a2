// Package datagen produces deterministic fake persons and transactions
// for tests and the demo API server.
package datagen

import (
	"fmt"
	"math/rand"

	"github.com/counterdeskhq/counterdesk/engine/model"
)

// Options configures dataset generation. The same seed always yields
// the same dataset.
type Options struct {
	Persons      int
	Transactions int
	Seed         int64
}

// DefaultOptions returns a mid-sized dataset for local development.
func DefaultOptions() Options {
	return Options{
		Persons:      120,
		Transactions: 350,
		Seed:         42,
	}
}

// Dataset is a generated collection of canonical records.
type Dataset struct {
	Persons      []model.Person
	Transactions []model.Transaction
}

var firstNames = []string{
	"Wei", "Mei", "Siti", "Ahmad", "Ravi", "Priya", "Jun", "Hui",
	"Nurul", "Daniel", "Sarah", "Kumar", "Li", "Aisha", "Marcus",
	"Grace", "Hafiz", "Elaine", "Vincent", "Farah",
}

var lastNames = []string{
	"Tan", "Lim", "Lee", "Ng", "Wong", "Chen", "Abdullah", "Rahman",
	"Singh", "Kaur", "Ong", "Goh", "Teo", "Ismail", "Chua", "Koh",
}

var packages = []string{
	"Prepaid 10GB", "Prepaid 30GB", "Postpaid Lite", "Postpaid Plus",
	"Tourist SIM 7D", "Data Booster 5GB", "Roaming Pass ASEAN",
	"Family Share 50GB",
}

var transactionTypes = []string{"activation", "renewal", "topup", "upgrade"}

var registrationTypes = []string{"passport", "nric", "fin"}

// Generate builds a dataset from the options.
func Generate(opts Options) *Dataset {
	rng := rand.New(rand.NewSource(opts.Seed))

	ds := &Dataset{
		Persons:      make([]model.Person, 0, opts.Persons),
		Transactions: make([]model.Transaction, 0, opts.Transactions),
	}

	for i := 0; i < opts.Persons; i++ {
		ds.Persons = append(ds.Persons, generatePerson(rng, i+1))
	}
	for i := 0; i < opts.Transactions; i++ {
		var customer model.Person
		if len(ds.Persons) > 0 {
			customer = ds.Persons[rng.Intn(len(ds.Persons))]
		} else {
			customer = generatePerson(rng, 1)
		}
		ds.Transactions = append(ds.Transactions, generateTransaction(rng, i+1, customer))
	}

	return ds
}

func generatePerson(rng *rand.Rand, id int) model.Person {
	first := firstNames[rng.Intn(len(firstNames))]
	last := lastNames[rng.Intn(len(lastNames))]
	name := first + " " + last
	username := fmt.Sprintf("%s%s%d", lowerASCII(first), lowerASCII(last), id)

	var regType *string
	// some records legitimately carry no registration type; sorting on
	// it must cope with nulls
	if rng.Intn(4) != 0 {
		rt := registrationTypes[rng.Intn(len(registrationTypes))]
		regType = &rt
	}

	return model.Person{
		ID:                 id,
		Slug:               fmt.Sprintf("person-%04d", id),
		Name:               name,
		Username:           username,
		Email:              username + "@example.com",
		Phone:              msisdn(rng),
		NumberID:           numberID(rng),
		RegistrationType:   regType,
		IsWifi:             rng.Intn(2) == 0,
		IsMobile:           rng.Intn(3) != 0,
		IsRegisteredMobile: rng.Intn(3) != 0,
	}
}

func generateTransaction(rng *rand.Rand, id int, customer model.Person) model.Transaction {
	itemCount := rng.Intn(3) + 1
	items := make([]model.TransactionItem, 0, itemCount)
	var total float64

	for i := 0; i < itemCount; i++ {
		price := float64(rng.Intn(180)+10) + 0.90
		qty := rng.Intn(2) + 1
		lineTotal := price * float64(qty)
		total += lineTotal

		items = append(items, model.TransactionItem{
			ID:          id*10 + i,
			PackageName: packages[rng.Intn(len(packages))],
			ProductID:   fmt.Sprintf("PRD-%05d", rng.Intn(90000)+10000),
			Qty:         qty,
			Price:       price,
			Total:       lineTotal,
			PhoneNumber: msisdn(rng),
		})
	}

	txType := transactionTypes[rng.Intn(len(transactionTypes))]

	return model.Transaction{
		ReceiptCode:     fmt.Sprintf("TRX-%08d", id),
		Type:            txType,
		Date:            fmt.Sprintf("2025-%02d-%02d", rng.Intn(12)+1, rng.Intn(28)+1),
		IsRenewal:       txType == "renewal",
		IsNewActivation: txType == "activation",
		Customer: model.Customer{
			ID:       customer.ID,
			Slug:     customer.Slug,
			FullName: customer.Name,
			NumberID: customer.NumberID,
			Phone:    customer.Phone,
		},
		MSISDN:     msisdn(rng),
		Cashier:    cashier(rng),
		Items:      items,
		Total:      total,
		IsRefunded: rng.Intn(20) == 0,
		IsVoided:   rng.Intn(40) == 0,
	}
}

func cashier(rng *rand.Rand) model.Cashier {
	first := firstNames[rng.Intn(len(firstNames))]
	last := lastNames[rng.Intn(len(lastNames))]
	return model.Cashier{
		Name:     first + " " + last,
		Username: lowerASCII(first) + "." + lowerASCII(last),
	}
}

func msisdn(rng *rand.Rand) string {
	return fmt.Sprintf("65%08d", rng.Intn(100000000))
}

func numberID(rng *rand.Rand) string {
	letters := "STFG"
	return fmt.Sprintf("%c%07d%c",
		letters[rng.Intn(len(letters))],
		rng.Intn(10000000),
		'A'+rune(rng.Intn(26)))
}

func lowerASCII(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
