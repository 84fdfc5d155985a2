package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/v2/table"

	"github.com/counterdeskhq/counterdesk/engine"
	"github.com/counterdeskhq/counterdesk/engine/model"
)

var transactionColumns = []columnSpec{
	{title: "Receipt", width: 14, sortKey: "receipt_code", filterKey: "receipt_code"},
	{title: "Type", width: 12, sortKey: "transaction_type"},
	{title: "Date", width: 12, sortKey: "transaction_date"},
	{title: "Customer", width: 20, flex: true, sortKey: "fullname", filterKey: "fullname"},
	{title: "MSISDN", width: 12, sortKey: "msisdn", filterKey: "msisdn"},
	{title: "Package", width: 16, sortKey: "package_name", filterKey: "package_name"},
	{title: "Total", width: 10, sortKey: "total"},
}

func newTransactionList(client *engine.Client) *serverList {
	return transactionList(client, "transactions", "Transactions", "")
}

// newRefundList and newVoidList are the transaction list scoped to
// refunded or voided records.
func newRefundList(client *engine.Client) *serverList {
	return transactionList(client, "refunds", "Refunds", "refunded")
}

func newVoidList(client *engine.Client) *serverList {
	return transactionList(client, "voids", "Voids", "voided")
}

func transactionList(client *engine.Client, id, title, status string) *serverList {
	fetch := func(ctx context.Context, req listRequest) ([]table.Row, model.Pagination, error) {
		page, err := client.FetchTransactions(ctx, engine.TransactionQuery{
			ReceiptCode: req.Filters["receipt_code"],
			FullName:    req.Filters["fullname"],
			MSISDN:      req.Filters["msisdn"],
			PackageName: req.Filters["package_name"],
			Status:      status,
			Sort:        req.Sort,
			Page:        req.Page,
			Limit:       req.Limit,
		})
		if err != nil {
			return nil, model.Pagination{}, err
		}
		rows := make([]table.Row, 0, len(page.Rows))
		for _, t := range page.Rows {
			rows = append(rows, transactionRow(t))
		}
		return rows, page.Pagination, nil
	}

	return newServerList(id, title, transactionColumns, fetch)
}

func transactionRow(t model.Transaction) table.Row {
	return table.Row{
		t.ReceiptCode,
		t.Type,
		t.Date,
		t.Customer.FullName,
		t.MSISDN,
		t.PackageName(),
		fmt.Sprintf("%.2f", t.Total),
	}
}
