package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/v2/table"

	"github.com/counterdeskhq/counterdesk/engine"
	"github.com/counterdeskhq/counterdesk/engine/model"
)

var personColumns = []columnSpec{
	{title: "Name", width: 24, flex: true, sortKey: "name", filterKey: "name"},
	{title: "Username", width: 16, sortKey: "username", filterKey: "username"},
	{title: "Email", width: 26, sortKey: "email", filterKey: "email"},
	{title: "Phone", width: 14, sortKey: "phone", filterKey: "phone"},
	{title: "ID No.", width: 12, sortKey: "number_id", filterKey: "number_id"},
	{title: "Type", width: 10, sortKey: "registration_type"},
}

func newPersonList(client *engine.Client) *serverList {
	fetch := func(ctx context.Context, req listRequest) ([]table.Row, model.Pagination, error) {
		page, err := client.FetchPersons(ctx, engine.PersonQuery{
			Name:     req.Filters["name"],
			Username: req.Filters["username"],
			Email:    req.Filters["email"],
			Phone:    req.Filters["phone"],
			NumberID: req.Filters["number_id"],
			Sort:     req.Sort,
			Page:     req.Page,
			Limit:    req.Limit,
		})
		if err != nil {
			return nil, model.Pagination{}, err
		}
		rows := make([]table.Row, 0, len(page.Rows))
		for _, p := range page.Rows {
			rows = append(rows, personRow(p))
		}
		return rows, page.Pagination, nil
	}

	return newServerList("persons", "Persons", personColumns, fetch)
}

func personRow(p model.Person) table.Row {
	regType := ""
	if p.RegistrationType != nil {
		regType = *p.RegistrationType
	}
	return table.Row{p.Name, p.Username, p.Email, p.Phone, p.NumberID, regType}
}
