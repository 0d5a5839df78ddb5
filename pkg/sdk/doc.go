// Package ordex is an embedded client for an ordex document store backed by
// Elasticsearch or Redis with search modules.
//
// The client talks to the store directly, without the HTTP API.
//
// # Orders
//
//	client, _ := ordex.New(ctx, ordex.WithElastic("http://localhost:9200", apiKey))
//	defer client.Close()
//	_, _ = client.EnsureIndex(ctx, "orders", "orders.mapping.json")
//
//	orders := client.Orders("orders")
//	rec, _ := orders.Create(ctx, ordex.Order{Customer: ordex.Customer{Email: "a@b.c"}})
//	res, _ := orders.Update(ctx, ordex.Filter{"id": rec.ID}, ordex.Update{"status": "paid"})
//
// # Any document type
//
//	type Invoice struct {
//	    Number string  `json:"number"`
//	    Amount float64 `json:"amount"`
//	}
//
//	invoices := ordex.NewCollection[Invoice](client, "invoices")
//	id, _ := invoices.Insert(ctx, Invoice{Number: "A-1", Amount: 10})
//	inv, _ := invoices.Get(ctx, id)
//	res, _ := invoices.DeleteWhere(ctx, ordex.Filter{"number": "A-1"})
package ordex
