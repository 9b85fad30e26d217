package report_test

import (
	"fmt"
	"time"

	"erpsheets/internal/report"
	"erpsheets/pkg/models"
)

func ExampleReport_Table() {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	client := models.NewClientMarginAnalysis("0001", "Rossi", at, 0)
	client.AddProduct(models.NewClientMappedProduct("GA091", "Gadget", "0001", 2, 0, 100, at))

	clients := models.NewOrderedMap[*models.ClientMarginAnalysis]()
	clients.Set(client.ID, client)

	r, err := report.NewEngine(nil).Enrich(clients, report.Options{FlagAnomalies: true})
	if err != nil {
		fmt.Println(err)
		return
	}

	header, rows, _ := r.Table()
	fmt.Println(header)
	fmt.Println(rows[0])
	// Output:
	// [Client UUID Client Margin Anomaly Text]
	// [0001 100 Prodotto interno con costo fisso manuale di 0.00€]
}
