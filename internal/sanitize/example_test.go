package sanitize_test

import (
	"errors"
	"fmt"

	"erpsheets/internal/sanitize"
	"erpsheets/pkg/models"
)

func ExampleMoney() {
	amount, err := sanitize.Money("€ 1.250,40", "FT001")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%.2f\n", amount)
	// Output: 1250.40
}

func ExampleClientVendorID() {
	id, _ := sanitize.ClientVendorID("C/0412")
	fmt.Println(id)

	_, err := sanitize.ClientVendorID("C04125")
	fmt.Println(errors.Is(err, models.ErrNoValidID))
	// Output:
	// 0412
	// true
}
