package courier

import (
	"context"

	"velora_back_end/internal/models"
)

// OrderDeliveryAdapter expose le client transporteur sous la forme attendue
// par l'assembleur de commandes
type OrderDeliveryAdapter struct {
	Client *Client
}

func (a *OrderDeliveryAdapter) CreateDelivery(ctx context.Context, orderCode string, customer models.User,
	address models.Address, totalQuantity int, paymentMethod string, amountEUR float64) (string, string, error) {

	result, err := a.Client.CreateDeliveryOrder(ctx, DeliveryOrder{
		OrderCode:     orderCode,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		CustomerEmail: customer.Email,
		Country:       customer.Country,
		Address:       address,
		TotalQuantity: totalQuantity,
		PaymentMethod: paymentMethod,
		AmountEUR:     amountEUR,
	})
	if err != nil {
		return "", "", err
	}
	return result.TrackingNumber, result.Carrier, nil
}
