package library

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

// MidtransGateway settles late fees through the Midtrans core API. Amounts
// are charged in cents since the API takes integer amounts only.
type MidtransGateway struct {
	client coreapi.Client
}

// NewMidtransGateway builds a gateway against the sandbox or production
// environment.
func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	g := &MidtransGateway{}
	g.client.New(serverKey, env)
	return g
}

func cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ProcessPayment charges the fee as a one-item transaction keyed by a fresh
// order id.
func (g *MidtransGateway) ProcessPayment(patronID string, amount float64, description string) (PaymentResponse, error) {
	orderID := "latefee-" + uuid.NewString()
	req := &coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeGopay,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: cents(amount),
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    patronID,
			Name:  description,
			Price: cents(amount),
			Qty:   1,
		}},
	}

	resp, chargeErr := g.client.ChargeTransaction(req)
	if chargeErr != nil {
		return PaymentResponse{}, fmt.Errorf("midtrans charge: %w", chargeErr)
	}

	approved := resp.StatusCode == "200" || resp.StatusCode == "201"
	id := ""
	if approved {
		id = transactionPrefix + resp.TransactionID
	}
	return PaymentResponse{
		Approved:      approved,
		TransactionID: id,
		Message:       resp.StatusMessage,
	}, nil
}

// RefundPayment reverses a charge by its transaction id.
func (g *MidtransGateway) RefundPayment(transactionID string, amount float64) (RefundResponse, error) {
	req := &coreapi.RefundReq{
		Amount: cents(amount),
		Reason: "late fee refund",
	}

	// Strip the bridge-level prefix to recover the Midtrans transaction id.
	id := strings.TrimPrefix(transactionID, transactionPrefix)
	resp, refundErr := g.client.RefundTransaction(id, req)
	if refundErr != nil {
		return RefundResponse{}, fmt.Errorf("midtrans refund: %w", refundErr)
	}

	return RefundResponse{
		Approved: resp.StatusCode == "200",
		Message:  resp.StatusMessage,
	}, nil
}
