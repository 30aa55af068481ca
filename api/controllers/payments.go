package controllers

import (
	"net/http"

	"github.com/angelmondragon/prostore-backend/api/middleware"
	"github.com/angelmondragon/prostore-backend/api/responses"
	"github.com/angelmondragon/prostore-backend/api/validators"
	"github.com/angelmondragon/prostore-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
)

type approvePayPalRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

func paymentServiceUnavailable(r *http.Request, w http.ResponseWriter, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "payment service unavailable"))
}

// PayPalCreate opens a PayPal order for the caller's unpaid order and
// returns its PayPal id.
func PayPalCreate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			paymentServiceUnavailable(r, w, logg)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paypalID, err := svc.CreatePayPalOrder(r.Context(), middleware.IdentityFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Item order created successfully", map[string]string{"id": paypalID})
	}
}

// PayPalApprove captures an approved PayPal order and marks the order paid.
// The body's orderId is the PayPal order id.
func PayPalApprove(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			paymentServiceUnavailable(r, w, logg)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body approvePayPalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ApprovePayPalOrder(r.Context(), middleware.IdentityFromContext(r.Context()), orderID, body.OrderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Your order has been paid", nil)
	}
}

// StripeIntentCreate returns the client secret the browser needs to confirm
// a card payment for the order.
func StripeIntentCreate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			paymentServiceUnavailable(r, w, logg)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		intent, err := svc.CreateStripePaymentIntent(r.Context(), middleware.IdentityFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Payment intent created", intent)
	}
}
