package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chains
	public := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)
	protected := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Auth(h.auth),
	)

	// Auth
	mux.Handle("POST /api/v1/auth/signup", public(http.HandlerFunc(h.Signup)))
	mux.Handle("POST /api/v1/auth/login", public(http.HandlerFunc(h.Login)))
	mux.Handle("GET /api/v1/auth/me", protected(http.HandlerFunc(h.Me)))

	// Organization
	mux.Handle("GET /api/v1/org", protected(http.HandlerFunc(h.GetOrg)))

	// Calls
	mux.Handle("GET /api/v1/calls", protected(http.HandlerFunc(h.ListCalls)))
	mux.Handle("GET /api/v1/calls/{id}", protected(http.HandlerFunc(h.GetCall)))
	mux.Handle("POST /api/v1/calls/{id}/reprocess", protected(http.HandlerFunc(h.ReprocessCall)))

	// Carriers
	mux.Handle("GET /api/v1/carriers", protected(http.HandlerFunc(h.ListCarriers)))
	mux.Handle("POST /api/v1/carriers", protected(http.HandlerFunc(h.CreateCarrier)))
	mux.Handle("GET /api/v1/carriers/{id}", protected(http.HandlerFunc(h.GetCarrier)))
	mux.Handle("PUT /api/v1/carriers/{id}", protected(http.HandlerFunc(h.UpdateCarrier)))
	mux.Handle("DELETE /api/v1/carriers/{id}", protected(http.HandlerFunc(h.DeleteCarrier)))

	// Loads
	mux.Handle("GET /api/v1/loads", protected(http.HandlerFunc(h.ListLoads)))
	mux.Handle("POST /api/v1/loads", protected(http.HandlerFunc(h.CreateLoad)))
	mux.Handle("GET /api/v1/loads/{id}", protected(http.HandlerFunc(h.GetLoad)))
	mux.Handle("PUT /api/v1/loads/{id}", protected(http.HandlerFunc(h.UpdateLoad)))
	mux.Handle("POST /api/v1/loads/{id}/book", protected(http.HandlerFunc(h.BookLoad)))
	mux.Handle("DELETE /api/v1/loads/{id}", protected(http.HandlerFunc(h.DeleteLoad)))

	// Rate Confirmations
	mux.Handle("GET /api/v1/rateconfs", protected(http.HandlerFunc(h.ListRateConfs)))
	mux.Handle("POST /api/v1/rateconfs", protected(http.HandlerFunc(h.CreateRateConf)))
	mux.Handle("GET /api/v1/rateconfs/{id}", protected(http.HandlerFunc(h.GetRateConf)))
	mux.Handle("POST /api/v1/rateconfs/{id}/send", protected(http.HandlerFunc(h.SendRateConf)))
	mux.Handle("POST /api/v1/rateconfs/{id}/void", protected(http.HandlerFunc(h.VoidRateConf)))

	// Публичная подпись по токену из письма
	mux.Handle("GET /sign/{token}", public(http.HandlerFunc(h.GetSignPage)))
	mux.Handle("POST /sign/{token}", public(http.HandlerFunc(h.SignRateConf)))
	mux.Handle("POST /sign/{token}/decline", public(http.HandlerFunc(h.DeclineRateConf)))

	// Referrals
	mux.Handle("GET /api/v1/referrals", protected(http.HandlerFunc(h.ListReferrals)))
	mux.Handle("POST /api/v1/referrals", protected(http.HandlerFunc(h.CreateReferral)))
	mux.Handle("GET /api/v1/referrals/commissions", protected(http.HandlerFunc(h.ListCommissions)))

	// Usage
	mux.Handle("GET /api/v1/usage", protected(http.HandlerFunc(h.GetUsage)))
	mux.Handle("GET /api/v1/usage/periods", protected(http.HandlerFunc(h.ListPeriods)))

	// Billing
	mux.Handle("GET /api/v1/billing/plans", protected(http.HandlerFunc(h.ListPlans)))
	mux.Handle("GET /api/v1/billing/overages", protected(http.HandlerFunc(h.ListOverages)))
	mux.Handle("POST /api/v1/billing/checkout", protected(http.HandlerFunc(h.Checkout)))

	// GDPR
	mux.Handle("GET /api/v1/gdpr/export", protected(http.HandlerFunc(h.ExportData)))
	mux.Handle("POST /api/v1/gdpr/delete", protected(http.HandlerFunc(h.DeleteData)))

	// Webhooks (подпись провайдера вместо JWT)
	mux.Handle("POST /webhooks/telephony/{org}/recording", public(http.HandlerFunc(h.TelephonyRecording)))
	mux.Handle("POST /webhooks/telephony/{org}/status", public(http.HandlerFunc(h.TelephonyStatus)))
	mux.Handle("POST /webhooks/payments", public(http.HandlerFunc(h.PaymentEvent)))
}
