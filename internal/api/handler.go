package api

import (
	"log/slog"

	"github.com/shaiso/Freightline/internal/auth"
	"github.com/shaiso/Freightline/internal/billing"
	"github.com/shaiso/Freightline/internal/email"
	"github.com/shaiso/Freightline/internal/mq"
	"github.com/shaiso/Freightline/internal/repo"
	"github.com/shaiso/Freightline/internal/telephony"
	"github.com/shaiso/Freightline/internal/usage"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	orgRepo               *repo.OrgRepo
	callRepo              *repo.CallRepo
	jobRepo               *repo.JobRepo
	crmRepo               *repo.CRMRepo
	rateConfRepo          *repo.RateConfRepo
	referralRepo          *repo.ReferralRepo
	usageRepo             *repo.UsageRepo
	guard                 *usage.Guard
	billing               *billing.Service
	auth                  *auth.Manager
	telephony             *telephony.Client
	email                 *email.Client
	publisher             *mq.Publisher
	baseURL               string
	paymentsWebhookSecret string
	logger                *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	OrgRepo      *repo.OrgRepo
	CallRepo     *repo.CallRepo
	JobRepo      *repo.JobRepo
	CRMRepo      *repo.CRMRepo
	RateConfRepo *repo.RateConfRepo
	ReferralRepo *repo.ReferralRepo
	UsageRepo    *repo.UsageRepo
	Guard        *usage.Guard
	Billing      *billing.Service
	Auth         *auth.Manager
	Telephony    *telephony.Client
	Email        *email.Client
	Publisher    *mq.Publisher

	// BaseURL — публичный адрес сервиса, используется в ссылках
	// подписи rate confirmation и реферальных приглашениях.
	BaseURL string

	// PaymentsWebhookSecret — shared secret для проверки webhook'ов
	// платёжного шлюза.
	PaymentsWebhookSecret string

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		orgRepo:               cfg.OrgRepo,
		callRepo:              cfg.CallRepo,
		jobRepo:               cfg.JobRepo,
		crmRepo:               cfg.CRMRepo,
		rateConfRepo:          cfg.RateConfRepo,
		referralRepo:          cfg.ReferralRepo,
		usageRepo:             cfg.UsageRepo,
		guard:                 cfg.Guard,
		billing:               cfg.Billing,
		auth:                  cfg.Auth,
		telephony:             cfg.Telephony,
		email:                 cfg.Email,
		publisher:             cfg.Publisher,
		baseURL:               cfg.BaseURL,
		paymentsWebhookSecret: cfg.PaymentsWebhookSecret,
		logger:                cfg.Logger,
	}
}
