package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shaiso/Freightline/internal/repo"
)

// Service — биллинг: settlement overage и выплаты комиссий.
type Service struct {
	gateway      *GatewayClient
	orgRepo      *repo.OrgRepo
	usageRepo    *repo.UsageRepo
	referralRepo *repo.ReferralRepo
	logger       *slog.Logger
}

// Config — конфигурация Service.
type Config struct {
	Gateway      *GatewayClient
	OrgRepo      *repo.OrgRepo
	UsageRepo    *repo.UsageRepo
	ReferralRepo *repo.ReferralRepo
	Logger       *slog.Logger
}

// NewService создаёт новый Service.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		gateway:      cfg.Gateway,
		orgRepo:      cfg.OrgRepo,
		usageRepo:    cfg.UsageRepo,
		referralRepo: cfg.ReferralRepo,
		logger:       logger,
	}
}

// EnsureCustomer возвращает billing customer организации, создавая его
// в шлюзе при первом обращении. Ref сохраняется в организации, чтобы
// webhook'и шлюза могли сопоставить события с ней.
func (s *Service) EnsureCustomer(ctx context.Context, org *domain.Organization) (string, error) {
	if org.BillingCustomerRef != "" {
		return org.BillingCustomerRef, nil
	}

	ref, err := s.gateway.CreateCustomer(ctx, org.Name, s.billingEmail(ctx, org.ID))
	if err != nil {
		return "", fmt.Errorf("create billing customer: %w", err)
	}

	org.BillingCustomerRef = ref
	if err := s.orgRepo.UpdateOrg(ctx, org); err != nil {
		return "", fmt.Errorf("save billing customer ref: %w", err)
	}

	s.logger.Info("billing customer provisioned",
		"org_id", org.ID,
		"customer_ref", ref,
	)

	return ref, nil
}

// billingEmail возвращает email администратора организации.
func (s *Service) billingEmail(ctx context.Context, orgID uuid.UUID) string {
	users, err := s.orgRepo.ListUsersByOrg(ctx, orgID)
	if err != nil || len(users) == 0 {
		return ""
	}
	for _, u := range users {
		if u.Role == domain.RoleAdmin {
			return u.Email
		}
	}
	return users[0].Email
}

// SettlePeriod списывает overage закрытого периода через шлюз.
// Период без overage помечается SETTLED без обращения к шлюзу.
func (s *Service) SettlePeriod(ctx context.Context, period *domain.UsagePeriod) error {
	if period.Status != domain.PeriodStatusClosed {
		return fmt.Errorf("period %s is not closed", period.ID)
	}

	if period.OverageCharge.IsZero() {
		period.MarkSettled("")
		if err := s.usageRepo.UpdatePeriod(ctx, period); err != nil {
			return fmt.Errorf("update period: %w", err)
		}
		return nil
	}

	org, err := s.orgRepo.GetOrgByID(ctx, period.OrgID)
	if err != nil {
		return fmt.Errorf("get organization: %w", err)
	}
	customerRef, err := s.EnsureCustomer(ctx, org)
	if err != nil {
		return fmt.Errorf("ensure billing customer: %w", err)
	}

	description := fmt.Sprintf("Overage: %d minutes, %s", period.OverageMinutes, period.Month.Format("2006-01"))
	paymentRef, err := s.gateway.Charge(ctx, customerRef, period.OverageCharge, description)
	if err != nil {
		return fmt.Errorf("charge overage: %w", err)
	}

	period.MarkSettled(paymentRef)
	if err := s.usageRepo.UpdatePeriod(ctx, period); err != nil {
		return fmt.Errorf("update period: %w", err)
	}

	s.logger.Info("overage settled",
		"org_id", period.OrgID,
		"month", period.Month.Format("2006-01"),
		"charge", period.OverageCharge.StringFixed(2),
		"payment_ref", paymentRef,
	)

	return nil
}

// SettleCommission выплачивает due комиссию партнёру.
func (s *Service) SettleCommission(ctx context.Context, c *domain.Commission) error {
	if c.Status != domain.CommissionStatusPending {
		return fmt.Errorf("commission %s is not pending", c.ID)
	}

	partner, err := s.orgRepo.GetOrgByID(ctx, c.PartnerOrgID)
	if err != nil {
		return fmt.Errorf("get partner organization: %w", err)
	}
	customerRef, err := s.EnsureCustomer(ctx, partner)
	if err != nil {
		return fmt.Errorf("ensure billing customer: %w", err)
	}

	description := fmt.Sprintf("Referral commission %s", c.ReferralID)
	payoutRef, err := s.gateway.CreatePayout(ctx, customerRef, c.Amount, description)
	if err != nil {
		return fmt.Errorf("create payout: %w", err)
	}

	c.MarkSettled(payoutRef)
	if err := s.referralRepo.UpdateCommission(ctx, c); err != nil {
		return fmt.Errorf("update commission: %w", err)
	}

	s.logger.Info("commission settled",
		"commission_id", c.ID,
		"partner_org_id", c.PartnerOrgID,
		"amount", c.Amount.StringFixed(2),
		"payout_ref", payoutRef,
	)

	return nil
}

// Checkout создаёт checkout session для смены плана организации.
// Организация без billing customer получает его здесь: к моменту
// события checkout.completed ref уже сохранён.
func (s *Service) Checkout(ctx context.Context, org *domain.Organization, planID, successURL, cancelURL string) (string, error) {
	customerRef, err := s.EnsureCustomer(ctx, org)
	if err != nil {
		return "", fmt.Errorf("ensure billing customer: %w", err)
	}
	return s.gateway.CreateCheckoutSession(ctx, customerRef, planID, successURL, cancelURL)
}
