package admin

import (
	"context"
	"errors"

	"nftmarket-backend/internal/application/fees"
	"nftmarket-backend/internal/application/market"
	"nftmarket-backend/internal/application/marketevents"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/infrastructure/database"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service owns the fee policy and the payment denomination allow-list. Every mutation is gated
// on the configured administrator and takes effect for the next call.
type Service struct {
	Runner *market.Runner
	Fees   *fees.Store
	Owner  string
}

// Settings is the admin view of the marketplace configuration.
type Settings struct {
	Policy        fees.Policy           `json:"fee_policy"`
	MaxRate       int                   `json:"max_fee_rate_points"`
	Denominations []domain.Denomination `json:"allowed_denominations"`
}

func (s *Service) IsAdmin(account string) bool {
	return s.Owner != "" && domain.NormalizeAddress(account) == s.Owner
}

func (s *Service) requireAdmin(caller string) error {
	if !s.IsAdmin(caller) {
		return market.ErrNotAdmin
	}
	return nil
}

// Bootstrap seeds the settings row and allows the native currency the first time the service
// starts against an empty database. Existing settings are left untouched.
func (s *Service) Bootstrap(ctx context.Context, initial fees.Policy) error {
	if err := fees.ValidateRate(initial.RatePoints); err != nil {
		return err
	}
	if err := fees.ValidateRecipient(initial.Recipient); err != nil {
		return err
	}
	return s.Runner.Run(ctx, func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error {
		_, err := s.Fees.Current(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fees.ErrNotInitialized) {
			return err
		}
		if err := tx.Create(&domain.MarketSettings{
			ID:            domain.SettingsRowID,
			FeeRatePoints: initial.RatePoints,
			FeeRecipient:  domain.NormalizeAddress(initial.Recipient),
		}).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.PaymentDenomination{
			Denomination: domain.Native(),
			Allowed:      true,
		}).Error; err != nil {
			return err
		}
		log.Info().Int("fee_rate_points", initial.RatePoints).Str("fee_recipient", initial.Recipient).Msg("market settings initialized")
		return nil
	})
}

func (s *Service) GetSettings(ctx context.Context) (*Settings, error) {
	policy, err := s.Fees.Current(ctx)
	if err != nil {
		return nil, err
	}
	var rows []domain.PaymentDenomination
	if err := database.Conn(ctx, s.Runner.DB).Where("allowed = ?", true).Order("denomination ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := &Settings{Policy: policy, MaxRate: fees.MaxRate, Denominations: make([]domain.Denomination, 0, len(rows))}
	for _, r := range rows {
		out.Denominations = append(out.Denominations, r.Denomination)
	}
	return out, nil
}

func (s *Service) SetFeeRate(ctx context.Context, caller string, ratePoints int) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}
	if err := fees.ValidateRate(ratePoints); err != nil {
		return err
	}
	return s.Runner.Run(ctx, func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error {
		old, err := s.Fees.Current(ctx)
		if err != nil {
			return err
		}
		if err := tx.Model(&domain.MarketSettings{}).Where("id = ?", domain.SettingsRowID).
			Update("fee_rate_points", ratePoints).Error; err != nil {
			return err
		}
		_, err = j.Record(marketevents.Entry{
			Kind:  domain.EventFeeRateUpdated,
			Actor: domain.NormalizeAddress(caller),
			Data:  map[string]interface{}{"old_rate_points": old.RatePoints, "new_rate_points": ratePoints},
		})
		return err
	})
}

func (s *Service) SetFeeRecipient(ctx context.Context, caller, recipient string) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}
	if err := fees.ValidateRecipient(recipient); err != nil {
		return err
	}
	recipient = domain.NormalizeAddress(recipient)
	return s.Runner.Run(ctx, func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error {
		old, err := s.Fees.Current(ctx)
		if err != nil {
			return err
		}
		if err := tx.Model(&domain.MarketSettings{}).Where("id = ?", domain.SettingsRowID).
			Update("fee_recipient", recipient).Error; err != nil {
			return err
		}
		_, err = j.Record(marketevents.Entry{
			Kind:  domain.EventFeeRecipientUpdated,
			Actor: domain.NormalizeAddress(caller),
			Data:  map[string]interface{}{"old_recipient": old.Recipient, "new_recipient": recipient},
		})
		return err
	})
}

// SetDenomination adds a denomination to the allow-list or removes it.
func (s *Service) SetDenomination(ctx context.Context, caller string, denom domain.Denomination, allowed bool) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}
	if denom.IsZero() {
		return domain.ErrInvalidDenomination
	}
	return s.Runner.Run(ctx, func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error {
		if err := tx.Save(&domain.PaymentDenomination{Denomination: denom, Allowed: allowed}).Error; err != nil {
			return err
		}
		_, err := j.Record(marketevents.Entry{
			Kind:  domain.EventPaymentDenominationUpdated,
			Actor: domain.NormalizeAddress(caller),
			Data:  map[string]interface{}{"denomination": denom.String(), "allowed": allowed},
		})
		return err
	})
}

// IsAllowed reports whether denom is on the allow-list, joining the transaction carried by ctx.
func IsAllowed(ctx context.Context, db *gorm.DB, denom domain.Denomination) (bool, error) {
	var row domain.PaymentDenomination
	err := database.Conn(ctx, db).Where("denomination = ?", denom).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return row.Allowed, nil
}
