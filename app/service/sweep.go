package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"golang.org/x/sync/errgroup"
)

type RefreshReport struct {
	Checked int
	Updated int
	Failed  int
}

type BackfillReport struct {
	Scanned  int
	Inserted int
	Failed   int
}

// RefreshPendingStatuses re-reads the newest donations in an open status from
// the gateway. A failing donation is logged and counted; the sweep goes on.
func (s *DonationService) RefreshPendingStatuses(ctx context.Context) (*RefreshReport, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if settings.MercadoPagoAccessToken == "" {
		return nil, ErrGatewayTokenMissing
	}

	items, err := s.donations.ListOpen(ctx, s.batchSize())
	if err != nil {
		return nil, err
	}

	var updated, failed int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.refreshConcurrency())

	for _, donation := range items {
		if donation == nil || strings.TrimSpace(donation.PaymentID) == "" {
			continue
		}
		donation := donation
		group.Go(func() error {
			changed, err := s.refreshOne(groupCtx, settings.MercadoPagoAccessToken, donation)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				s.logger.WithError(err).WithFields(logrus.Fields{
					"donation_id": donation.ID,
					"payment_id":  donation.PaymentID,
				}).Warn("status refresh failed")
				return nil
			}
			if changed {
				atomic.AddInt64(&updated, 1)
			}
			return nil
		})
	}
	_ = group.Wait()

	return &RefreshReport{
		Checked: len(items),
		Updated: int(updated),
		Failed:  int(failed),
	}, ctx.Err()
}

func (s *DonationService) refreshOne(ctx context.Context, accessToken string, donation *entity.Donation) (bool, error) {
	payment, err := s.gateway.GetPayment(ctx, accessToken, donation.PaymentID)
	if err != nil {
		return false, upstreamError(err)
	}
	return s.syncStatus(ctx, donation, payment.Status)
}

// BackfillMissingDonations inserts rows for recent gateway payments created by
// this service whose local insert never happened.
func (s *DonationService) BackfillMissingDonations(ctx context.Context) (*BackfillReport, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if settings.MercadoPagoAccessToken == "" {
		return nil, ErrGatewayTokenMissing
	}

	lookback := s.donationsCfg.BackfillLookback
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	payments, err := s.gateway.SearchPixPayments(ctx, settings.MercadoPagoAccessToken, s.now().Add(-lookback), int(s.batchSize()))
	if err != nil {
		return nil, upstreamError(err)
	}

	ours := make([]*provider.Payment, 0, len(payments))
	ids := make([]string, 0, len(payments))
	for _, payment := range payments {
		if payment == nil || payment.ID == "" || strings.TrimSpace(payment.Metadata["donor_email"]) == "" {
			continue
		}
		ours = append(ours, payment)
		ids = append(ids, payment.ID)
	}

	report := &BackfillReport{Scanned: len(ours)}
	if len(ours) == 0 {
		return report, nil
	}

	existing := make(map[string]bool, len(ids))
	batch := int(s.batchSize())
	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}
		found, err := s.donations.ExistingPaymentIDs(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		for id := range found {
			existing[id] = true
		}
	}

	var firstErr error
	for _, payment := range ours {
		if existing[payment.ID] {
			continue
		}
		donation := donationFromPayment(payment, s.now())
		if err := s.donations.Create(ctx, donation); err != nil {
			if errors.Is(err, repository.ErrDonationAlreadyExists) {
				continue
			}
			report.Failed++
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		report.Inserted++
		s.logger.WithFields(logrus.Fields{
			"donation_id": donation.ID,
			"payment_id":  payment.ID,
		}).Info("donation backfilled from gateway")
	}

	return report, firstErr
}

func donationFromPayment(payment *provider.Payment, now time.Time) *entity.Donation {
	meta := payment.Metadata
	createdAt := payment.DateCreated
	if createdAt.IsZero() {
		createdAt = now
	}
	status := payment.Status
	if status == "" {
		status = entity.DonationStatusPending
	}

	return &entity.Donation{
		ID:             uuid.NewString(),
		PaymentID:      payment.ID,
		Name:           strings.TrimSpace(meta["donor_name"]),
		Email:          strings.TrimSpace(meta["donor_email"]),
		Phone:          normalizeOptionalString(meta["phone"]),
		SteamID:        normalizeOptionalString(meta["steam_id"]),
		Amount:         payment.Amount,
		Description:    normalizeOptionalString(payment.Description),
		Status:         status,
		DiscountCoupon: normalizeOptionalString(meta["coupon_code"]),
		QRCode:         normalizeOptionalString(payment.QRCode),
		QRCodeBase64:   normalizeOptionalString(payment.QRCodeBase64),
		TicketURL:      normalizeOptionalString(payment.TicketURL),
		CreatedAt:      createdAt,
		UpdatedAt:      now,
	}
}

func (s *DonationService) batchSize() int32 {
	if s.donationsCfg.JobBatchSize <= 0 {
		return defaultBatchSize
	}
	return s.donationsCfg.JobBatchSize
}

func (s *DonationService) refreshConcurrency() int {
	if s.donationsCfg.RefreshConcurrency <= 0 {
		return 4
	}
	return s.donationsCfg.RefreshConcurrency
}
