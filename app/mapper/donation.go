package mapper

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

func DonationToResponse(item *entity.Donation) *types.Donation {
	if item == nil {
		return nil
	}

	return &types.Donation{
		Id:             item.ID,
		PaymentId:      item.PaymentID,
		Name:           item.Name,
		Email:          item.Email,
		Phone:          derefString(item.Phone),
		SteamId:        derefString(item.SteamID),
		Amount:         Money(item.Amount),
		Description:    derefString(item.Description),
		Status:         item.Status,
		DiscountCoupon: derefString(item.DiscountCoupon),
		QrCode:         derefString(item.QRCode),
		QrCodeBase64:   derefString(item.QRCodeBase64),
		TicketUrl:      derefString(item.TicketURL),
		CreatedAt:      formatTime(item.CreatedAt),
		UpdatedAt:      formatTime(item.UpdatedAt),
	}
}

func DonationsToResponse(items []*entity.Donation) []*types.Donation {
	result := make([]*types.Donation, 0, len(items))
	for _, item := range items {
		result = append(result, DonationToResponse(item))
	}
	return result
}

func CreatePixPaymentToResponse(result *service.CreatePixPaymentResult) *types.CreatePixPaymentResponse {
	resp := &types.CreatePixPaymentResponse{
		QRCode:         result.QRCode,
		QRCodeBase64:   result.QRCodeBase64,
		TicketURL:      result.TicketURL,
		PaymentID:      result.PaymentID,
		Status:         result.Status,
		DonationID:     result.DonationID,
		Amount:         Money(result.Amount),
		OriginalAmount: Money(result.OriginalAmount),
	}
	if result.DiscountCoupon != "" {
		code := result.DiscountCoupon
		resp.DiscountCoupon = &code
	}
	return resp
}

func RefreshReportToResponse(report *service.RefreshReport) *types.RefreshReportResponse {
	return &types.RefreshReportResponse{
		Checked: report.Checked,
		Updated: report.Updated,
		Failed:  report.Failed,
	}
}

func BackfillReportToResponse(report *service.BackfillReport) *types.BackfillReportResponse {
	return &types.BackfillReportResponse{
		Scanned:  report.Scanned,
		Inserted: report.Inserted,
		Failed:   report.Failed,
	}
}

func MonthlySummaryToResponse(summary *service.MonthlySummary) *types.MonthlySummaryResponse {
	return &types.MonthlySummaryResponse{
		Month:               summary.Month,
		Year:                summary.Year,
		DonationCount:       summary.DonationCount,
		ApprovedCount:       summary.ApprovedCount,
		PendingCount:        summary.PendingCount,
		ApprovedTotal:       Money(summary.ApprovedTotal),
		PendingTotal:        Money(summary.PendingTotal),
		InfrastructureTotal: Money(summary.InfrastructureTotal),
		CampaignCount:       summary.CampaignCount,
		CampaignsTotal:      Money(summary.CampaignsTotal),
		Balance:             Money(summary.Balance),
	}
}

// Money renders an amount with exactly two decimals as a JSON number.
func Money(value decimal.Decimal) json.Number {
	return json.Number(value.StringFixed(2))
}

func moneyPtr(value *decimal.Decimal) *json.Number {
	if value == nil {
		return nil
	}
	n := Money(*value)
	return &n
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
