package services

import (
	"context"
	"math"
	"sort"
	"time"

	"procurement-backend/database"
	"procurement-backend/models"

	"github.com/shopspring/decimal"
)

// AgingReportRow aggregates a partner's outstanding bills into overdue
// buckets. TotalDue is the sum across all buckets.
type AgingReportRow struct {
	PartnerID   string          `json:"partner_id"`
	PartnerName string          `json:"partner_name"`
	Current     decimal.Decimal `json:"current"`
	Bucket1     decimal.Decimal `json:"bucket_1_30"`
	Bucket2     decimal.Decimal `json:"bucket_31_60"`
	Bucket3     decimal.Decimal `json:"bucket_61_90"`
	Bucket4     decimal.Decimal `json:"bucket_over_90"`
	TotalDue    decimal.Decimal `json:"total_due"`
}

// AgingReportEngine produces accounts-payable aging, read-only and
// independent of the idempotency path.
type AgingReportEngine struct {
	db *database.TenantDB
}

func NewAgingReportEngine(db *database.TenantDB) *AgingReportEngine {
	return &AgingReportEngine{db: db}
}

// daysOverdue counts whole days the bill is past due at asOf, rounding any
// started day up.
func daysOverdue(asOf, due time.Time) int {
	return int(math.Ceil(asOf.Sub(due).Hours() / 24))
}

// GetAgingReport buckets every unpaid, uncancelled bill by days overdue.
// partnerID narrows the report to one partner; a zero asOf means now.
// Rows are sorted by partner id so the output is stable.
func (e *AgingReportEngine) GetAgingReport(ctx context.Context, partnerID string, asOf time.Time) ([]AgingReportRow, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	db, err := e.db.Scoped(ctx)
	if err != nil {
		return nil, err
	}

	q := db.Where("status NOT IN ?", []models.VendorBillStatus{
		models.VendorBillStatusPaid, models.VendorBillStatusCancelled,
	})
	if partnerID != "" {
		q = q.Where("partner_id = ?", partnerID)
	}
	var bills []models.VendorBill
	if err := q.Find(&bills).Error; err != nil {
		return nil, err
	}

	byPartner := make(map[string]*AgingReportRow)
	for i := range bills {
		bill := &bills[i]
		row, ok := byPartner[bill.PartnerID]
		if !ok {
			row = &AgingReportRow{PartnerID: bill.PartnerID}
			byPartner[bill.PartnerID] = row
		}

		amountDue := bill.BalanceDue()
		days := 0
		if bill.DueDate != nil {
			days = daysOverdue(asOf, *bill.DueDate)
		}
		switch {
		case days <= 0:
			row.Current = row.Current.Add(amountDue)
		case days <= 30:
			row.Bucket1 = row.Bucket1.Add(amountDue)
		case days <= 60:
			row.Bucket2 = row.Bucket2.Add(amountDue)
		case days <= 90:
			row.Bucket3 = row.Bucket3.Add(amountDue)
		default:
			row.Bucket4 = row.Bucket4.Add(amountDue)
		}
		row.TotalDue = row.TotalDue.Add(amountDue)
	}
	if len(byPartner) == 0 {
		return []AgingReportRow{}, nil
	}

	ids := make([]string, 0, len(byPartner))
	for id := range byPartner {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var partners []models.Partner
	if err := db.Where("id IN ?", ids).Find(&partners).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(partners))
	for _, p := range partners {
		names[p.Id] = p.Name
	}

	rows := make([]AgingReportRow, 0, len(ids))
	for _, id := range ids {
		row := byPartner[id]
		row.PartnerName = names[id]
		rows = append(rows, *row)
	}
	return rows, nil
}
