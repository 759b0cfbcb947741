package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_Unmarshal(t *testing.T) {
	var req CreateBookingRequest
	require.NoError(t, json.Unmarshal([]byte(`{"start_date":"2026-10-20","end_date":"2026-10-30"}`), &req))
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), req.StartDate.Time)
	assert.Equal(t, time.Date(2026, 10, 30, 0, 0, 0, 0, time.UTC), req.EndDate.Time)

	for _, bad := range []string{`{"start_date":"20/10/2026"}`, `{"start_date":20261020}`, `{"start_date":"2026-10-20T00:00:00Z"}`} {
		assert.Error(t, json.Unmarshal([]byte(bad), &req), bad)
	}
}

func TestBookingResponse_JSON(t *testing.T) {
	reason := "moving"
	b := &models.Booking{
		ID:                 1,
		PropertyID:         2,
		TenantID:           "tenant-1",
		StartDate:          time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 10, 30, 0, 0, 0, 0, time.UTC),
		MonthlyRent:        decimal.RequireFromString("1000.5"),
		Status:             models.StatusCancelled,
		CancellationReason: &reason,
	}

	raw, err := json.Marshal(ToBookingResponse(b))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "2026-10-20", got["start_date"])
	assert.Equal(t, "2026-10-30", got["end_date"])
	assert.Equal(t, "1000.5", got["monthly_rent"])
	assert.Equal(t, "cancelled", got["status"])
	assert.Equal(t, "moving", got["cancellation_reason"])
	assert.NotContains(t, got, "finalized_at")
}

func TestEarlyExitResponse_NestsInspectionAndSettlement(t *testing.T) {
	exit := &models.EarlyExitRequest{
		ID:     4,
		Status: models.ExitInspectionCompleted,
		Inspection: &models.InspectionReport{
			Status: models.InspectionCompleted,
			Images: []models.InspectionImage{{URL: "a.jpg"}, {URL: "b.jpg"}},
		},
		Settlement: &models.Settlement{Status: models.SettlementDraft, NetPayableToOwner: decimal.NewFromInt(1000)},
	}

	resp := ToEarlyExitResponse(exit)

	require.NotNil(t, resp.Inspection)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, resp.Inspection.ImageURLs)
	require.NotNil(t, resp.Settlement)
	assert.True(t, decimal.NewFromInt(1000).Equal(resp.Settlement.NetPayableToOwner))

	assert.Nil(t, ToEarlyExitResponse(&models.EarlyExitRequest{}).Settlement)
}
