package models

// Requests for the quotes HTTP endpoints.

type QuotesRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"H1"`
	Count     int    `query:"count" json:"count" default:"100" validate:"gte=1,lte=50000"`
	StartDate string `query:"start_date" json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `query:"end_date" json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// IchimokuRequest always works on H1 bars. Count may be below the Ichimoku
// minimum; the use case widens it.
type IchimokuRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Count     int    `query:"count" json:"count" default:"200" validate:"lte=50000"`
	StartDate string `query:"start_date" json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `query:"end_date" json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}
