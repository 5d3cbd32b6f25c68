package models

import "time"

// Report lifecycle statuses. "completed" is part of the declared set but no
// flow currently transitions into it.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusVerified   = "verified"
)

// Ledger entry types. The sign is implied by the type: earned_* adds to the
// balance, redeemed subtracts. Amounts are always non-negative magnitudes.
const (
	TxEarnedReport  = "earned_report"
	TxEarnedCollect = "earned_collect"
	TxRedeemed      = "redeemed"
)

// RewardIDAllPoints is the synthetic catalog entry representing the user's
// raw balance; redeeming it zeroes the balance.
const RewardIDAllPoints = 0

// Principal is the authenticated identity for one request, resolved by the
// auth middleware from the identity provider's token.
type Principal struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Report struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Location     string    `json:"location"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	WasteType    string    `json:"waste_type"`
	Amount       string    `json:"amount"`
	ImageURL     string    `json:"image_url,omitempty"`
	Verification string    `json:"verification,omitempty"`
	Status       string    `json:"status"`
	CollectorID  *int64    `json:"collector_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CollectionTask is a report viewed from the collector's perspective.
type CollectionTask struct {
	ID          int64     `json:"id"`
	Location    string    `json:"location"`
	WasteType   string    `json:"waste_type"`
	Amount      string    `json:"amount"`
	Status      string    `json:"status"`
	Date        time.Time `json:"date"`
	CollectorID *int64    `json:"collector_id,omitempty"`
}

type CollectedWaste struct {
	ID          int64     `json:"id"`
	ReportID    int64     `json:"report_id"`
	CollectorID int64     `json:"collector_id"`
	CollectedAt time.Time `json:"collected_at"`
	Status      string    `json:"status"`
}

// Reward is a catalog entry only; award history lives in the ledger.
type Reward struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Cost           int    `json:"cost"`
	Description    string `json:"description"`
	CollectionInfo string `json:"collection_info"`
	IsAvailable    bool   `json:"is_available,omitempty"`
}

type Transaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Type        string    `json:"type"`
	Amount      int       `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type SubmitReportRequest struct {
	Location  string   `json:"location" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	WasteType string   `json:"waste_type" binding:"required"`
	Amount    string   `json:"amount" binding:"required"`
	ImageURL  string   `json:"image_url"`
	// Classifier suggestion captured at submit time, opaque to the server.
	Verification string `json:"verification"`
}

type VerifyCollectionRequest struct {
	// JPEG bytes of the collector's photo, base64 in transit.
	Image []byte `json:"image" binding:"required"`
}

type RedeemRequest struct {
	RewardID int64 `json:"reward_id"`
}

type RedeemResponse struct {
	RewardID int64  `json:"reward_id"`
	Name     string `json:"name"`
	Points   int    `json:"points_redeemed"`
	Balance  int    `json:"balance"`
}

type BalanceResponse struct {
	UserID  int64 `json:"user_id"`
	Balance int   `json:"balance"`
}

// ViewPort bounds a map query.
type ViewPort struct {
	LatMin float64 `form:"latmin" json:"latmin"`
	LonMin float64 `form:"lonmin" json:"lonmin"`
	LatMax float64 `form:"latmax" json:"latmax"`
	LonMax float64 `form:"lonmax" json:"lonmax"`
}

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapResult is one aggregated cluster of report locations.
type MapResult struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int64   `json:"count"`
}

type ImpactStats struct {
	UserID           int64  `json:"user_id"`
	ReportsSubmitted int    `json:"reports_submitted"`
	WastesCollected  int    `json:"wastes_collected"`
	PointsEarned     int    `json:"points_earned"`
	AvgPointsPerAct  string `json:"avg_points_per_action"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
