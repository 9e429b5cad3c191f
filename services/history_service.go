package services

import (
	"context"
	"sort"
	"time"

	"chemtrack-backend/models"

	"gorm.io/gorm"
)

// HistoryEntry is one change row prepared for display: joined with chemical
// metadata, mapped to human labels and carrying the replayed running total.
type HistoryEntry struct {
	ID            uint      `json:"id"`
	ChemicalID    uint      `json:"chemical_id"`
	Chemical      string    `json:"chemical"`
	Unit          string    `json:"unit"`
	Location      string    `json:"location"`
	LocationLabel string    `json:"location_label"`
	Amount        float64   `json:"amount"`
	Type          string    `json:"type"`
	TypeLabel     string    `json:"type_label"`
	UserEmail     string    `json:"user_email"`
	UserName      string    `json:"user_name"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	RunningTotal  float64   `json:"running_total"`
	CreatedAt     time.Time `json:"created_at"`
}

// HistoryService builds the change-history view.
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// List returns history entries newest-first. chemicalID of 0 means all
// chemicals; location "" or "all" means all locations. Running totals are
// replayed over the full unfiltered stream for each (chemical, location), so
// filtering never changes a row's total.
func (s *HistoryService) List(ctx context.Context, chemicalID uint, location string) ([]HistoryEntry, error) {
	query := s.db.WithContext(ctx).Preload("Chemical").Order("created_at DESC, id DESC")
	if chemicalID != 0 {
		query = query.Where("chemical_id = ?", chemicalID)
	}

	var rows []models.ChangeHistory
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	totals := RunningTotals(rows)

	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		if location != "" && location != "all" && row.Location != location {
			continue
		}
		entry := HistoryEntry{
			ID:            row.ID,
			ChemicalID:    row.ChemicalID,
			Location:      row.Location,
			LocationLabel: models.LocationLabel(row.Location),
			Amount:        row.Amount,
			Type:          row.Type,
			TypeLabel:     models.ChangeTypeLabel(row.Type),
			UserEmail:     row.UserEmail,
			UserName:      row.UserName,
			AttachmentURL: row.AttachmentURL,
			RunningTotal:  totals[row.ID],
			CreatedAt:     row.CreatedAt,
		}
		if row.Chemical != nil {
			entry.Chemical = row.Chemical.Name
			entry.Unit = row.Chemical.Unit
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type chemicalLocation struct {
	chemicalID uint
	location   string
}

// RunningTotals replays each (chemical, location) stream in chronological
// order and returns the cumulative signed sum at every row. The zero-based
// sum at a row always equals the stored balance at that point in time, which
// makes this a verification tool for the ledger as well as a display value.
func RunningTotals(rows []models.ChangeHistory) map[uint]float64 {
	groups := make(map[chemicalLocation][]models.ChangeHistory)
	for _, row := range rows {
		key := chemicalLocation{row.ChemicalID, row.Location}
		groups[key] = append(groups[key], row)
	}

	totals := make(map[uint]float64, len(rows))
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			if group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].ID < group[j].ID
			}
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})
		sum := 0.0
		for _, row := range group {
			sum += row.Amount
			totals[row.ID] = sum
		}
	}
	return totals
}
