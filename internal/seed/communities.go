package seed

import (
	"fmt"

	"liberty/internal/models"

	"gorm.io/gorm"
)

// BuiltInCommunity is a permanent system community.
type BuiltInCommunity struct {
	Name        string
	Description string
}

// BuiltInCommunities defines the permanent system communities created on
// boot. Their creator is the platform owner account.
var BuiltInCommunities = []BuiltInCommunity{
	{Name: "Town Hall", Description: "Platform announcements and civic discussion."},
	{Name: "Newcomers", Description: "Introductions and getting-started help."},
	{Name: "Marketplace", Description: "Buy, sell, and trade."},
	{Name: "Law Enforcement", Description: "Department coordination and public outreach."},
	{Name: "Emergency Services", Description: "EMS and fire department channel."},
	{Name: "Mechanics", Description: "Garages, tuning, and vehicle talk."},
	{Name: "Nightlife", Description: "Clubs, events, and happenings."},
	{Name: "Real Estate", Description: "Property listings and housing discussion."},
}

// Communities seeds the permanent built-in communities idempotently. ownerID
// is recorded as creator so the communities are staff-managed.
func Communities(db *gorm.DB, ownerID uint) error {
	for _, item := range BuiltInCommunities {
		var community models.Community
		err := db.Where(models.Community{Name: item.Name}).
			Attrs(models.Community{
				Description: item.Description,
				CreatorID:   ownerID,
			}).
			FirstOrCreate(&community).Error
		if err != nil {
			return fmt.Errorf("seed built-in community %q: %w", item.Name, err)
		}
	}
	return nil
}
