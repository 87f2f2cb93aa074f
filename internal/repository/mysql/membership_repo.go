package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"openbands/internal/model"
)

type MembershipRepository struct {
	DB *gorm.DB
}

// Join admits a wallet into a community, snapshotting the badge that
// authorized it. Idempotent: an existing active row is returned unchanged
// and changed=false. Row insert, member_count increment and outbox event
// run in one transaction.
func (r *MembershipRepository) Join(ctx context.Context, communityID uint64, address, attValue string, verifiedAt time.Time) (*model.Membership, bool, error) {
	var m model.Membership
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("community_id = ? AND member_address = ?", communityID, address).First(&m).Error
		if err == nil {
			if m.IsActive {
				changed = false
				return nil
			}
			// Rejoin after leave: reactivate with a fresh snapshot.
			res := tx.Model(&model.Membership{}).
				Where("id = ? AND is_active = ?", m.ID, false).
				Updates(map[string]any{
					"is_active":               true,
					"attestation_value":       attValue,
					"attestation_verified_at": verifiedAt,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				changed = false
				return nil
			}
			m.IsActive = true
			m.AttestationValue = attValue
			m.AttestationVerifiedAt = verifiedAt
			changed = true
			if err := adjustMemberCount(tx, communityID, +1); err != nil {
				return err
			}
			return insertOutbox(tx, "join", communityID, address, nil)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		m = model.Membership{
			CommunityID:           communityID,
			MemberAddress:         address,
			AttestationValue:      attValue,
			AttestationVerifiedAt: verifiedAt,
			IsActive:              true,
		}
		// Unique (community_id, member_address) makes a concurrent double
		// join a no-op rather than an error.
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "member_address"}},
			DoNothing: true,
		}).Create(&m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			changed = false
			return tx.Where("community_id = ? AND member_address = ?", communityID, address).First(&m).Error
		}
		changed = true
		if err := adjustMemberCount(tx, communityID, +1); err != nil {
			return err
		}
		return insertOutbox(tx, "join", communityID, address, nil)
	})
	if err != nil {
		return nil, false, err
	}
	return &m, changed, nil
}

// Leave deactivates the membership. Idempotent; member_count is floored.
func (r *MembershipRepository) Leave(ctx context.Context, communityID uint64, address string) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Membership{}).
			Where("community_id = ? AND member_address = ? AND is_active = ?", communityID, address, true).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			changed = false
			return nil
		}
		changed = true
		if err := adjustMemberCount(tx, communityID, -1); err != nil {
			return err
		}
		return insertOutbox(tx, "leave", communityID, address, nil)
	})
	return changed, err
}

func (r *MembershipRepository) IsMember(ctx context.Context, communityID uint64, address string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Membership{}).
		Where("community_id = ? AND member_address = ? AND is_active = ?", communityID, address, true).
		Count(&count).Error
	return count > 0, err
}

func (r *MembershipRepository) Get(ctx context.Context, communityID uint64, address string) (*model.Membership, error) {
	var m model.Membership
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND member_address = ?", communityID, address).
		First(&m).Error
	return &m, err
}

func adjustMemberCount(tx *gorm.DB, communityID uint64, delta int64) error {
	expr := gorm.Expr("member_count + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN member_count + ? < 0 THEN 0 ELSE member_count + ? END", delta, delta)
	}
	return tx.Model(&model.Community{}).
		Where("id = ?", communityID).
		UpdateColumn("member_count", expr).Error
}
