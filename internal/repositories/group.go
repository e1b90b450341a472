package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thebinarypenguin/scribblez-go/internal/models"
)

// GroupRepository defines data access for groups and their membership.
type GroupRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	GetMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
	FindMember(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error)
	AddMember(ctx context.Context, member *models.GroupMember) error
	DeleteMember(ctx context.Context, member *models.GroupMember) error
	// Transactional methods
	CreateGroupWithMembersInTx(tx *gorm.DB, group *models.Group, memberIDs []uuid.UUID) error
	DeleteGroupWithMembersInTx(tx *gorm.DB, group *models.Group) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new gorm-backed GroupRepository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) GetMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("id").Find(&members).Error
	return members, err
}

func (r *groupRepository) FindMember(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *groupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *groupRepository) DeleteMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Delete(member).Error
}

// --- Transactional methods ---

func (r *groupRepository) CreateGroupWithMembersInTx(tx *gorm.DB, group *models.Group, memberIDs []uuid.UUID) error {
	if err := tx.Create(group).Error; err != nil {
		return err
	}
	if len(memberIDs) == 0 {
		return nil
	}

	members := make([]models.GroupMember, 0, len(memberIDs))
	for _, userID := range memberIDs {
		members = append(members, models.GroupMember{GroupID: group.ID, UserID: userID})
	}
	return tx.Create(&members).Error
}

// DeleteGroupWithMembersInTx removes a group, its membership rows, and any
// note grants mediated by it. Membership *changes* never touch grants, but a
// deleted group cannot keep mediating access to notes.
func (r *groupRepository) DeleteGroupWithMembersInTx(tx *gorm.DB, group *models.Group) error {
	if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupMember{}).Error; err != nil {
		return err
	}
	if err := tx.Where("group_id = ?", group.ID).Delete(&models.NoteGrant{}).Error; err != nil {
		return err
	}
	return tx.Delete(group).Error
}
