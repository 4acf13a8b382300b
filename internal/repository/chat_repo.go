package repository

import (
	"context"
	"time"

	"github.com/KobaKhit/rebelzapp/internal/models"
	"gorm.io/gorm"
)

type ChatRepository interface {
	CreateGroupWithMember(ctx context.Context, group *models.ChatGroup, member *models.ChatGroupMember) error
	CreateGroupWithMembers(ctx context.Context, group *models.ChatGroup, members []models.ChatGroupMember) error
	FindGroupByID(ctx context.Context, id uint) (*models.ChatGroup, error)
	FindGroupsByUser(ctx context.Context, userID uint) ([]models.ChatGroup, error)
	SearchPublicGroups(ctx context.Context, query string) ([]models.ChatGroup, error)
	SaveGroup(ctx context.Context, group *models.ChatGroup) error
	DeleteGroup(ctx context.Context, id uint) error

	FindMember(ctx context.Context, groupID, userID uint) (*models.ChatGroupMember, error)
	AddMember(ctx context.Context, member *models.ChatGroupMember) error
	RemoveMember(ctx context.Context, groupID, userID uint) error

	CreateMessage(ctx context.Context, message *models.ChatMessage) error
	FindMessageByID(ctx context.Context, id uint) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, groupID uint, limit, offset int) ([]models.ChatMessage, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateGroupWithMember(ctx context.Context, group *models.ChatGroup, member *models.ChatGroupMember) error {
	return r.CreateGroupWithMembers(ctx, group, []models.ChatGroupMember{*member})
}

// CreateGroupWithMembers persists the group and its initial membership in one
// transaction so a group is never visible without its creator.
func (r *chatRepository) CreateGroupWithMembers(ctx context.Context, group *models.ChatGroup, members []models.ChatGroupMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		for i := range members {
			members[i].GroupID = group.ID
			if members[i].JoinedAt.IsZero() {
				members[i].JoinedAt = time.Now()
			}
			if err := tx.Create(&members[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *chatRepository) FindGroupByID(ctx context.Context, id uint) (*models.ChatGroup, error) {
	var group models.ChatGroup
	err := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Preload("ManagedBy").
		Preload("Members").
		Preload("Members.User").
		First(&group, id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *chatRepository) FindGroupsByUser(ctx context.Context, userID uint) ([]models.ChatGroup, error) {
	var groups []models.ChatGroup
	err := r.db.WithContext(ctx).
		Joins("JOIN chat_group_members ON chat_group_members.group_id = chat_groups.id").
		Where("chat_group_members.user_id = ?", userID).
		Preload("CreatedBy").
		Preload("ManagedBy").
		Preload("Members").
		Preload("Members.User").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *chatRepository) SearchPublicGroups(ctx context.Context, query string) ([]models.ChatGroup, error) {
	var groups []models.ChatGroup
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("is_private = ? AND (name ILIKE ? OR description ILIKE ?)", false, pattern, pattern).
		Preload("CreatedBy").
		Preload("ManagedBy").
		Preload("Members").
		Preload("Members.User").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *chatRepository) SaveGroup(ctx context.Context, group *models.ChatGroup) error {
	return r.db.WithContext(ctx).Save(group).Error
}

// DeleteGroup removes the group together with its members and messages.
func (r *chatRepository) DeleteGroup(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.ChatGroupMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ChatGroup{}, id).Error
	})
}

func (r *chatRepository) FindMember(ctx context.Context, groupID, userID uint) (*models.ChatGroupMember, error) {
	var member models.ChatGroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *chatRepository) AddMember(ctx context.Context, member *models.ChatGroupMember) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *chatRepository) RemoveMember(ctx context.Context, groupID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.ChatGroupMember{}).Error
}

func (r *chatRepository) CreateMessage(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *chatRepository) FindMessageByID(ctx context.Context, id uint) (*models.ChatMessage, error) {
	var message models.ChatMessage
	if err := r.db.WithContext(ctx).Preload("Sender").First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// ListMessages returns the requested page oldest-first.
func (r *chatRepository) ListMessages(ctx context.Context, groupID uint, limit, offset int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	q := r.db.WithContext(ctx).
		Preload("Sender").
		Where("group_id = ?", groupID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&messages).Error; err != nil {
		return nil, err
	}
	// newest page fetched descending; flip so callers see oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
