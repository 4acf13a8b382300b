package service

import (
	"context"
	"errors"

	"github.com/KobaKhit/rebelzapp/internal/dto"
	"github.com/KobaKhit/rebelzapp/internal/models"
	"github.com/KobaKhit/rebelzapp/internal/repository"
	"github.com/KobaKhit/rebelzapp/pkg/rabbitmq"
	"gorm.io/gorm"
)

var (
	ErrGroupNotFound     = errors.New("group not found")
	ErrNotGroupMember    = errors.New("you are not a member of this group")
	ErrNotGroupAdmin     = errors.New("you must be a group admin for this operation")
	ErrNotGroupCreator   = errors.New("only the group creator can delete the group")
	ErrAlreadyMember     = errors.New("user is already a member of this group")
	ErrMemberNotFound    = errors.New("member not found in this group")
	ErrUserNotFound      = errors.New("user not found")
	ErrNotUserCreated    = errors.New("only user-created groups can be changed through this endpoint")
	ErrNotManagedGroup   = errors.New("only managed groups can be changed through this endpoint")
	ErrPrivateGroup      = errors.New("cannot join a private group without invitation")
	ErrManagerProtected  = errors.New("the group manager cannot be removed")
	ErrManagedGroupsOnly = errors.New("only admins and instructors can perform this operation")
	ErrAdminManagedOnly  = errors.New("only admins can create admin-managed groups")
)

type ChatService interface {
	CreateGroup(ctx context.Context, creator *models.User, req dto.CreateGroupRequest) (*models.ChatGroup, error)
	CreateManagedGroup(ctx context.Context, creator *models.User, req dto.CreateManagedGroupRequest) (*models.ChatGroup, error)
	MyGroups(ctx context.Context, userID uint) ([]models.ChatGroup, error)
	GetGroup(ctx context.Context, groupID, userID uint) (*models.ChatGroup, error)
	UpdateGroup(ctx context.Context, groupID uint, actor *models.User, req dto.UpdateGroupRequest) (*models.ChatGroup, error)
	DeleteGroup(ctx context.Context, groupID uint, actor *models.User) error
	AddMember(ctx context.Context, groupID uint, actor *models.User, req dto.AddMemberRequest) error
	RemoveMember(ctx context.Context, groupID, targetUserID uint, actor *models.User) error
	AssignMember(ctx context.Context, groupID uint, actor *models.User, req dto.AddMemberRequest) error
	UnassignMember(ctx context.Context, groupID, targetUserID uint, actor *models.User) error
	SearchPublicGroups(ctx context.Context, actor *models.User, query string) ([]models.ChatGroup, error)
	JoinPublicGroup(ctx context.Context, groupID uint, actor *models.User) error
	SendMessage(ctx context.Context, groupID, senderID uint, content string, messageType models.MessageType) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, groupID, userID uint, limit, offset int) ([]models.ChatMessage, error)
	IsMember(ctx context.Context, groupID, userID uint) (bool, error)
}

type chatService struct {
	chatRepo  repository.ChatRepository
	userRepo  repository.UserRepository
	publisher *rabbitmq.Publisher
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, publisher *rabbitmq.Publisher) ChatService {
	return &chatService{chatRepo: chatRepo, userRepo: userRepo, publisher: publisher}
}

func (s *chatService) CreateGroup(ctx context.Context, creator *models.User, req dto.CreateGroupRequest) (*models.ChatGroup, error) {
	group := &models.ChatGroup{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		GroupType:   models.GroupUserCreated,
		CreatedByID: creator.ID,
	}
	member := &models.ChatGroupMember{UserID: creator.ID, IsAdmin: true}
	if err := s.chatRepo.CreateGroupWithMember(ctx, group, member); err != nil {
		return nil, err
	}
	return s.chatRepo.FindGroupByID(ctx, group.ID)
}

// CreateManagedGroup creates an admin- or instructor-managed group. The
// creator becomes the manager and an admin member; the listed users are added
// as regular members.
func (s *chatService) CreateManagedGroup(ctx context.Context, creator *models.User, req dto.CreateManagedGroupRequest) (*models.ChatGroup, error) {
	ok, err := s.isAdminOrInstructor(ctx, creator.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrManagedGroupsOnly
	}

	groupType := models.GroupType(req.GroupType)
	if groupType == models.GroupAdminManaged {
		isAdmin, err := s.userRepo.HasRole(ctx, creator.ID, models.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			return nil, ErrAdminManagedOnly
		}
	}

	members := []models.ChatGroupMember{{UserID: creator.ID, IsAdmin: true}}
	for _, userID := range req.MemberIDs {
		if userID == creator.ID {
			continue
		}
		if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
			return nil, ErrUserNotFound
		}
		members = append(members, models.ChatGroupMember{UserID: userID})
	}

	group := &models.ChatGroup{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		GroupType:   groupType,
		CreatedByID: creator.ID,
		ManagedByID: &creator.ID,
	}
	if err := s.chatRepo.CreateGroupWithMembers(ctx, group, members); err != nil {
		return nil, err
	}
	return s.chatRepo.FindGroupByID(ctx, group.ID)
}

func (s *chatService) MyGroups(ctx context.Context, userID uint) ([]models.ChatGroup, error) {
	return s.chatRepo.FindGroupsByUser(ctx, userID)
}

func (s *chatService) GetGroup(ctx context.Context, groupID, userID uint) (*models.ChatGroup, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	group, err := s.chatRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

func (s *chatService) UpdateGroup(ctx context.Context, groupID uint, actor *models.User, req dto.UpdateGroupRequest) (*models.ChatGroup, error) {
	group, err := s.chatRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, ErrGroupNotFound
	}
	if group.GroupType != models.GroupUserCreated {
		return nil, ErrNotUserCreated
	}
	if err := s.requireGroupAdmin(ctx, groupID, actor.ID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if req.IsPrivate != nil {
		group.IsPrivate = *req.IsPrivate
	}
	// group_type is immutable after creation

	if err := s.chatRepo.SaveGroup(ctx, group); err != nil {
		return nil, err
	}
	return s.chatRepo.FindGroupByID(ctx, groupID)
}

func (s *chatService) DeleteGroup(ctx context.Context, groupID uint, actor *models.User) error {
	group, err := s.chatRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if group.GroupType != models.GroupUserCreated {
		return ErrNotUserCreated
	}
	if group.CreatedByID != actor.ID {
		return ErrNotGroupCreator
	}
	return s.chatRepo.DeleteGroup(ctx, groupID)
}

func (s *chatService) AddMember(ctx context.Context, groupID uint, actor *models.User, req dto.AddMemberRequest) error {
	group, err := s.chatRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if group.GroupType != models.GroupUserCreated {
		return ErrNotUserCreated
	}
	if err := s.requireGroupAdmin(ctx, groupID, actor.ID); err != nil {
		return err
	}

	if _, err := s.chatRepo.FindMember(ctx, groupID, req.UserID); err == nil {
		return ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := s.userRepo.FindByID(ctx, req.UserID); err != nil {
		return ErrUserNotFound
	}

	return s.chatRepo.AddMember(ctx, &models.ChatGroupMember{
		GroupID: groupID,
		UserID:  req.UserID,
		IsAdmin: req.IsAdmin,
	})
}

// RemoveMember lets members leave and group admins remove others. The group
// manager must always remain a member.
func (s *chatService) RemoveMember(ctx context.Context, groupID, targetUserID uint, actor *models.User) error {
	group, err := s.chatRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if group.GroupType != models.GroupUserCreated {
		return ErrNotUserCreated
	}

	membership, err := s.chatRepo.FindMember(ctx, groupID, actor.ID)
	if err != nil {
		return ErrNotGroupMember
	}
	if targetUserID != actor.ID && !membership.IsAdmin {
		return ErrNotGroupAdmin
	}
	if group.ManagedByID != nil && *group.ManagedByID == targetUserID {
		return ErrManagerProtected
	}

	if _, err := s.chatRepo.FindMember(ctx, groupID, targetUserID); err != nil {
		return ErrMemberNotFound
	}
	return s.chatRepo.RemoveMember(ctx, groupID, targetUserID)
}

// AssignMember adds a user to a managed group on behalf of its staff. Admins
// can assign into any managed group; instructors only into
// instructor-managed ones.
func (s *chatService) AssignMember(ctx context.Context, groupID uint, actor *models.User, req dto.AddMemberRequest) error {
	group, err := s.chatRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if err := s.requireGroupManager(ctx, group, actor.ID); err != nil {
		return err
	}

	if _, err := s.chatRepo.FindMember(ctx, groupID, req.UserID); err == nil {
		return ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := s.userRepo.FindByID(ctx, req.UserID); err != nil {
		return ErrUserNotFound
	}

	return s.chatRepo.AddMember(ctx, &models.ChatGroupMember{
		GroupID: groupID,
		UserID:  req.UserID,
		IsAdmin: req.IsAdmin,
	})
}

// UnassignMember removes a user from a managed group. The group manager must
// always remain a member.
func (s *chatService) UnassignMember(ctx context.Context, groupID, targetUserID uint, actor *models.User) error {
	group, err := s.chatRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if err := s.requireGroupManager(ctx, group, actor.ID); err != nil {
		return err
	}
	if group.ManagedByID != nil && *group.ManagedByID == targetUserID {
		return ErrManagerProtected
	}

	if _, err := s.chatRepo.FindMember(ctx, groupID, targetUserID); err != nil {
		return ErrMemberNotFound
	}
	return s.chatRepo.RemoveMember(ctx, groupID, targetUserID)
}

func (s *chatService) SearchPublicGroups(ctx context.Context, actor *models.User, query string) ([]models.ChatGroup, error) {
	ok, err := s.isAdminOrInstructor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrManagedGroupsOnly
	}
	return s.chatRepo.SearchPublicGroups(ctx, query)
}

func (s *chatService) JoinPublicGroup(ctx context.Context, groupID uint, actor *models.User) error {
	ok, err := s.isAdminOrInstructor(ctx, actor.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrManagedGroupsOnly
	}

	group, err := s.chatRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if group.IsPrivate {
		return ErrPrivateGroup
	}

	if _, err := s.chatRepo.FindMember(ctx, groupID, actor.ID); err == nil {
		return ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.chatRepo.AddMember(ctx, &models.ChatGroupMember{GroupID: groupID, UserID: actor.ID})
}

// SendMessage persists a message and returns it with the sender loaded, ready
// for broadcast.
func (s *chatService) SendMessage(ctx context.Context, groupID, senderID uint, content string, messageType models.MessageType) (*models.ChatMessage, error) {
	if err := s.requireMember(ctx, groupID, senderID); err != nil {
		return nil, err
	}
	if messageType == "" {
		messageType = models.MessageText
	}

	message := &models.ChatMessage{
		GroupID:     groupID,
		SenderID:    senderID,
		Content:     content,
		MessageType: messageType,
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("chat.message.created", message)
	}
	return s.chatRepo.FindMessageByID(ctx, message.ID)
}

func (s *chatService) ListMessages(ctx context.Context, groupID, userID uint, limit, offset int) ([]models.ChatMessage, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.chatRepo.ListMessages(ctx, groupID, limit, offset)
}

func (s *chatService) IsMember(ctx context.Context, groupID, userID uint) (bool, error) {
	_, err := s.chatRepo.FindMember(ctx, groupID, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

func (s *chatService) requireMember(ctx context.Context, groupID, userID uint) error {
	ok, err := s.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotGroupMember
	}
	return nil
}

func (s *chatService) requireGroupAdmin(ctx context.Context, groupID, userID uint) error {
	member, err := s.chatRepo.FindMember(ctx, groupID, userID)
	if err != nil {
		return ErrNotGroupAdmin
	}
	if !member.IsAdmin {
		return ErrNotGroupAdmin
	}
	return nil
}

func (s *chatService) requireGroupManager(ctx context.Context, group *models.ChatGroup, userID uint) error {
	if group.GroupType == models.GroupUserCreated {
		return ErrNotManagedGroup
	}
	isAdmin, err := s.userRepo.HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return err
	}
	if isAdmin {
		return nil
	}
	if group.GroupType == models.GroupInstructorManaged {
		isInstructor, err := s.userRepo.HasRole(ctx, userID, models.RoleInstructor)
		if err != nil {
			return err
		}
		if isInstructor {
			return nil
		}
	}
	return ErrManagedGroupsOnly
}

func (s *chatService) isAdminOrInstructor(ctx context.Context, userID uint) (bool, error) {
	if ok, err := s.userRepo.HasRole(ctx, userID, models.RoleAdmin); err != nil || ok {
		return ok, err
	}
	return s.userRepo.HasRole(ctx, userID, models.RoleInstructor)
}
