package repository

import (
	"context"
	"time"

	"habitat/internal/models"
	"habitat/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines the interface for chat data operations
type ChatRepository interface {
	GetOrCreate(ctx context.Context, userID1, userID2 uint) (*models.Chat, error)
	GetByID(ctx context.Context, id uint) (*models.Chat, error)
	GetUserChats(ctx context.Context, userID uint) ([]*models.Chat, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	GetMessages(ctx context.Context, chatID uint, limit, offset int) ([]*models.Message, error)
	MarkRead(ctx context.Context, chatID, userID uint) error
	UnreadCount(ctx context.Context, chatID, userID uint) (int, error)
	UnreadTotal(ctx context.Context, userID uint) (int, error)
}

// chatRepository implements ChatRepository
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// GetOrCreate returns the single chat for the unordered pair, creating it on
// first contact. Two concurrent first contacts both try to insert; the loser
// hits the pair index and refetches the winner's row, so both callers converge
// on the same chat.
func (r *chatRepository) GetOrCreate(ctx context.Context, userID1, userID2 uint) (*models.Chat, error) {
	lo, hi := models.CanonicalPair(userID1, userID2)

	chat, err := r.getByPair(ctx, lo, hi)
	if err != nil {
		return nil, err
	}
	if chat != nil {
		return chat, nil
	}

	chat = &models.Chat{UserLoID: lo, UserHiID: hi}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		for _, uid := range []uint{lo, hi} {
			p := models.ChatParticipant{ChatID: chat.ID, UserID: uid}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isDuplicate(err) {
			return r.getByPair(ctx, lo, hi)
		}
		return nil, models.NewInternalError(err)
	}
	return chat, nil
}

func (r *chatRepository) getByPair(ctx context.Context, lo, hi uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("user_lo_id = ? AND user_hi_id = ?", lo, hi).
		First(&chat).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &chat, nil
}

func (r *chatRepository) GetByID(ctx context.Context, id uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Preload("Participants").
		First(&chat, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Chat", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &chat, nil
}

func (r *chatRepository) GetUserChats(ctx context.Context, userID uint) ([]*models.Chat, error) {
	defer observability.TrackQuery("select", "chats")()

	var chats []*models.Chat
	err := r.db.WithContext(ctx).
		Joins("JOIN chat_participants cp ON chats.id = cp.chat_id").
		Where("cp.user_id = ?", userID).
		Preload("UserLo").
		Preload("UserHi").
		Preload("Participants").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(1)
		}).
		Preload("Messages.Sender").
		Order("chats.last_message_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	// UnreadCount is query-time state, not a chats column; fill it from the
	// caller's participant row.
	for _, chat := range chats {
		for _, p := range chat.Participants {
			if p.UserID == userID {
				chat.UnreadCount = p.UnreadCount
				break
			}
		}
	}
	return chats, nil
}

// AppendMessage persists the message, bumps the recipient's unread counter,
// and advances the chat's last_message_at in one transaction. The counter
// moves by a SQL-side increment so concurrent sends never lose updates.
func (r *chatRepository) AppendMessage(ctx context.Context, msg *models.Message) error {
	defer observability.TrackQuery("insert", "messages")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chat models.Chat
		if err := tx.First(&chat, msg.ChatID).Error; err != nil {
			if isNotFound(err) {
				return models.NewNotFoundError("Chat", msg.ChatID)
			}
			return models.NewInternalError(err)
		}

		if err := tx.Create(msg).Error; err != nil {
			return models.NewInternalError(err)
		}

		recipient := chat.OtherUser(msg.SenderID)
		err := tx.Model(&models.ChatParticipant{}).
			Where("chat_id = ? AND user_id = ?", msg.ChatID, recipient).
			Update("unread_count", gorm.Expr("unread_count + 1")).Error
		if err != nil {
			return models.NewInternalError(err)
		}

		err = tx.Model(&models.Chat{}).
			Where("id = ?", msg.ChatID).
			Update("last_message_at", msg.CreatedAt).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *chatRepository) GetMessages(ctx context.Context, chatID uint, limit, offset int) ([]*models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Preload("Sender").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	// Fetched DESC to page from the tail; clients expect chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkRead zeroes the reader's counter and flags the messages sent to them.
// Safe to call repeatedly and concurrently with incoming sends; an increment
// that lands after the reset simply counts the newer message.
func (r *chatRepository) MarkRead(ctx context.Context, chatID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.ChatParticipant{}).
			Where("chat_id = ? AND user_id = ?", chatID, userID).
			Updates(map[string]interface{}{
				"unread_count": 0,
				"last_read_at": time.Now(),
			}).Error
		if err != nil {
			return models.NewInternalError(err)
		}

		err = tx.Model(&models.Message{}).
			Where("chat_id = ? AND sender_id != ? AND read = ?", chatID, userID, false).
			Update("read", true).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *chatRepository) UnreadCount(ctx context.Context, chatID, userID uint) (int, error) {
	var participant models.ChatParticipant
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&participant).Error
	if err != nil {
		if isNotFound(err) {
			return 0, models.NewNotFoundError("Chat", chatID)
		}
		return 0, models.NewInternalError(err)
	}
	return participant.UnreadCount, nil
}

func (r *chatRepository) UnreadTotal(ctx context.Context, userID uint) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.ChatParticipant{}).
		Select("COALESCE(SUM(unread_count), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return int(total), nil
}
