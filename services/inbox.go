package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"

	"research-review-api/models"
)

// Inbox stores notifications for users and is itself a Notifier.
type Inbox interface {
	Notifier
	List(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID int) (int64, error)
	MarkRead(ctx context.Context, userID int, notificationID uint) error
	MarkAllRead(ctx context.Context, userID int) (int64, error)
}

// GormInbox keeps notifications in the notifications table.
type GormInbox struct {
	db *gorm.DB
}

func NewGormInbox(db *gorm.DB) *GormInbox {
	return &GormInbox{db: db}
}

func (n *GormInbox) Notify(ctx context.Context, notice Notice) error {
	paperID := notice.PaperID
	row := models.Notification{
		UserID:   notice.RecipientID,
		PaperID:  &paperID,
		Kind:     notice.Kind,
		Title:    notice.Title,
		Message:  notice.Message,
		IsRead:   false,
		CreateAt: time.Now(),
	}
	if err := n.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (n *GormInbox) List(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	q := n.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var items []models.Notification
	if err := q.Order("create_at DESC, notification_id DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

func (n *GormInbox) CountUnread(ctx context.Context, userID int) (int64, error) {
	var count int64
	if err := n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}

func (n *GormInbox) MarkRead(ctx context.Context, userID int, notificationID uint) error {
	var row models.Notification
	if err := n.db.WithContext(ctx).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "notification", ID: strconv.FormatUint(uint64(notificationID), 10)}
		}
		return fmt.Errorf("load notification: %w", err)
	}
	now := time.Now()
	if err := n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("notification_id = ?", notificationID).
		Updates(map[string]interface{}{"is_read": true, "update_at": now}).Error; err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (n *GormInbox) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	res := n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "update_at": time.Now()})
	if res.Error != nil {
		return 0, fmt.Errorf("mark notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// MemoryInbox is the in-process Inbox used with MemoryStore.
type MemoryInbox struct {
	mu     sync.RWMutex
	nextID uint
	items  []models.Notification
}

func NewMemoryInbox() *MemoryInbox {
	return &MemoryInbox{}
}

func (m *MemoryInbox) Notify(_ context.Context, notice Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	paperID := notice.PaperID
	m.items = append(m.items, models.Notification{
		NotificationID: m.nextID,
		UserID:         notice.RecipientID,
		PaperID:        &paperID,
		Kind:           notice.Kind,
		Title:          notice.Title,
		Message:        notice.Message,
		CreateAt:       time.Now(),
	})
	return nil
}

// List returns newest first.
func (m *MemoryInbox) List(_ context.Context, userID int, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Notification, 0)
	for i := len(m.items) - 1; i >= 0; i-- {
		n := m.items[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	if offset >= len(out) {
		return []models.Notification{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryInbox) CountUnread(_ context.Context, userID int) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *MemoryInbox) MarkRead(_ context.Context, userID int, notificationID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].NotificationID == notificationID && m.items[i].UserID == userID {
			now := time.Now()
			m.items[i].IsRead = true
			m.items[i].UpdateAt = &now
			return nil
		}
	}
	return &NotFoundError{Entity: "notification", ID: strconv.FormatUint(uint64(notificationID), 10)}
}

func (m *MemoryInbox) MarkAllRead(_ context.Context, userID int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	now := time.Now()
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].IsRead {
			m.items[i].IsRead = true
			m.items[i].UpdateAt = &now
			changed++
		}
	}
	return changed, nil
}
