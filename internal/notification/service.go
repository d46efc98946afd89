package notification

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// DefaultMaxNotifications caps the in-memory store.
const DefaultMaxNotifications = 100

// subscriber holds one delivery channel and its cancellation context.
type subscriber struct {
	ch  chan *Notification
	ctx context.Context
}

// ServiceConfig holds the configuration for the notification service.
type ServiceConfig struct {
	// Debug enables debug logging for the service
	Debug bool
	// MaxNotifications is the maximum number of notifications to keep in memory
	MaxNotifications int
}

// DefaultServiceConfig returns a default configuration
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxNotifications: DefaultMaxNotifications,
	}
}

// Service stores notifications and broadcasts them to subscribers. Delivery
// is non-blocking; a subscriber that stops draining its channel misses
// messages rather than stalling publishers.
type Service struct {
	mu            sync.RWMutex
	notifications []*Notification
	subscribers   []*subscriber
	config        *ServiceConfig
	logger        *slog.Logger
}

// NewService creates a new notification service
func NewService(config *ServiceConfig, logger *slog.Logger) *Service {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if config.MaxNotifications <= 0 {
		config.MaxNotifications = DefaultMaxNotifications
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		config: config,
		logger: logger.With("service", "notification"),
	}
}

// Publish stores a new notification and broadcasts it.
func (s *Service) Publish(notifType Type, priority Priority, title, message string) *Notification {
	notif := NewNotification(notifType, priority, title, message)

	s.mu.Lock()
	s.notifications = append(s.notifications, notif)
	// Oldest notifications fall off when the cap is reached
	if len(s.notifications) > s.config.MaxNotifications {
		s.notifications = s.notifications[len(s.notifications)-s.config.MaxNotifications:]
	}
	subs := slices.Clone(s.subscribers)
	s.mu.Unlock()

	if s.config.Debug {
		s.logger.Debug("notification published", "type", notifType, "title", title, "message", message)
	}

	for _, sub := range subs {
		select {
		case <-sub.ctx.Done():
		case sub.ch <- notif:
		default:
			// Subscriber is not draining, drop rather than block
		}
	}
	return notif
}

// Subscribe registers a delivery channel bound to ctx. The channel is
// buffered; it stops receiving once ctx is done.
func (s *Service) Subscribe(ctx context.Context) <-chan *Notification {
	sub := &subscriber{
		ch:  make(chan *Notification, 16),
		ctx: ctx,
	}

	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()

	return sub.ch
}

// List returns a snapshot of stored notifications, oldest first.
func (s *Service) List() []*Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notifications)
}

// UnreadCount returns the number of unread notifications.
func (s *Service) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkAllRead marks every stored notification as seen.
func (s *Service) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		n.MarkAsRead()
	}
}
