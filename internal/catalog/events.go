package catalog

import (
	"time"

	"go.uber.org/zap"

	"github.com/talkincode/toughcatalog/internal/domain"
)

// TopicProductChanged is published after every successful product mutation
const TopicProductChanged = "catalog:product:changed"

const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionRestored   = "restored"
	ActionToggled    = "toggled"
	ActionDuplicated = "duplicated"
)

// ProductEvent payload of TopicProductChanged. SourceID is set for
// duplicates and names the copied product.
type ProductEvent struct {
	Action   string
	Product  domain.Product
	SourceID int64
	At       time.Time
}

func (s *Service) publish(action string, p *domain.Product, sourceID int64) {
	if s.bus == nil || p == nil {
		return
	}
	defer func() {
		if err := recover(); err != nil {
			zap.L().Error("product event subscriber panic",
				zap.String("namespace", "catalog"),
				zap.String("action", action),
				zap.Any("error", err))
		}
	}()
	s.bus.Publish(TopicProductChanged, &ProductEvent{
		Action:   action,
		Product:  *p,
		SourceID: sourceID,
		At:       time.Now(),
	})
}
