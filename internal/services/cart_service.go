package services

import (
	"encoding/json"
	"log"
	"sync"

	"gorm.io/gorm"

	"github.com/example/lotus/internal/models"
	"github.com/example/lotus/pkg/rabbitmq"
)

// CartService owns the per-client persisted cart slot. All reads and
// writes go through it; other components observe mutations via
// Subscribe instead of touching the slot directly.
type CartService struct {
	db *gorm.DB
	mq *rabbitmq.Client

	mu          sync.Mutex
	subscribers []func(clientToken string)
}

// NewCartService constructs a CartService. mq may be nil, in which case
// events stay in-process.
func NewCartService(db *gorm.DB, mq *rabbitmq.Client) *CartService {
	return &CartService{db: db, mq: mq}
}

// Subscribe registers a listener invoked after every cart mutation.
func (s *CartService) Subscribe(fn func(clientToken string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// ReadAll returns the current cart for a client. A missing record or a
// corrupt payload reads as an empty cart, never as an error.
func (s *CartService) ReadAll(clientToken string) []models.CartItem {
	var record models.CartRecord
	if err := s.db.Where("client_token = ?", clientToken).First(&record).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("[Cart] failed to load cart for %s: %v", clientToken, err)
		}
		return []models.CartItem{}
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(record.Payload), &items); err != nil {
		log.Printf("[Cart] corrupt cart payload for %s, treating as empty: %v", clientToken, err)
		return []models.CartItem{}
	}

	return items
}

// AddOrIncrement appends the item, or bumps the quantity of the line
// with the same identity by one.
func (s *CartService) AddOrIncrement(clientToken string, item models.CartItem) ([]models.CartItem, error) {
	items := s.ReadAll(clientToken)

	found := false
	for i := range items {
		if items[i].LineID == item.LineID {
			items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		items = append(items, item)
	}

	if err := s.persist(clientToken, items); err != nil {
		return nil, err
	}
	s.notify(clientToken)
	return items, nil
}

// SetQuantity overwrites a line's quantity. Quantities below one are a
// no-op; callers remove lines explicitly.
func (s *CartService) SetQuantity(clientToken, lineID string, quantity int) ([]models.CartItem, error) {
	items := s.ReadAll(clientToken)
	if quantity < 1 {
		return items, nil
	}

	changed := false
	for i := range items {
		if items[i].LineID == lineID {
			items[i].Quantity = quantity
			changed = true
			break
		}
	}
	if !changed {
		return items, nil
	}

	if err := s.persist(clientToken, items); err != nil {
		return nil, err
	}
	s.notify(clientToken)
	return items, nil
}

// Remove deletes a line from the cart.
func (s *CartService) Remove(clientToken, lineID string) ([]models.CartItem, error) {
	items := s.ReadAll(clientToken)

	next := items[:0]
	for _, item := range items {
		if item.LineID != lineID {
			next = append(next, item)
		}
	}

	if err := s.persist(clientToken, next); err != nil {
		return nil, err
	}
	s.notify(clientToken)
	return next, nil
}

// Clear empties the cart. Invoked by the order pipeline after a
// successful placement.
func (s *CartService) Clear(clientToken string) error {
	if err := s.persist(clientToken, []models.CartItem{}); err != nil {
		return err
	}
	s.notify(clientToken)
	return nil
}

func (s *CartService) persist(clientToken string, items []models.CartItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}

	var record models.CartRecord
	err = s.db.Where("client_token = ?", clientToken).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		record = models.CartRecord{ClientToken: clientToken, Payload: string(payload)}
		return s.db.Create(&record).Error
	}
	if err != nil {
		return err
	}

	record.Payload = string(payload)
	return s.db.Save(&record).Error
}

func (s *CartService) notify(clientToken string) {
	s.mu.Lock()
	subscribers := make([]func(string), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(clientToken)
	}

	if s.mq != nil {
		body, err := json.Marshal(map[string]string{"client_token": clientToken})
		if err == nil {
			if err := s.mq.Publish(rabbitmq.EventCartChanged, body); err != nil {
				log.Printf("[Cart] failed to publish cart.changed: %v", err)
			}
		}
	}
}
