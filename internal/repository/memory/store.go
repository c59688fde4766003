// Package memory implements the repository interfaces on process memory. It
// backs the service when no database is configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumen-shop/storefront-service/internal/domain"
	"github.com/lumen-shop/storefront-service/internal/repository"
)

// Store holds every table. Repositories returned by it share one lock.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	seq      int64
	users    map[int64]*domain.User
	products map[int64]*domain.Product
	cart     map[int64]*domain.CartItem
	contacts []*domain.ContactMessage
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[int64]*domain.User),
		products: make(map[int64]*domain.Product),
		cart:     make(map[int64]*domain.CartItem),
	}
}

// SetClock overrides the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// Users returns the user repository view.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Products returns the product repository view.
func (s *Store) Products() repository.ProductRepository { return productRepo{s} }

// Carts returns the cart repository view.
func (s *Store) Carts() repository.CartRepository { return cartRepo{s} }

// Contacts returns the contact repository view.
func (s *Store) Contacts() repository.ContactRepository { return contactRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	user.ID = r.s.nextID()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r userRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = r.s.now()
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

// DeleteUser removes a user and its cart lines, as the database cascade does.
func (s *Store) DeleteUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	for itemID, item := range s.cart {
		if item.UserID == id {
			delete(s.cart, itemID)
		}
	}
}

type productRepo struct{ s *Store }

func (r productRepo) List(_ context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if !filter.IncludeGone && !p.Active {
			continue
		}
		if filter.Category != "" && (p.Category == nil || *p.Category != filter.Category) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r productRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r productRepo) Create(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	product.ID = r.s.nextID()
	product.CreatedAt, product.UpdatedAt = now, now
	stored := *product
	r.s.products[product.ID] = &stored
	return nil
}

func (r productRepo) Update(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[product.ID]; !ok {
		return repository.ErrNotFound
	}
	product.UpdatedAt = r.s.now()
	stored := *product
	r.s.products[product.ID] = &stored
	return nil
}

func (r productRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.products, id)
	for itemID, item := range r.s.cart {
		if item.ProductID == id {
			delete(r.s.cart, itemID)
		}
	}
	return nil
}

type cartRepo struct{ s *Store }

func (r cartRepo) ListByUser(_ context.Context, userID int64) ([]domain.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lines := make([]domain.CartLine, 0)
	for _, item := range r.s.cart {
		if item.UserID != userID {
			continue
		}
		p := r.s.products[item.ProductID]
		lines = append(lines, domain.CartLine{
			CartItem:    *item,
			ProductName: p.Name,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
			Category:    p.Category,
			Subtotal:    p.Price * float64(item.Quantity),
		})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].ID > lines[j].ID
		}
		return lines[i].CreatedAt.After(lines[j].CreatedAt)
	})
	return lines, nil
}

func (r cartRepo) AddItem(_ context.Context, userID, productID int64, quantity int) (*domain.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return nil, repository.ErrNotFound
	}
	p, ok := r.s.products[productID]
	if !ok || !p.Active {
		return nil, repository.ErrNotFound
	}

	var existing *domain.CartItem
	for _, item := range r.s.cart {
		if item.UserID == userID && item.ProductID == productID {
			existing = item
			break
		}
	}
	held := 0
	if existing != nil {
		held = existing.Quantity
	}
	if quantity > p.StockQuantity-held {
		return nil, repository.ErrInsufficientStock
	}
	total := held + quantity

	now := r.s.now()
	if existing == nil {
		existing = &domain.CartItem{ID: r.s.nextID(), UserID: userID, ProductID: productID, CreatedAt: now}
		r.s.cart[existing.ID] = existing
	}
	existing.Quantity = total
	existing.UpdatedAt = now
	out := *existing
	return &out, nil
}

func (r cartRepo) SetQuantity(_ context.Context, userID, itemID int64, quantity int) (*domain.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.cart[itemID]
	if !ok || item.UserID != userID {
		return nil, repository.ErrNotFound
	}
	p, ok := r.s.products[item.ProductID]
	if !ok || !p.Active {
		return nil, repository.ErrNotFound
	}
	if quantity > p.StockQuantity {
		return nil, repository.ErrInsufficientStock
	}
	item.Quantity = quantity
	item.UpdatedAt = r.s.now()
	out := *item
	return &out, nil
}

func (r cartRepo) RemoveItem(_ context.Context, userID, itemID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.cart[itemID]
	if !ok || item.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.cart, itemID)
	return nil
}

func (r cartRepo) Clear(_ context.Context, userID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, item := range r.s.cart {
		if item.UserID == userID {
			delete(r.s.cart, id)
			n++
		}
	}
	return n, nil
}

func (r cartRepo) DeleteStale(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, item := range r.s.cart {
		if item.UpdatedAt.Before(before) {
			delete(r.s.cart, id)
			n++
		}
	}
	return n, nil
}

type contactRepo struct{ s *Store }

func (r contactRepo) Create(_ context.Context, msg *domain.ContactMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if msg.UserID != nil {
		if _, ok := r.s.users[*msg.UserID]; !ok {
			return repository.ErrNotFound
		}
	}
	msg.ID = r.s.nextID()
	msg.CreatedAt = r.s.now()
	stored := *msg
	r.s.contacts = append(r.s.contacts, &stored)
	return nil
}

func (r contactRepo) List(_ context.Context, limit, offset int) ([]domain.ContactMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.ContactMessage, 0)
	for i := len(r.s.contacts) - 1; i >= 0; i-- {
		out = append(out, *r.s.contacts[i])
	}
	if offset >= len(out) {
		return []domain.ContactMessage{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
