package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/dom/shared-lists/internal/repository"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory stand-in for the postgres repositories. It
// honours the same contracts (unique identities, one session per user,
// atomic rotation, cascading list deletes) so service and handler tests can
// run without a database.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]domain.User
	sessions map[uuid.UUID]domain.UserSession
	lists    map[uint]domain.ShoppingList
	items    map[uint]domain.Item
	nextList uint
	nextItem uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]domain.User),
		sessions: make(map[uuid.UUID]domain.UserSession),
		lists:    make(map[uint]domain.ShoppingList),
		items:    make(map[uint]domain.Item),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *MemoryStore) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:    &MemoryUserRepository{s},
		Session: &MemorySessionRepository{s},
		List:    &MemoryListRepository{s},
		Item:    &MemoryItemRepository{s},
	}
}

// SetActive flips a user's account flag.
func (s *MemoryStore) SetActive(id uuid.UUID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.IsActive = active
		s.users[id] = u
	}
}

// SessionCount returns the number of stored refresh sessions.
func (s *MemoryStore) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type MemoryUserRepository struct{ s *MemoryStore }

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrConflict
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *MemoryUserRepository) GetByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == identifier || u.Username == identifier })
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

type MemorySessionRepository struct{ s *MemoryStore }

// deleteUserSessions must be called with the store locked.
func (r *MemorySessionRepository) deleteUserSessions(userID uuid.UUID) {
	for id, sess := range r.s.sessions {
		if sess.UserID == userID {
			delete(r.s.sessions, id)
		}
	}
}

func (r *MemorySessionRepository) Upsert(_ context.Context, session *domain.UserSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.deleteUserSessions(session.UserID)
	r.s.sessions[session.ID] = *session
	return nil
}

func (r *MemorySessionRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.UserSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sess, nil
}

func (r *MemorySessionRepository) Rotate(_ context.Context, oldID uuid.UUID, next *domain.UserSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.sessions[oldID]
	if !ok || old.UserID != next.UserID {
		return repository.ErrStaleSession
	}
	delete(r.s.sessions, oldID)
	r.s.sessions[next.ID] = *next
	return nil
}

func (r *MemorySessionRepository) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.deleteUserSessions(userID)
	return nil
}

type MemoryListRepository struct{ s *MemoryStore }

// withItems must be called with the store locked.
func (r *MemoryListRepository) withItems(list domain.ShoppingList) *domain.ShoppingList {
	list.Items = []domain.Item{}
	for _, item := range r.s.items {
		if item.ShoppingListID == list.ID {
			list.Items = append(list.Items, item)
		}
	}
	sort.Slice(list.Items, func(i, j int) bool { return list.Items[i].ID < list.Items[j].ID })
	return &list
}

func (r *MemoryListRepository) Create(_ context.Context, list *domain.ShoppingList) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextList++
	list.ID = r.s.nextList
	stored := *list
	stored.Items = nil
	r.s.lists[list.ID] = stored
	return nil
}

func (r *MemoryListRepository) GetByID(_ context.Context, id uint) (*domain.ShoppingList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list, ok := r.s.lists[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withItems(list), nil
}

func (r *MemoryListRepository) GetAll(_ context.Context) ([]*domain.ShoppingList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lists := make([]*domain.ShoppingList, 0, len(r.s.lists))
	for _, list := range r.s.lists {
		lists = append(lists, r.withItems(list))
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].ID < lists[j].ID })
	return lists, nil
}

func (r *MemoryListRepository) Update(_ context.Context, list *domain.ShoppingList) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.lists[list.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = list.Name
	stored.Description = list.Description
	stored.UpdatedAt = time.Now()
	r.s.lists[list.ID] = stored
	return nil
}

func (r *MemoryListRepository) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lists[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.lists, id)
	for itemID, item := range r.s.items {
		if item.ShoppingListID == id {
			delete(r.s.items, itemID)
		}
	}
	return nil
}

func (r *MemoryListRepository) Exists(_ context.Context, id uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.lists[id]
	return ok, nil
}

type MemoryItemRepository struct{ s *MemoryStore }

func (r *MemoryItemRepository) Create(_ context.Context, item *domain.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lists[item.ShoppingListID]; !ok {
		return repository.ErrConflict
	}
	r.s.nextItem++
	item.ID = r.s.nextItem
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	r.s.items[item.ID] = *item
	return nil
}

func (r *MemoryItemRepository) GetByID(_ context.Context, id uint) (*domain.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (r *MemoryItemRepository) Update(_ context.Context, item *domain.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.items[item.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = item.Name
	stored.Quantity = item.Quantity
	stored.Unit = item.Unit
	stored.Completed = item.Completed
	stored.Notes = item.Notes
	stored.UpdatedAt = time.Now()
	r.s.items[item.ID] = stored
	return nil
}

func (r *MemoryItemRepository) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.items, id)
	return nil
}

func (r *MemoryItemRepository) SearchNames(_ context.Context, query string, limit int) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q := strings.ToLower(query)
	seen := make(map[string]bool)
	var names []string
	for _, item := range r.s.items {
		if seen[item.Name] || !strings.Contains(strings.ToLower(item.Name), q) {
			continue
		}
		seen[item.Name] = true
		names = append(names, item.Name)
	}
	sort.Strings(names)
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}
