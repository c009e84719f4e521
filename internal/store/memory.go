package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ecoloop/internal/models"
)

// Memory is an in-process Store used for local development and tests. Every
// method is atomic on its own; WithinTx does not roll back.
type Memory struct {
	mu sync.RWMutex

	users         map[string]models.User
	posts         map[string]models.Post
	pickups       map[string]models.Pickup
	points        []models.Point
	materials     map[string]models.Material
	notifications []models.Notification
	conversations map[string]models.Conversation
	messages      []models.Message
	comments      []models.Comment
	supports      []models.Support
}

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]models.User),
		posts:         make(map[string]models.Post),
		pickups:       make(map[string]models.Pickup),
		materials:     make(map[string]models.Material),
		conversations: make(map[string]models.Conversation),
	}
}

func (m *Memory) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(m)
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// ---- users

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.UserID]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	m.users[u.UserID] = *u
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// ---- posts

func (m *Memory) CreatePost(ctx context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[p.PostID]; ok {
		return ErrDuplicate
	}
	m.posts[p.PostID] = clonePost(*p)
	return nil
}

func (m *Memory) GetPost(ctx context.Context, id string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = clonePost(p)
	return &p, nil
}

func (m *Memory) ListPosts(ctx context.Context, f PostFilter) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Post
	for _, p := range m.posts {
		if f.PostType != "" && p.PostType != f.PostType {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.UserID != "" && p.UserID != f.UserID {
			continue
		}
		out = append(out, clonePost(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].PostID < out[j].PostID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Offset, f.Limit), nil
}

func (m *Memory) UpdatePost(ctx context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.posts[p.PostID]
	if !ok {
		return ErrNotFound
	}
	next := clonePost(*p)
	next.UserID = stored.UserID
	next.PostType = stored.PostType
	next.CreatedAt = stored.CreatedAt
	m.posts[p.PostID] = next
	return nil
}

func (m *Memory) SetPostStatus(ctx context.Context, id string, status models.PostStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = at
	m.posts[id] = p
	return nil
}

func (m *Memory) DeletePost(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

// ---- pickups

func (m *Memory) CreatePickup(ctx context.Context, p *models.Pickup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pickups[p.PickupID]; ok {
		return ErrDuplicate
	}
	m.pickups[p.PickupID] = clonePickup(*p)
	return nil
}

func (m *Memory) GetPickup(ctx context.Context, id string) (*models.Pickup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pickups[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = clonePickup(p)
	return &p, nil
}

func (m *Memory) ListPickups(ctx context.Context, f PickupFilter) ([]models.Pickup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Pickup
	for _, p := range m.pickups {
		if f.PostID != "" && p.PostID != f.PostID {
			continue
		}
		if f.UserID != "" && p.GiverID != f.UserID && p.CollectorID != f.UserID {
			continue
		}
		if f.GiverID != "" && p.GiverID != f.GiverID {
			continue
		}
		if f.CollectorID != "" && p.CollectorID != f.CollectorID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, clonePickup(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].PickupID < out[j].PickupID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, 0, f.Limit), nil
}

func (m *Memory) SwapPickup(ctx context.Context, p *models.Pickup, from models.PickupStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.pickups[p.PickupID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != from {
		return ErrConflict
	}
	m.pickups[p.PickupID] = clonePickup(*p)
	return nil
}

// ---- points

func (m *Memory) AppendPoint(ctx context.Context, p *models.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, *p)
	return nil
}

func (m *Memory) SumPoints(ctx context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, p := range m.points {
		if p.UserID == userID {
			total += p.PointsEarned
		}
	}
	return total, nil
}

func (m *Memory) CountPoints(ctx context.Context, userID string, kind models.TransactionKind, since time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, p := range m.points {
		if p.UserID == userID && p.Transaction == kind && !p.ReceivedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListPoints(ctx context.Context, userID string, limit int) ([]models.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Point
	for i := len(m.points) - 1; i >= 0; i-- {
		if m.points[i].UserID == userID {
			out = append(out, m.points[i])
		}
	}
	return page(out, 0, limit), nil
}

// ---- materials

func (m *Memory) CreateMaterial(ctx context.Context, mat *models.Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.materials[mat.MaterialID]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.materials {
		if existing.Type == mat.Type {
			return ErrDuplicate
		}
	}
	m.materials[mat.MaterialID] = cloneMaterial(*mat)
	return nil
}

func (m *Memory) GetMaterial(ctx context.Context, id string) (*models.Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mat, ok := m.materials[id]
	if !ok {
		return nil, ErrNotFound
	}
	mat = cloneMaterial(mat)
	return &mat, nil
}

func (m *Memory) ListMaterials(ctx context.Context) ([]models.Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Material, 0, len(m.materials))
	for _, mat := range m.materials {
		out = append(out, cloneMaterial(mat))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (m *Memory) AppendMaterialPrice(ctx context.Context, id string, e models.PriceEntry, at time.Time) (*models.Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.materials[id]
	if !ok {
		return nil, ErrNotFound
	}
	mat = cloneMaterial(mat)
	mat.PricingHistory = append(mat.PricingHistory, e)
	mat.AveragePricePerKg = models.MeanPrice(mat.PricingHistory)
	mat.UpdatedAt = at
	m.materials[id] = mat
	out := cloneMaterial(mat)
	return &out, nil
}

// ---- notifications

func (m *Memory) CreateNotification(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *Memory) ListNotifications(ctx context.Context, f NotificationFilter) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if n.UserID != f.UserID || (f.UnreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	return page(out, 0, f.Limit), nil
}

func (m *Memory) MarkNotificationRead(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].NotificationID == id && m.notifications[i].UserID == userID {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.notifications {
		if m.notifications[i].UserID == userID && !m.notifications[i].IsRead {
			m.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountUnread(ctx context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, note := range m.notifications {
		if note.UserID == userID && !note.IsRead {
			n++
		}
	}
	return n, nil
}

// ---- conversations

func (m *Memory) CreateConversation(ctx context.Context, c *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[c.ConversationID]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.conversations {
		if existing.PostID == c.PostID && samePair(existing.Participants, c.Participants) {
			return ErrDuplicate
		}
	}
	m.conversations[c.ConversationID] = cloneConversation(*c)
	return nil
}

func (m *Memory) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	c = cloneConversation(c)
	return &c, nil
}

func (m *Memory) FindConversation(ctx context.Context, postID string, participants []string) (*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.conversations {
		if c.PostID == postID && samePair(c.Participants, participants) {
			c = cloneConversation(c)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Conversation
	for _, c := range m.conversations {
		if c.HasParticipant(userID) {
			out = append(out, cloneConversation(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (m *Memory) AppendMessage(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[msg.ConversationID]
	if !ok {
		return ErrNotFound
	}
	m.messages = append(m.messages, *msg)
	if msg.SentAt.After(c.LastMessageAt) {
		c.LastMessageAt = msg.SentAt
		m.conversations[c.ConversationID] = c
	}
	return nil
}

func (m *Memory) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *Memory) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.messages {
		msg := &m.messages[i]
		if msg.ConversationID == conversationID && msg.SenderID != readerID && !msg.IsRead {
			msg.IsRead = true
			n++
		}
	}
	return n, nil
}

// ---- comments and supports

func (m *Memory) CreateComment(ctx context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, *c)
	return nil
}

func (m *Memory) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) CreateSupport(ctx context.Context, s *models.Support) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.supports {
		if existing.PostID == s.PostID && existing.UserID == s.UserID {
			return ErrDuplicate
		}
	}
	m.supports = append(m.supports, *s)
	return nil
}

func (m *Memory) ListSupports(ctx context.Context, postID string) ([]models.Support, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Support
	for _, s := range m.supports {
		if s.PostID == postID {
			out = append(out, s)
		}
	}
	return out, nil
}

// ---- helpers

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func samePair(a, b []string) bool {
	if len(a) != 2 || len(b) != 2 {
		return false
	}
	return (a[0] == b[0] && a[1] == b[1]) || (a[0] == b[1] && a[1] == b[0])
}

func clonePost(p models.Post) models.Post {
	if p.Waste != nil {
		w := *p.Waste
		w.Items = append([]models.WasteItem(nil), w.Items...)
		p.Waste = &w
	}
	if p.Initiative != nil {
		in := *p.Initiative
		in.Items = append([]models.InitiativeItem(nil), in.Items...)
		p.Initiative = &in
	}
	if p.Forum != nil {
		f := *p.Forum
		p.Forum = &f
	}
	return p
}

func clonePickup(p models.Pickup) models.Pickup {
	if p.FinalWaste != nil {
		fw := *p.FinalWaste
		fw.MaterialIDs = append([]string(nil), fw.MaterialIDs...)
		p.FinalWaste = &fw
	}
	return p
}

func cloneMaterial(m models.Material) models.Material {
	m.PricingHistory = append([]models.PriceEntry(nil), m.PricingHistory...)
	return m
}

func cloneConversation(c models.Conversation) models.Conversation {
	c.Participants = append([]string(nil), c.Participants...)
	return c
}
