package tickets

import (
	"sync"
	"time"
)

// Ticket is the in-memory registry record for a channel created by this
// process. Nothing here is persisted; a restart falls back to the heuristic
// resolver for channels that survived it.
type Ticket struct {
	ChannelID string
	GuildID   string
	UserID    string
	Category  string
	CreatedAt time.Time
	Closed    bool
}

// Registry is the authoritative user→channel mapping maintained alongside
// channel creation. It also hands out the per-user mutex that closes the
// check-then-create race between near-simultaneous button presses.
type Registry struct {
	mu        sync.Mutex
	byUser    map[string]Ticket
	byChannel map[string]Ticket
	locks     map[string]*sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:    make(map[string]Ticket),
		byChannel: make(map[string]Ticket),
		locks:     make(map[string]*sync.Mutex),
	}
}

// UserLock returns the mutex guarding ticket creation for one user. The same
// user always gets the same mutex.
func (r *Registry) UserLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lk, ok := r.locks[userID]
	if !ok {
		lk = &sync.Mutex{}
		r.locks[userID] = lk
	}
	return lk
}

func (r *Registry) Bind(t Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[t.UserID] = t
	r.byChannel[t.ChannelID] = t
}

func (r *Registry) ByUser(userID string) (Ticket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byUser[userID]
	return t, ok
}

func (r *Registry) ByChannel(channelID string) (Ticket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byChannel[channelID]
	return t, ok
}

func (r *Registry) MarkClosed(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byChannel[channelID]
	if !ok {
		return
	}
	t.Closed = true
	r.byChannel[channelID] = t
	r.byUser[t.UserID] = t
}

// Release drops the record for a deleted channel, freeing the user to open a
// new ticket.
func (r *Registry) Release(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byChannel[channelID]
	if !ok {
		return
	}
	delete(r.byChannel, channelID)
	if cur, ok := r.byUser[t.UserID]; ok && cur.ChannelID == channelID {
		delete(r.byUser, t.UserID)
	}
}
