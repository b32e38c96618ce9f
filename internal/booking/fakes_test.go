package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/guest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/notification"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/hotel-booking-backend/internal/rateplan"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
)

// memRepo stores copies so the service cannot mutate stored rows by accident.
type memRepo struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*Booking

	locks rowLocks
	// readDelay stalls every read to widen read-modify-write windows.
	readDelay time.Duration
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: map[string]*Booking{}}
}

func (r *memRepo) Create(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	b.ID = fmt.Sprintf("bk-%03d", r.seq)
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	b, ok := r.bookings[id]
	var cp Booking
	if ok {
		cp = *b
	}
	r.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	if r.readDelay > 0 {
		time.Sleep(r.readDelay)
	}
	return &cp, nil
}

func (r *memRepo) LockForUpdate(ctx context.Context, id string) (*Booking, error) {
	r.locks.acquire(ctx, id)
	return r.GetByID(ctx, id)
}

func (r *memRepo) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.sorted() {
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		if filter.Status != "" && string(b.Status) != filter.Status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *memRepo) Update(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	b.UpdatedAt = time.Now()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memRepo) SetIDProof(_ context.Context, id, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.IDProofFileID = &fileID
	return nil
}

func (r *memRepo) FindOverlap(_ context.Context, roomID string, stay daterange.Range, excludeID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.sorted() {
		if b.RoomID == roomID && b.ID != excludeID && b.Status.Occupies() && b.Stay().Overlaps(stay) {
			return b.ID, nil
		}
	}
	return "", nil
}

func (r *memRepo) ListActive(_ context.Context, roomID string, window daterange.Range) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.sorted() {
		if roomID != "" && b.RoomID != roomID {
			continue
		}
		if b.Status.Occupies() && b.Stay().Overlaps(window) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) sorted() []*Booking {
	out := make([]*Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type fakeRooms struct {
	mu    sync.Mutex
	rooms map[string]*room.Room
	order []string
}

func newFakeRooms(rooms ...*room.Room) *fakeRooms {
	f := &fakeRooms{rooms: map[string]*room.Room{}}
	for _, r := range rooms {
		f.rooms[r.ID] = r
		f.order = append(f.order, r.ID)
	}
	return f
}

func (f *fakeRooms) GetByID(_ context.Context, id string) (*room.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, room.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRooms) LockForUpdate(ctx context.Context, id string) (*room.Room, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRooms) UpdateStatus(_ context.Context, id string, status room.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return room.ErrNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeRooms) status(id string) room.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms[id].Status
}

type fakePlans map[string]*rateplan.RatePlan

func (f fakePlans) GetByID(_ context.Context, id string) (*rateplan.RatePlan, error) {
	p, ok := f[id]
	if !ok {
		return nil, rateplan.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeGuests struct {
	guests map[string]*guest.Guest
	prefs  map[string]*guest.Preference
}

func (f *fakeGuests) GetByID(_ context.Context, id string) (*guest.Guest, error) {
	g, ok := f.guests[id]
	if !ok {
		return nil, guest.ErrNotFound
	}
	return g, nil
}

func (f *fakeGuests) GetPreferences(_ context.Context, guestID string) (*guest.Preference, error) {
	p, ok := f.prefs[guestID]
	if !ok {
		return nil, guest.ErrPreferencesNotFound
	}
	return p, nil
}

// fakeCache keeps only unavailable nights, keyed by room and date, like the real table.
type fakeCache struct {
	mu    sync.Mutex
	repo  *memRepo
	rooms *fakeRooms
	taken map[string]string
	err   error
}

func newFakeCache(repo *memRepo, rooms *fakeRooms) *fakeCache {
	return &fakeCache{repo: repo, rooms: rooms, taken: map[string]string{}}
}

func cacheKey(roomID string, d time.Time) string {
	return roomID + "|" + d.Format(daterange.Layout)
}

func (c *fakeCache) UpdateAvailability(_ context.Context, roomID string, stay daterange.Range, isAvailable bool, bookingID *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	for _, d := range stay.Dates() {
		if isAvailable {
			delete(c.taken, cacheKey(roomID, d))
		} else {
			c.taken[cacheKey(roomID, d)] = *bookingID
		}
	}
	return nil
}

func (c *fakeCache) Recompute(ctx context.Context, roomID string, stay daterange.Range) error {
	if c.err != nil {
		return c.err
	}
	active, err := c.repo.ListActive(ctx, roomID, stay)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range stay.Dates() {
		delete(c.taken, cacheKey(roomID, d))
		for _, b := range active {
			if b.Stay().Contains(d) {
				c.taken[cacheKey(roomID, d)] = b.ID
				break
			}
		}
	}
	return nil
}

func (c *fakeCache) GetAvailableRooms(_ context.Context, stay daterange.Range, _ string, minCapacity int) ([]*room.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*room.Room
	for _, id := range c.rooms.order {
		r := c.rooms.rooms[id]
		if !r.Status.Bookable() || r.Capacity() < minCapacity {
			continue
		}
		free := true
		for _, d := range stay.Dates() {
			if _, ok := c.taken[cacheKey(id, d)]; ok {
				free = false
				break
			}
		}
		if free {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *fakeCache) owner(roomID string, d time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.taken[cacheKey(roomID, d)]
	return id, ok
}

func (c *fakeCache) snapshot() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.taken))
	for k, v := range c.taken {
		out[k] = v
	}
	return out
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type heldLocksKey struct{}

// rowLocks hands out one mutex per row. Locks taken inside lockingTx are
// held until that transaction returns, like SELECT ... FOR UPDATE.
type rowLocks struct {
	mu   sync.Mutex
	rows map[string]*sync.Mutex
}

func (l *rowLocks) acquire(ctx context.Context, id string) {
	held, ok := ctx.Value(heldLocksKey{}).(*[]*sync.Mutex)
	if !ok {
		return
	}

	l.mu.Lock()
	if l.rows == nil {
		l.rows = map[string]*sync.Mutex{}
	}
	m, ok := l.rows[id]
	if !ok {
		m = &sync.Mutex{}
		l.rows[id] = m
	}
	l.mu.Unlock()

	for _, h := range *held {
		if h == m {
			return
		}
	}
	m.Lock()
	*held = append(*held, m)
}

type lockingTx struct{}

func (lockingTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(heldLocksKey{}).(*[]*sync.Mutex); ok {
		return fn(ctx)
	}
	held := &[]*sync.Mutex{}
	defer func() {
		for _, m := range *held {
			m.Unlock()
		}
	}()
	return fn(context.WithValue(ctx, heldLocksKey{}, held))
}

type sentNotification struct {
	Template notification.TemplateType
	To       notification.Recipient
	Data     map[string]any
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingSender) Send(_ context.Context, t notification.TemplateType, to notification.Recipient, data map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{Template: t, To: to, Data: data})
}

func (r *recordingSender) templates() []notification.TemplateType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.TemplateType, len(r.sent))
	for i, s := range r.sent {
		out[i] = s.Template
	}
	return out
}
