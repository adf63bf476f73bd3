package bot

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"recycle-bot/internal/materials"
	"recycle-bot/internal/model"
	"recycle-bot/internal/points"
	"recycle-bot/internal/report"
	"recycle-bot/internal/storage"
	redisstore "recycle-bot/internal/storage/redis"
	redisclient "recycle-bot/pkg/redis"
)

const (
	adminID  int64 = 100
	driverID int64 = 200
	ownerID  int64 = 555
)

type fakeSender struct {
	mu        sync.Mutex
	messages  []tgbotapi.MessageConfig
	documents []tgbotapi.DocumentConfig
	answered  int
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		s.messages = append(s.messages, m)
	case tgbotapi.DocumentConfig:
		s.documents = append(s.documents, m)
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answered++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *fakeSender) texts(chatID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.messages {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

func (s *fakeSender) last(chatID int64) string {
	texts := s.texts(chatID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (s *fakeSender) received(chatID int64, substr string) bool {
	for _, t := range s.texts(chatID) {
		if strings.Contains(t, substr) {
			return true
		}
	}
	return false
}

// fakeStore mirrors the semantics of storage.PostgresStorage in memory.
type fakeStore struct {
	mu         sync.Mutex
	nextUserID int64
	nextShipID int64
	users      map[int64]*model.User
	points     map[int64]*model.Point
	regions    map[int64]model.Region
	zones      map[int64]model.Zone
	requests   []model.Request
	shipments  []model.Shipment

	panicOnPointExists bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[int64]*model.User),
		points:  make(map[int64]*model.Point),
		regions: make(map[int64]model.Region),
		zones:   make(map[int64]model.Zone),
	}
}

func (f *fakeStore) addPoint(id int64, bags int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, _ := points.ParseCode(points.Code{ID: id}.String())
	f.regions[code.Region] = model.Region{ID: code.Region}
	f.zones[code.ZoneID] = model.Zone{ID: code.ZoneID, RegionID: code.Region}
	f.points[id] = &model.Point{ID: id, Name: "Точка", Address: "ул. Ленина, 1", BagsCount: bags, ZoneID: code.ZoneID}
}

func (f *fakeStore) ensure(telegramID int64) *model.User {
	if u, ok := f.users[telegramID]; ok {
		return u
	}
	f.nextUserID++
	u := &model.User{ID: f.nextUserID, TelegramID: telegramID, Role: model.RoleUser}
	f.users[telegramID] = u
	return u
}

func (f *fakeStore) bind(telegramID, pointID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := pointID
	f.ensure(telegramID).PointID = &id
}

func (f *fakeStore) point(id int64) *model.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.points[id]; ok {
		cp := *p
		return &cp
	}
	return nil
}

func (f *fakeStore) removeUser(telegramID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, telegramID)
}

func (f *fakeStore) EnsureUser(_ context.Context, telegramID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := *f.ensure(telegramID)
	return &u, nil
}

func (f *fakeStore) GetUserByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[telegramID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) BindPointToUser(_ context.Context, telegramID, pointID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[telegramID]
	if !ok {
		return storage.ErrUserNotFound
	}
	if _, ok := f.points[pointID]; !ok {
		return storage.ErrPointNotFound
	}
	for _, other := range f.users {
		if other.TelegramID != telegramID && other.PointID != nil && *other.PointID == pointID {
			return storage.ErrPointTaken
		}
	}
	id := pointID
	u.PointID = &id
	return nil
}

func (f *fakeStore) GetPointUser(_ context.Context, pointID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.PointID != nil && *u.PointID == pointID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeStore) GetPoint(_ context.Context, id int64) (*model.Point, error) {
	if p := f.point(id); p != nil {
		return p, nil
	}
	return nil, storage.ErrPointNotFound
}

func (f *fakeStore) PointExists(_ context.Context, id int64) (bool, error) {
	if f.panicOnPointExists {
		panic("boom")
	}
	return f.point(id) != nil, nil
}

func (f *fakeStore) ListPoints(context.Context) ([]model.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Point, 0, len(f.points))
	for _, p := range f.points {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZoneID != out[j].ZoneID {
			return out[i].ZoneID < out[j].ZoneID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) CreatePoint(_ context.Context, code points.Code, d points.Draft) (*storage.PointCreation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.points[code.ID]; ok {
		return nil, storage.ErrPointExists
	}
	var out storage.PointCreation
	if _, ok := f.regions[code.Region]; !ok {
		f.regions[code.Region] = model.Region{ID: code.Region}
		out.RegionCreated = true
	}
	if _, ok := f.zones[code.ZoneID]; !ok {
		f.zones[code.ZoneID] = model.Zone{ID: code.ZoneID, RegionID: code.Region}
		out.ZoneCreated = true
	}
	p := &model.Point{
		ID:        code.ID,
		Name:      d.Name,
		OwnerName: d.OwnerName,
		Phone:     d.Phone,
		Address:   d.Address,
		ZoneID:    code.ZoneID,
	}
	f.points[code.ID] = p
	out.Point = *p
	return &out, nil
}

func (f *fakeStore) DeletePoint(_ context.Context, id int64) (*storage.PointDeletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.points[id]; !ok {
		return nil, storage.ErrPointNotFound
	}
	var out storage.PointDeletion
	for tgID, u := range f.users {
		if u.PointID == nil || *u.PointID != id {
			continue
		}
		system := f.ensure(model.SentinelTelegramID)
		system.Role = model.RoleSystem
		for i := range f.shipments {
			if f.shipments[i].UserID == u.ID {
				f.shipments[i].UserID = system.ID
				out.ShipmentsReassigned++
			}
		}
		delete(f.users, tgID)
		out.UserRemoved = true
	}
	kept := f.requests[:0]
	for _, r := range f.requests {
		if r.PointID == id {
			out.RequestsDeleted++
			continue
		}
		kept = append(kept, r)
	}
	f.requests = kept
	delete(f.points, id)
	return &out, nil
}

func (f *fakeStore) AddRequest(_ context.Context, r model.Request) (*model.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.points[r.PointID]; !ok {
		return nil, storage.ErrPointNotFound
	}
	r.ID = int64(len(f.requests) + 1)
	f.requests = append(f.requests, r)
	return &r, nil
}

func (f *fakeStore) AddBagFullRequest(ctx context.Context, r model.Request) (*model.Request, error) {
	r.Activity = model.ActivityBagFull
	saved, err := f.AddRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.points[r.PointID].BagsCount = r.TotalBags()
	f.mu.Unlock()
	return saved, nil
}

func (f *fakeStore) ListRequests(context.Context) ([]model.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Request(nil), f.requests...), nil
}

func (f *fakeStore) CommitShipment(_ context.Context, s model.Shipment) (*model.Shipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.points[s.PointID]
	if !ok {
		return nil, storage.ErrPointNotFound
	}
	p.BagsCount = 0
	f.nextShipID++
	s.ID = f.nextShipID
	f.shipments = append(f.shipments, s)
	return &s, nil
}

func (f *fakeStore) ListShipments(context.Context) ([]model.Shipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Shipment(nil), f.shipments...), nil
}

func (f *fakeStore) ListRegions(context.Context) ([]model.Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Region, 0, len(f.regions))
	for _, r := range f.regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ZoneStats(context.Context) ([]report.ZoneStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byZone := make(map[int64]*report.ZoneStat, len(f.zones))
	for _, z := range f.zones {
		byZone[z.ID] = &report.ZoneStat{ZoneID: z.ID, RegionID: z.RegionID}
	}
	for _, p := range f.points {
		z := byZone[p.ZoneID]
		z.Points++
		z.Bags += p.BagsCount
	}
	out := make([]report.ZoneStat, 0, len(byZone))
	for _, z := range byZone {
		out = append(out, *z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZoneID < out[j].ZoneID })
	return out, nil
}

type harness struct {
	t      *testing.T
	bot    *Bot
	store  *fakeStore
	sender *fakeSender
	states *redisstore.Storage
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisclient.New(redisclient.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zaptest.NewLogger(t)
	h := &harness{
		t:      t,
		store:  newFakeStore(),
		sender: &fakeSender{},
		states: redisstore.New(client, 0, logger),
	}
	h.bot = New(h.sender, h.store, h.states, materials.Default(),
		NewAllowList([]int64{adminID}, []int64{driverID}), logger,
		Options{
			AdminIDs:   []int64{adminID},
			AdminPhone: "+79990000000",
			Now:        func() time.Time { return testNow },
		})
	return h
}

func messageUpdate(userID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: userID},
		From: &tgbotapi.User{ID: userID, UserName: "user"},
	}
	if strings.HasPrefix(text, "/") {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID, UserName: "user"},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}}
}

func (h *harness) text(userID int64, text string) {
	h.bot.HandleUpdate(context.Background(), messageUpdate(userID, text))
}

func (h *harness) press(userID int64, data string) {
	h.bot.HandleUpdate(context.Background(), callbackUpdate(userID, data))
}

func (h *harness) state(chatID int64) *redisstore.UserState {
	h.t.Helper()
	s, err := h.states.GetUserDialogState(context.Background(), chatID)
	require.NoError(h.t, err)
	return s
}
