package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/model"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/payment"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/store"
)

// fakePartnerStore is an in-memory store.PartnerStore.
type fakePartnerStore struct {
	mu           sync.Mutex
	partners     map[string]*model.Partner
	takenIDs     map[string]bool // partner IDs considered in use besides the records
	existsErr    error
	approveErr   error
	applyErr     error
	approveCalls int
	applyCalls   int
}

func newFakePartnerStore() *fakePartnerStore {
	return &fakePartnerStore{
		partners: make(map[string]*model.Partner),
		takenIDs: make(map[string]bool),
	}
}

func (f *fakePartnerStore) Get(_ context.Context, id string) (*model.Partner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.partners[id]
	if !ok {
		return nil, store.ErrPartnerNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePartnerStore) PartnerIDExists(_ context.Context, partnerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	if f.takenIDs[partnerID] {
		return true, nil
	}
	for _, p := range f.partners {
		if p.PartnerID != nil && *p.PartnerID == partnerID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePartnerStore) Approve(_ context.Context, id, partnerID string, approvedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approveCalls++
	if f.approveErr != nil {
		return f.approveErr
	}
	p, ok := f.partners[id]
	if !ok {
		return store.ErrPartnerNotFound
	}
	if p.PartnerID != nil {
		return store.ErrPartnerIDAssigned
	}
	p.PartnerID = &partnerID
	p.Status = model.StatusApproved
	p.ApprovedAt = &approvedAt
	return nil
}

func (f *fakePartnerStore) ApplyPayment(_ context.Context, id, plan, paymentID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyCalls++
	if f.applyErr != nil {
		return f.applyErr
	}
	p, ok := f.partners[id]
	if !ok {
		return store.ErrPartnerNotFound
	}
	paid := "pago"
	p.Plan = &plan
	p.Status = model.StatusApproved
	p.PaymentStatus = &paid
	p.LastPaymentID = &paymentID
	p.PlanUpdatedAt = &at
	return nil
}

func (f *fakePartnerStore) CountByStatus(context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, p := range f.partners {
		counts[p.Status]++
	}
	return counts, nil
}

// fakeUserStore is an in-memory store.UserStore.
type fakeUserStore struct {
	counts map[string]int
	err    error
}

func (f *fakeUserStore) CountByCategory(context.Context) (map[string]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.counts, nil
}

// fakePromotionStore serializes transactions with a mutex the way the row
// lock on the counter does, and discards staged writes when the callback
// fails, mirroring a rollback.
type fakePromotionStore struct {
	mu       sync.Mutex
	counters map[string]int
	users    map[string]*model.User
	txErr    error
}

func newFakePromotionStore() *fakePromotionStore {
	return &fakePromotionStore{
		counters: make(map[string]int),
		users:    make(map[string]*model.User),
	}
}

func (f *fakePromotionStore) RunTransaction(_ context.Context, fn func(tx store.PromotionTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.txErr != nil {
		return f.txErr
	}

	tx := &fakePromotionTx{
		counters: make(map[string]int, len(f.counters)),
		users:    make(map[string]*model.User, len(f.users)),
	}
	for name, count := range f.counters {
		tx.counters[name] = count
	}
	for id, u := range f.users {
		copied := *u
		tx.users[id] = &copied
	}

	if err := fn(tx); err != nil {
		return err
	}

	f.counters = tx.counters
	f.users = tx.users
	return nil
}

type fakePromotionTx struct {
	counters map[string]int
	users    map[string]*model.User
}

func (t *fakePromotionTx) CounterCount(_ context.Context, name string) (int, error) {
	if _, ok := t.counters[name]; !ok {
		t.counters[name] = 0
	}
	return t.counters[name], nil
}

func (t *fakePromotionTx) IncrementCounter(_ context.Context, name string) error {
	t.counters[name]++
	return nil
}

func (t *fakePromotionTx) User(_ context.Context, id string) (*model.User, error) {
	u, ok := t.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (t *fakePromotionTx) GrantPromotion(_ context.Context, id, plan string, endDate time.Time) error {
	u, ok := t.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.Plan = &plan
	u.PromotionEndDate = &endDate
	return nil
}

// fakeNotifier records notifications on buffered channels so tests can wait
// for the detached dispatch.
type fakeNotifier struct {
	approved chan string
	listings chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		approved: make(chan string, 16),
		listings: make(chan string, 16),
	}
}

func (f *fakeNotifier) PartnerApproved(_ context.Context, _, partnerID string) {
	f.approved <- partnerID
}

func (f *fakeNotifier) NewListing(_ context.Context, partnerName, _, _ string) {
	f.listings <- partnerName
}

// fakeGateway is an in-memory PaymentGateway.
type fakeGateway struct {
	mu       sync.Mutex
	lastPref payment.Preference
	prefID   string
	prefErr  error
	payments map[string]*payment.Payment
	payErr   error
	payCalls int
}

func (f *fakeGateway) CreatePreference(_ context.Context, pref payment.Preference) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPref = pref
	if f.prefErr != nil {
		return "", f.prefErr
	}
	return f.prefID, nil
}

func (f *fakeGateway) Payment(_ context.Context, id string) (*payment.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payCalls++
	if f.payErr != nil {
		return nil, f.payErr
	}
	p, ok := f.payments[id]
	if !ok {
		return nil, errors.New("payment not found")
	}
	return p, nil
}
