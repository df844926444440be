package billing

import (
	"encoding/json"

	"github.com/billfox-app/billfox/app/models"
)

// fakeRepo is an in-memory Repository used by the engine tests. It counts
// every storage call so tests can assert that verification failures touch
// nothing.
type fakeRepo struct {
	users         []*models.User
	subscriptions map[string]*models.Subscription
	payments      map[string]*models.Payment
	events        map[string]*models.WebhookEvent
	calls         int
	nextID        uint
	failWith      error
	panicIn       string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		subscriptions: make(map[string]*models.Subscription),
		payments:      make(map[string]*models.Payment),
		events:        make(map[string]*models.WebhookEvent),
	}
}

func (f *fakeRepo) enter(method string) error {
	f.calls++
	if f.panicIn == method {
		panic("storage backend gone")
	}
	return f.failWith
}

func (f *fakeRepo) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) Transaction(fn func(Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) FindSubscriptionByExternalID(externalID string) (*models.Subscription, error) {
	if err := f.enter("FindSubscriptionByExternalID"); err != nil {
		return nil, err
	}
	return f.subscriptions[externalID], nil
}

func (f *fakeRepo) UpsertSubscription(sub *models.Subscription) error {
	if err := f.enter("UpsertSubscription"); err != nil {
		return err
	}
	if existing, ok := f.subscriptions[sub.ExternalID]; ok {
		// Mirror the conflict assignments of the GORM implementation:
		// everything from the snapshot except the owner link.
		sub.ID = existing.ID
		sub.UserID = existing.UserID
		sub.CreatedAt = existing.CreatedAt
	} else {
		sub.ID = f.id()
	}
	f.subscriptions[sub.ExternalID] = sub
	return nil
}

func (f *fakeRepo) SaveSubscription(sub *models.Subscription) error {
	if err := f.enter("SaveSubscription"); err != nil {
		return err
	}
	f.subscriptions[sub.ExternalID] = sub
	return nil
}

func (f *fakeRepo) FindPaymentByExternalID(externalID string) (*models.Payment, error) {
	if err := f.enter("FindPaymentByExternalID"); err != nil {
		return nil, err
	}
	return f.payments[externalID], nil
}

func (f *fakeRepo) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	if err := f.enter("CreatePaymentIfNotExists"); err != nil {
		return false, err
	}
	if existing, ok := f.payments[payment.ExternalID]; ok {
		*payment = *existing
		return false, nil
	}
	payment.ID = f.id()
	f.payments[payment.ExternalID] = payment
	return true, nil
}

func (f *fakeRepo) UpdatePaymentStatus(payment *models.Payment, status string) error {
	if err := f.enter("UpdatePaymentStatus"); err != nil {
		return err
	}
	if existing, ok := f.payments[payment.ExternalID]; ok {
		existing.Status = status
	}
	payment.Status = status
	return nil
}

func (f *fakeRepo) FindUserByID(id uint) (*models.User, error) {
	if err := f.enter("FindUserByID"); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) FindUserByEmail(email string) (*models.User, error) {
	if err := f.enter("FindUserByEmail"); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) FindUserByExternalCustomerID(customerID string) (*models.User, error) {
	if err := f.enter("FindUserByExternalCustomerID"); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.ExternalCustomerID != nil && *u.ExternalCustomerID == customerID {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) SetUserExternalCustomerID(user *models.User, customerID string) error {
	if err := f.enter("SetUserExternalCustomerID"); err != nil {
		return err
	}
	if user.HasExternalCustomerID() {
		return nil
	}
	user.ExternalCustomerID = &customerID
	return nil
}

func (f *fakeRepo) CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if err := f.enter("CreateEventIfNotExists"); err != nil {
		return false, nil, err
	}
	if existing, ok := f.events[event.ProviderEventID]; ok {
		return false, existing, nil
	}
	event.ID = f.id()
	f.events[event.ProviderEventID] = event
	return true, event, nil
}

func (f *fakeRepo) MarkEventProcessed(id uint, outcome, processingError string) error {
	if err := f.enter("MarkEventProcessed"); err != nil {
		return err
	}
	for _, ev := range f.events {
		if ev.ID == id {
			now := ev.CreatedAt
			ev.ProcessedAt = &now
			ev.Outcome = outcome
			ev.ProcessingError = processingError
		}
	}
	return nil
}

// fakeVerifier returns a fixed envelope or error regardless of input.
type fakeVerifier struct {
	env *Envelope
	err error
}

func (f *fakeVerifier) Verify(_ []byte, _ string) (*Envelope, error) {
	return f.env, f.err
}

func envelope(id, eventType, payload string) *Envelope {
	return &Envelope{
		ID:      id,
		Type:    eventType,
		Kind:    ParseEventKind(eventType),
		Payload: json.RawMessage(payload),
	}
}

func uintPtr(v uint) *uint {
	return &v
}

func strPtr(v string) *string {
	return &v
}
