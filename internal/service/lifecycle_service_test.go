package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/stroyhub-backend/internal/events"
	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/pkg/apperror"
)

type mockLifecycleRequestRepo struct {
	mock.Mock
}

func (m *mockLifecycleRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *mockLifecycleRequestRepo) Claim(ctx context.Context, requestID, providerID uuid.UUID, eventKey string) (*models.ServiceRequest, error) {
	args := m.Called(ctx, requestID, providerID, eventKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *mockLifecycleRequestRepo) UpdateStatus(ctx context.Context, requestID uuid.UUID, from []string, to string, actorID uuid.UUID, note *string, eventKey string) (*models.ServiceRequest, error) {
	args := m.Called(ctx, requestID, from, to, actorID, note, eventKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *mockLifecycleRequestRepo) SetQuote(ctx context.Context, requestID, providerID uuid.UUID, amount float64) (*models.ServiceRequest, error) {
	args := m.Called(ctx, requestID, providerID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *mockLifecycleRequestRepo) RecordProgress(ctx context.Context, requestID, actorID uuid.UUID, note string, eventKey string) (*models.ServiceRequest, error) {
	args := m.Called(ctx, requestID, actorID, note, eventKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

type mockUpdateReader struct {
	mock.Mock
}

func (m *mockUpdateReader) List(ctx context.Context, requestID uuid.UUID) ([]models.ProjectUpdate, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]models.ProjectUpdate), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, in NotifyInput) (bool, error) {
	args := m.Called(ctx, in)
	return args.Bool(0), args.Error(1)
}

type capturingPublisher struct {
	mu      sync.Mutex
	changes []events.Change
}

func (p *capturingPublisher) Publish(change events.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
}

func (p *capturingPublisher) published() []events.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Change(nil), p.changes...)
}

func TestLifecycleService_Accept_Success(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	notifier := new(mockNotifier)
	bus := new(capturingPublisher)
	svc := NewLifecycleService(repo, nil, notifier, bus)
	ctx := context.Background()

	requestID := uuid.New()
	clientID := uuid.New()
	providerID := uuid.New()

	accepted := &models.ServiceRequest{
		ID:         requestID,
		ClientID:   clientID,
		ProviderID: &providerID,
		Status:     models.RequestStatusAccepted,
	}

	repo.On("Claim", ctx, requestID, providerID, mock.AnythingOfType("string")).Return(accepted, nil)
	notifier.On("Notify", ctx, mock.AnythingOfType("service.NotifyInput")).Return(true, nil)

	req, err := svc.Accept(ctx, requestID, providerID)

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, req.Status)
	assert.Equal(t, providerID, *req.ProviderID)

	changes := bus.published()
	assert.Len(t, changes, 1)
	assert.Equal(t, events.KindRequest, changes[0].Kind)
	assert.Contains(t, changes[0].Recipients, clientID)
	assert.Contains(t, changes[0].Recipients, providerID)
}

func TestLifecycleService_Accept_Conflict(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	notifier := new(mockNotifier)
	svc := NewLifecycleService(repo, nil, notifier, nil)
	ctx := context.Background()

	requestID := uuid.New()
	providerID := uuid.New()

	repo.On("Claim", ctx, requestID, providerID, mock.AnythingOfType("string")).
		Return(nil, apperror.ErrAlreadyAssigned)

	_, err := svc.Accept(ctx, requestID, providerID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

// claimRace эмулирует CAS-назначение репозитория: первый вызов Claim
// выигрывает, остальные получают конфликт.
type claimRace struct {
	mu      sync.Mutex
	request models.ServiceRequest
}

func (r *claimRace) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req := r.request
	return &req, nil
}

func (r *claimRace) Claim(ctx context.Context, requestID, providerID uuid.UUID, eventKey string) (*models.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.request.Status != models.RequestStatusPending {
		return nil, apperror.ErrAlreadyAssigned
	}
	r.request.Status = models.RequestStatusAccepted
	r.request.ProviderID = &providerID
	req := r.request
	return &req, nil
}

func (r *claimRace) UpdateStatus(ctx context.Context, requestID uuid.UUID, from []string, to string, actorID uuid.UUID, note *string, eventKey string) (*models.ServiceRequest, error) {
	return nil, apperror.New(apperror.ErrCodeConflict, "статус изменён конкурирующим запросом")
}

func (r *claimRace) SetQuote(ctx context.Context, requestID, providerID uuid.UUID, amount float64) (*models.ServiceRequest, error) {
	return nil, apperror.ErrRequestNotFound
}

func (r *claimRace) RecordProgress(ctx context.Context, requestID, actorID uuid.UUID, note string, eventKey string) (*models.ServiceRequest, error) {
	return nil, apperror.ErrRequestNotFound
}

func TestLifecycleService_Accept_ConcurrentSingleWinner(t *testing.T) {
	requestID := uuid.New()
	clientID := uuid.New()

	repo := &claimRace{request: models.ServiceRequest{
		ID:       requestID,
		ClientID: clientID,
		Status:   models.RequestStatusPending,
	}}
	svc := NewLifecycleService(repo, nil, nil, nil)
	ctx := context.Background()

	const providers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners []uuid.UUID
	var conflicts int

	for i := 0; i < providers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			providerID := uuid.New()
			req, err := svc.Accept(ctx, requestID, providerID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.True(t, apperror.IsConflict(err))
				conflicts++
				return
			}
			winners = append(winners, *req.ProviderID)
		}()
	}
	wg.Wait()

	assert.Len(t, winners, 1)
	assert.Equal(t, providers-1, conflicts)
	assert.Equal(t, winners[0], *repo.request.ProviderID)
}

func TestLifecycleService_Reject_FromPending(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	notifier := new(mockNotifier)
	svc := NewLifecycleService(repo, nil, notifier, nil)
	ctx := context.Background()

	requestID := uuid.New()
	clientID := uuid.New()
	providerID := uuid.New()

	pending := &models.ServiceRequest{ID: requestID, ClientID: clientID, Status: models.RequestStatusPending}
	rejected := &models.ServiceRequest{ID: requestID, ClientID: clientID, Status: models.RequestStatusRejected}

	repo.On("GetByID", ctx, requestID).Return(pending, nil)
	repo.On("UpdateStatus", ctx, requestID,
		[]string{models.RequestStatusPending}, models.RequestStatusRejected,
		providerID, (*string)(nil), mock.AnythingOfType("string")).Return(rejected, nil)
	notifier.On("Notify", ctx, mock.AnythingOfType("service.NotifyInput")).Return(true, nil)

	req, err := svc.Reject(ctx, requestID, providerID)

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, req.Status)
	assert.Nil(t, req.ProviderID)
}

func TestLifecycleService_Reject_InvalidTransition(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	svc := NewLifecycleService(repo, nil, nil, nil)
	ctx := context.Background()

	requestID := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(&models.ServiceRequest{
		ID:     requestID,
		Status: models.RequestStatusCompleted,
	}, nil)

	_, err := svc.Reject(ctx, requestID, uuid.New())

	assert.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_SubmitQuote_AnyNonTerminalStatus(t *testing.T) {
	for _, status := range []string{
		models.RequestStatusPending,
		models.RequestStatusAccepted,
		models.RequestStatusInProgress,
	} {
		repo := new(mockLifecycleRequestRepo)
		notifier := new(mockNotifier)
		svc := NewLifecycleService(repo, nil, notifier, nil)
		ctx := context.Background()

		requestID := uuid.New()
		providerID := uuid.New()
		amount := 150000.0

		current := &models.ServiceRequest{ID: requestID, Status: status}
		if status != models.RequestStatusPending {
			current.ProviderID = &providerID
		}
		quoted := &models.ServiceRequest{ID: requestID, Status: status, Quote: &amount}

		repo.On("GetByID", ctx, requestID).Return(current, nil)
		repo.On("SetQuote", ctx, requestID, providerID, amount).Return(quoted, nil)
		notifier.On("Notify", ctx, mock.AnythingOfType("service.NotifyInput")).Return(true, nil)

		req, err := svc.SubmitQuote(ctx, requestID, providerID, amount)

		assert.NoError(t, err, "статус %s", status)
		assert.Equal(t, amount, *req.Quote)
		assert.Equal(t, status, req.Status, "смета не меняет статус")
	}
}

func TestLifecycleService_SubmitQuote_TerminalStatus(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	svc := NewLifecycleService(repo, nil, nil, nil)
	ctx := context.Background()

	requestID := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(&models.ServiceRequest{
		ID:     requestID,
		Status: models.RequestStatusCancelled,
	}, nil)

	_, err := svc.SubmitQuote(ctx, requestID, uuid.New(), 1000)

	assert.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestLifecycleService_SubmitQuote_ForeignProvider(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	svc := NewLifecycleService(repo, nil, nil, nil)
	ctx := context.Background()

	requestID := uuid.New()
	assigned := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(&models.ServiceRequest{
		ID:         requestID,
		Status:     models.RequestStatusAccepted,
		ProviderID: &assigned,
	}, nil)

	_, err := svc.SubmitQuote(ctx, requestID, uuid.New(), 1000)

	assert.Error(t, err)
	assert.True(t, apperror.IsPermissionDenied(err))
}

func TestLifecycleService_SubmitQuote_InvalidAmount(t *testing.T) {
	svc := NewLifecycleService(new(mockLifecycleRequestRepo), nil, nil, nil)

	_, err := svc.SubmitQuote(context.Background(), uuid.New(), uuid.New(), 0)
	assert.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.CodeOf(err))

	_, err = svc.SubmitQuote(context.Background(), uuid.New(), uuid.New(), -5)
	assert.Error(t, err)
}

func TestLifecycleService_RecordProgress_MovesToInProgress(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	notifier := new(mockNotifier)
	svc := NewLifecycleService(repo, nil, notifier, nil)
	ctx := context.Background()

	requestID := uuid.New()
	providerID := uuid.New()

	accepted := &models.ServiceRequest{ID: requestID, Status: models.RequestStatusAccepted, ProviderID: &providerID}
	inProgress := &models.ServiceRequest{ID: requestID, Status: models.RequestStatusInProgress, ProviderID: &providerID}

	repo.On("GetByID", ctx, requestID).Return(accepted, nil)
	repo.On("RecordProgress", ctx, requestID, providerID, "залит фундамент", mock.AnythingOfType("string")).Return(inProgress, nil)
	notifier.On("Notify", ctx, mock.AnythingOfType("service.NotifyInput")).Return(true, nil)

	req, err := svc.RecordProgress(ctx, requestID, providerID, "залит фундамент", nil)

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusInProgress, req.Status)
}

func TestLifecycleService_RecordProgress_NotAssignedProvider(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	svc := NewLifecycleService(repo, nil, nil, nil)
	ctx := context.Background()

	requestID := uuid.New()
	assigned := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(&models.ServiceRequest{
		ID:         requestID,
		Status:     models.RequestStatusInProgress,
		ProviderID: &assigned,
	}, nil)

	_, err := svc.RecordProgress(ctx, requestID, uuid.New(), "заметка", nil)

	assert.Error(t, err)
	assert.True(t, apperror.IsPermissionDenied(err))
}

func TestLifecycleService_RecordProgress_EmptyNote(t *testing.T) {
	svc := NewLifecycleService(new(mockLifecycleRequestRepo), nil, nil, nil)

	_, err := svc.RecordProgress(context.Background(), uuid.New(), uuid.New(), "", nil)

	assert.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.CodeOf(err))
}

func TestLifecycleService_Complete_ByParticipant(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	notifier := new(mockNotifier)
	svc := NewLifecycleService(repo, nil, notifier, nil)
	ctx := context.Background()

	requestID := uuid.New()
	clientID := uuid.New()
	providerID := uuid.New()

	current := &models.ServiceRequest{ID: requestID, ClientID: clientID, ProviderID: &providerID, Status: models.RequestStatusInProgress}
	completed := &models.ServiceRequest{ID: requestID, ClientID: clientID, ProviderID: &providerID, Status: models.RequestStatusCompleted}

	repo.On("GetByID", ctx, requestID).Return(current, nil)
	repo.On("UpdateStatus", ctx, requestID,
		[]string{models.RequestStatusAccepted, models.RequestStatusInProgress},
		models.RequestStatusCompleted, providerID, (*string)(nil),
		mock.AnythingOfType("string")).Return(completed, nil)
	notifier.On("Notify", ctx, mock.AnythingOfType("service.NotifyInput")).Return(true, nil)

	req, err := svc.Complete(ctx, requestID, providerID)

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, req.Status)
}

func TestLifecycleService_Complete_NotParticipant(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	svc := NewLifecycleService(repo, nil, nil, nil)
	ctx := context.Background()

	requestID := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(&models.ServiceRequest{
		ID:       requestID,
		ClientID: uuid.New(),
		Status:   models.RequestStatusInProgress,
	}, nil)

	_, err := svc.Complete(ctx, requestID, uuid.New())

	assert.Error(t, err)
	assert.True(t, apperror.IsPermissionDenied(err))
}

func TestLifecycleService_Cancel_NotifiesOtherSide(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	notifier := new(mockNotifier)
	svc := NewLifecycleService(repo, nil, notifier, nil)
	ctx := context.Background()

	requestID := uuid.New()
	clientID := uuid.New()
	providerID := uuid.New()

	current := &models.ServiceRequest{ID: requestID, ClientID: clientID, ProviderID: &providerID, Status: models.RequestStatusAccepted}
	cancelled := &models.ServiceRequest{ID: requestID, ClientID: clientID, ProviderID: &providerID, Status: models.RequestStatusCancelled}

	repo.On("GetByID", ctx, requestID).Return(current, nil)
	repo.On("UpdateStatus", ctx, requestID, mock.Anything,
		models.RequestStatusCancelled, clientID, (*string)(nil),
		mock.AnythingOfType("string")).Return(cancelled, nil)
	notifier.On("Notify", ctx, mock.MatchedBy(func(in NotifyInput) bool {
		return in.RecipientID == providerID
	})).Return(true, nil)

	_, err := svc.Cancel(ctx, requestID, clientID)

	assert.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestLifecycleService_Cancel_Terminal(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	svc := NewLifecycleService(repo, nil, nil, nil)
	ctx := context.Background()

	requestID := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(&models.ServiceRequest{
		ID:       requestID,
		ClientID: uuid.New(),
		Status:   models.RequestStatusCompleted,
	}, nil)

	_, err := svc.Cancel(ctx, requestID, uuid.New())

	assert.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestLifecycleService_NotificationFailureDoesNotFailOperation(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	notifier := new(mockNotifier)
	svc := NewLifecycleService(repo, nil, notifier, nil)
	ctx := context.Background()

	requestID := uuid.New()
	providerID := uuid.New()
	accepted := &models.ServiceRequest{
		ID:         requestID,
		ClientID:   uuid.New(),
		ProviderID: &providerID,
		Status:     models.RequestStatusAccepted,
	}

	repo.On("Claim", ctx, requestID, providerID, mock.AnythingOfType("string")).Return(accepted, nil)
	notifier.On("Notify", ctx, mock.AnythingOfType("service.NotifyInput")).
		Return(false, apperror.New(apperror.ErrCodeTransient, "хранилище недоступно"))

	req, err := svc.Accept(ctx, requestID, providerID)

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, req.Status)
}

func TestLifecycleService_History(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	updates := new(mockUpdateReader)
	svc := NewLifecycleService(repo, updates, nil, nil)
	ctx := context.Background()

	requestID := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(&models.ServiceRequest{ID: requestID}, nil)
	expected := []models.ProjectUpdate{{ID: uuid.New()}, {ID: uuid.New()}}
	updates.On("List", ctx, requestID).Return(expected, nil)

	history, err := svc.History(ctx, requestID)

	assert.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestLifecycleService_History_RequestNotFound(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	svc := NewLifecycleService(repo, new(mockUpdateReader), nil, nil)
	ctx := context.Background()

	requestID := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(nil, apperror.ErrRequestNotFound)

	_, err := svc.History(ctx, requestID)

	assert.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestValidateSource_Exhaustive(t *testing.T) {
	allStatuses := []string{
		models.RequestStatusPending,
		models.RequestStatusAccepted,
		models.RequestStatusRejected,
		models.RequestStatusInProgress,
		models.RequestStatusCompleted,
		models.RequestStatusCancelled,
	}

	for op, sources := range validSources {
		allowed := make(map[string]struct{}, len(sources))
		for _, s := range sources {
			allowed[s] = struct{}{}
		}

		for _, status := range allStatuses {
			err := validateSource(op, status)
			if _, ok := allowed[status]; ok {
				assert.NoError(t, err, "%s из %s", op, status)
			} else {
				assert.Error(t, err, "%s из %s", op, status)
				assert.True(t, apperror.IsInvalidTransition(err), "%s из %s", op, status)
			}
		}
	}
}

// dedupNotifier эмулирует уникальный индекс по (recipient_id, event_key):
// повтор уведомления с тем же ключом не доставляется.
type dedupNotifier struct {
	mu        sync.Mutex
	seen      map[string]struct{}
	delivered []NotifyInput
}

func newDedupNotifier() *dedupNotifier {
	return &dedupNotifier{seen: make(map[string]struct{})}
}

func (n *dedupNotifier) Notify(ctx context.Context, in NotifyInput) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if in.EventKey != nil {
		k := in.RecipientID.String() + ":" + *in.EventKey
		if _, ok := n.seen[k]; ok {
			return false, nil
		}
		n.seen[k] = struct{}{}
	}
	n.delivered = append(n.delivered, in)
	return true, nil
}

func TestLifecycleService_SubmitQuote_UpdatedAmountNotifiesAgain(t *testing.T) {
	repo := new(mockLifecycleRequestRepo)
	notifier := newDedupNotifier()
	svc := NewLifecycleService(repo, nil, notifier, nil)
	ctx := context.Background()

	requestID := uuid.New()
	clientID := uuid.New()
	providerID := uuid.New()

	pending := &models.ServiceRequest{ID: requestID, ClientID: clientID, Status: models.RequestStatusPending}
	repo.On("GetByID", ctx, requestID).Return(pending, nil)
	repo.On("SetQuote", ctx, requestID, providerID, mock.AnythingOfType("float64")).Return(pending, nil)

	_, err := svc.SubmitQuote(ctx, requestID, providerID, 50000)
	assert.NoError(t, err)
	_, err = svc.SubmitQuote(ctx, requestID, providerID, 75000)
	assert.NoError(t, err)

	assert.Len(t, notifier.delivered, 2, "новая сумма — новое уведомление клиенту")

	// Ретрай той же суммы дубликата не порождает.
	_, err = svc.SubmitQuote(ctx, requestID, providerID, 75000)
	assert.NoError(t, err)
	assert.Len(t, notifier.delivered, 2)
}

// progressLogRepo эмулирует журнальную вставку с ON CONFLICT (request_id,
// event_key) DO NOTHING: запись с повторным ключом не добавляется.
type progressLogRepo struct {
	mu      sync.Mutex
	request models.ServiceRequest
	notes   map[string]string
}

func (r *progressLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req := r.request
	return &req, nil
}

func (r *progressLogRepo) Claim(ctx context.Context, requestID, providerID uuid.UUID, eventKey string) (*models.ServiceRequest, error) {
	return nil, apperror.ErrAlreadyAssigned
}

func (r *progressLogRepo) UpdateStatus(ctx context.Context, requestID uuid.UUID, from []string, to string, actorID uuid.UUID, note *string, eventKey string) (*models.ServiceRequest, error) {
	return nil, apperror.ErrRequestNotFound
}

func (r *progressLogRepo) SetQuote(ctx context.Context, requestID, providerID uuid.UUID, amount float64) (*models.ServiceRequest, error) {
	return nil, apperror.ErrRequestNotFound
}

func (r *progressLogRepo) RecordProgress(ctx context.Context, requestID, actorID uuid.UUID, note string, eventKey string) (*models.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[eventKey]; !ok {
		r.notes[eventKey] = note
	}
	r.request.Status = models.RequestStatusInProgress
	req := r.request
	return &req, nil
}

func TestLifecycleService_RecordProgress_SameNoteAppendsSeparateEntries(t *testing.T) {
	providerID := uuid.New()
	repo := &progressLogRepo{
		request: models.ServiceRequest{
			ID:         uuid.New(),
			ClientID:   uuid.New(),
			ProviderID: &providerID,
			Status:     models.RequestStatusAccepted,
		},
		notes: make(map[string]string),
	}
	notifier := newDedupNotifier()
	svc := NewLifecycleService(repo, nil, notifier, nil)
	ctx := context.Background()

	_, err := svc.RecordProgress(ctx, repo.request.ID, providerID, "залит фундамент", nil)
	assert.NoError(t, err)
	_, err = svc.RecordProgress(ctx, repo.request.ID, providerID, "залит фундамент", nil)
	assert.NoError(t, err)

	assert.Len(t, repo.notes, 2, "одинаковый текст — две записи журнала")
	assert.Len(t, notifier.delivered, 2)
}

func TestLifecycleService_RecordProgress_IdempotencyKeyCollapsesRetry(t *testing.T) {
	providerID := uuid.New()
	repo := &progressLogRepo{
		request: models.ServiceRequest{
			ID:         uuid.New(),
			ClientID:   uuid.New(),
			ProviderID: &providerID,
			Status:     models.RequestStatusAccepted,
		},
		notes: make(map[string]string),
	}
	notifier := newDedupNotifier()
	svc := NewLifecycleService(repo, nil, notifier, nil)
	ctx := context.Background()

	idemKey := uuid.NewString()
	_, err := svc.RecordProgress(ctx, repo.request.ID, providerID, "закуплены материалы", &idemKey)
	assert.NoError(t, err)
	_, err = svc.RecordProgress(ctx, repo.request.ID, providerID, "закуплены материалы", &idemKey)
	assert.NoError(t, err)

	assert.Len(t, repo.notes, 1, "ретрай с тем же ключом не дублирует запись")
	assert.Len(t, notifier.delivered, 1)
}
