package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"mailcast/models"
	"mailcast/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCampaignStore struct {
	campaigns map[uint]*models.Campaign
	templates map[uint]bool
	lists     map[uint]int64
	nextID    uint

	startErr error
	stats    models.SendStats
	listArgs string
}

func newMockCampaignStore() *mockCampaignStore {
	return &mockCampaignStore{
		campaigns: map[uint]*models.Campaign{},
		templates: map[uint]bool{1: true},
		lists:     map[uint]int64{1: 3},
	}
}

func (m *mockCampaignStore) Create(_ context.Context, c *models.Campaign) error {
	m.nextID++
	c.ID = m.nextID
	m.campaigns[c.ID] = c
	return nil
}

func (m *mockCampaignStore) GetByID(_ context.Context, id uint) (*models.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, nil
	}
	loaded := *c
	return &loaded, nil
}

func (m *mockCampaignStore) List(_ context.Context, status string, _ int) ([]models.CampaignSummary, error) {
	m.listArgs = status
	return []models.CampaignSummary{}, nil
}

func (m *mockCampaignStore) TemplateExists(_ context.Context, id uint) (bool, error) {
	return m.templates[id], nil
}

func (m *mockCampaignStore) ListExists(_ context.Context, id uint) (bool, error) {
	_, ok := m.lists[id]
	return ok, nil
}

func (m *mockCampaignStore) CountEligibleContacts(_ context.Context, listID uint) (int64, error) {
	return m.lists[listID], nil
}

func (m *mockCampaignStore) Start(_ context.Context, id uint, at time.Time) (int, error) {
	if m.startErr != nil {
		return 0, m.startErr
	}
	c := m.campaigns[id]
	c.Status = models.CampaignActive
	c.StartedAt = &at
	c.TotalRecipients = int(m.lists[c.ListID])
	return c.TotalRecipients, nil
}

func (m *mockCampaignStore) UpdateStatus(_ context.Context, id uint, from, to string) (bool, error) {
	c, ok := m.campaigns[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (m *mockCampaignStore) Delete(_ context.Context, id uint) (bool, error) {
	if _, ok := m.campaigns[id]; !ok {
		return false, nil
	}
	delete(m.campaigns, id)
	return true, nil
}

func (m *mockCampaignStore) SendStats(context.Context, *models.Campaign) (models.SendStats, error) {
	return m.stats, nil
}

type triggerRecorder struct{ calls int }

func (t *triggerRecorder) Trigger() bool {
	t.calls++
	return true
}

func newTestService() (*CampaignService, *mockCampaignStore, *triggerRecorder) {
	store := newMockCampaignStore()
	trigger := &triggerRecorder{}
	return NewCampaignService(store, trigger), store, trigger
}

func createDraft(t *testing.T, svc *CampaignService) *models.Campaign {
	t.Helper()
	c, err := svc.Create(context.Background(), CreateCampaignInput{Name: "Launch", TemplateID: 1, ListID: 1})
	require.NoError(t, err)
	return c
}

func TestCreate(t *testing.T) {
	svc, _, trigger := newTestService()

	c := createDraft(t, svc)
	assert.Equal(t, models.CampaignDraft, c.Status)
	assert.Equal(t, 3, c.TotalRecipients)
	assert.Equal(t, 4000, c.DailyLimit)
	assert.Zero(t, trigger.calls)
}

func TestCreate_MissingReferences(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateCampaignInput{Name: "x", TemplateID: 9, ListID: 1})
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = svc.Create(context.Background(), CreateCampaignInput{Name: "x", TemplateID: 1, ListID: 9})
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestStart(t *testing.T) {
	svc, store, trigger := newTestService()
	draft := createDraft(t, svc)
	store.lists[1] = 2 // one contact unsubscribed since creation

	started, err := svc.Start(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignActive, started.Status)
	assert.NotNil(t, started.StartedAt)
	assert.Equal(t, 2, started.TotalRecipients)
	assert.Equal(t, 1, trigger.calls)
}

func TestStart_OnlyDrafts(t *testing.T) {
	svc, _, trigger := newTestService()
	c := createDraft(t, svc)
	_, err := svc.Start(context.Background(), c.ID)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, trigger.calls)

	_, err = svc.Start(context.Background(), 404)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestStart_ConcurrentStartLoses(t *testing.T) {
	svc, store, trigger := newTestService()
	c := createDraft(t, svc)
	store.startErr = repository.ErrStatusConflict

	_, err := svc.Start(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Zero(t, trigger.calls)
}

func TestStart_StorageError(t *testing.T) {
	svc, store, trigger := newTestService()
	c := createDraft(t, svc)
	store.startErr = errors.New("deadlock detected")

	_, err := svc.Start(context.Background(), c.ID)
	assert.ErrorIs(t, err, store.startErr)
	assert.NotErrorIs(t, err, ErrInvalidTransition)
	assert.Zero(t, trigger.calls)
}

func TestPauseResume(t *testing.T) {
	svc, _, trigger := newTestService()
	c := createDraft(t, svc)
	ctx := context.Background()

	_, err := svc.Pause(ctx, c.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "drafts cannot be paused")
	_, err = svc.Resume(ctx, c.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "only paused campaigns resume")

	_, err = svc.Start(ctx, c.ID)
	require.NoError(t, err)

	paused, err := svc.Pause(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignPaused, paused.Status)

	resumed, err := svc.Resume(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignActive, resumed.Status)
	assert.Equal(t, 2, trigger.calls)

	_, err = svc.Pause(ctx, 404)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestDelete(t *testing.T) {
	svc, store, _ := newTestService()
	c := createDraft(t, svc)

	require.NoError(t, svc.Delete(context.Background(), c.ID))
	assert.Empty(t, store.campaigns)
	assert.ErrorIs(t, svc.Delete(context.Background(), c.ID), ErrCampaignNotFound)
}

func TestGet_IncludesStats(t *testing.T) {
	svc, store, _ := newTestService()
	c := createDraft(t, svc)
	store.stats = models.SendStats{Total: 3, Sent: 1, Failed: 1, Pending: 1, Stalled: 1}

	details, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, details.ID)
	assert.Equal(t, store.stats, details.Stats)

	_, err = svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestList_ValidatesStatus(t *testing.T) {
	svc, store, _ := newTestService()

	_, err := svc.List(context.Background(), models.CampaignPaused)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignPaused, store.listArgs)

	_, err = svc.List(context.Background(), "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
