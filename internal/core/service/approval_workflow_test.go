package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
)

type workflowFixture struct {
	users    *stubUserRepo
	identity *stubIdentity
	requests *stubRequestRepo
	notifier *recordingNotifier
	ledger   *RequestLedgerService
	svc      *ApprovalWorkflowService
}

func newWorkflowFixture(seed ...*domain.User) *workflowFixture {
	f := &workflowFixture{
		users:    newStubUserRepo(seed...),
		identity: newStubIdentity(),
		requests: newStubRequestRepo(),
		notifier: &recordingNotifier{},
	}
	f.ledger = NewRequestLedgerService(f.requests, f.users, f.notifier, zerolog.Nop())
	f.ledger.hashCost = bcrypt.MinCost
	f.svc = NewApprovalWorkflowService(f.ledger, newDirectory(f.users, f.identity), f.notifier, zerolog.Nop())
	return f
}

// sinceCreation drops the notifications emitted while the request was filed.
func (f *workflowFixture) sinceCreation(before int) []domain.Notification {
	return f.notifier.all()[before:]
}

func (f *workflowFixture) addStaffRequest(t *testing.T) *domain.StaffRequest {
	t.Helper()
	req, err := f.ledger.CreateAddStaffRequest(context.Background(), supervisor, ports.AddStaffRequestInput{
		Name:            "Ada",
		StaffID:         "123456",
		Role:            domain.RoleStaff,
		InitialPassword: "secret1",
	})
	require.NoError(t, err)
	return req
}

func (f *workflowFixture) deletionRequest(t *testing.T, target *domain.User) *domain.StaffRequest {
	t.Helper()
	req, err := f.ledger.CreateDeletionRequest(context.Background(), supervisor, ports.DeletionRequestInput{TargetUserUID: target.ID})
	require.NoError(t, err)
	return req
}

func TestWorkflow_NonPrivilegedCallersAreRejected(t *testing.T) {
	f := newWorkflowFixture(cook)
	del := f.deletionRequest(t, cook)
	add := f.addStaffRequest(t)
	ctx := context.Background()

	for _, actor := range []domain.Actor{supervisor, staffer} {
		_, err := f.svc.ApproveDeletion(ctx, actor, del.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		_, err = f.svc.DeclineDeletion(ctx, actor, del.ID, ports.DeclineInput{})
		assert.ErrorIs(t, err, domain.ErrForbidden)
		_, err = f.svc.ApproveAddStaff(ctx, actor, add.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		_, err = f.svc.DeclineAddStaff(ctx, actor, add.ID, ports.DeclineInput{})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	}

	assert.Equal(t, domain.StatusPending, f.requests.get(del.ID).Status)
	assert.Equal(t, domain.StatusPending, f.requests.get(add.ID).Status)
	assert.Equal(t, 1, f.users.count())
	assert.Zero(t, f.users.writes)
}

func TestApproveAddStaff(t *testing.T) {
	f := newWorkflowFixture()
	req := f.addStaffRequest(t)
	before := len(f.notifier.all())

	updated, err := f.svc.ApproveAddStaff(context.Background(), manager, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)
	assert.Equal(t, manager.UID, updated.ProcessedByUID)
	assert.Equal(t, manager.Name, updated.ProcessedByName)
	assert.NotNil(t, updated.ProcessedTimestamp)
	assert.Empty(t, f.requests.get(req.ID).InitialPasswordHash)

	created, err := f.users.FindByStaffID(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, "Ada", created.Name)
	assert.Equal(t, domain.RoleStaff, created.Role)
	assert.Equal(t, created.ID, f.identity.created[created.Email])
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(f.identity.imported[created.Email]), []byte("secret1")))

	sent := f.sinceCreation(before)
	require.Len(t, sent, 1)
	assert.Equal(t, supervisor.UID, sent[0].RecipientUID)
	assert.Equal(t, domain.RoleSupervisor, sent[0].RecipientRole)
	assert.Equal(t, manager.UID, sent[0].SenderID)
}

func TestApprove_SecondDecisionFails(t *testing.T) {
	f := newWorkflowFixture()
	req := f.addStaffRequest(t)
	ctx := context.Background()

	_, err := f.svc.ApproveAddStaff(ctx, manager, req.ID)
	require.NoError(t, err)

	_, err = f.svc.ApproveAddStaff(ctx, developer, req.ID)
	require.ErrorIs(t, err, domain.ErrNotFoundOrProcessed)
	_, err = f.svc.DeclineAddStaff(ctx, developer, req.ID, ports.DeclineInput{})
	require.ErrorIs(t, err, domain.ErrNotFoundOrProcessed)
	assert.Equal(t, 1, f.users.count())
}

func TestApproveDeletion_ConcurrentDecisionsSettleOnce(t *testing.T) {
	f := newWorkflowFixture(cook)
	req := f.deletionRequest(t, cook)

	const callers = 5
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		errs []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ApproveDeletion(context.Background(), manager, req.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	for _, err := range errs {
		assert.True(t, errors.Is(err, domain.ErrNotFoundOrProcessed) || errors.Is(err, domain.ErrAlreadyProcessed), "unexpected error: %v", err)
	}
	assert.Equal(t, domain.StatusApproved, f.requests.get(req.ID).Status)
}

func TestApproveDeletion(t *testing.T) {
	f := newWorkflowFixture(cook)
	req := f.deletionRequest(t, cook)
	before := len(f.notifier.all())

	updated, err := f.svc.ApproveDeletion(context.Background(), manager, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)

	_, err = f.users.FindByID(context.Background(), cook.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sent := f.sinceCreation(before)
	require.Len(t, sent, 2)
	assert.Equal(t, supervisor.UID, sent[0].RecipientUID)
	assert.Equal(t, domain.RoleAll, sent[1].RecipientRole)
	assert.Empty(t, sent[1].RecipientUID)
}

func TestApproveDeletion_TargetAlreadyGone(t *testing.T) {
	f := newWorkflowFixture(cook)
	req := f.deletionRequest(t, cook)
	require.NoError(t, f.users.Delete(context.Background(), cook.ID))
	before := len(f.notifier.all())

	updated, err := f.svc.ApproveDeletion(context.Background(), developer, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)
	assert.Len(t, f.sinceCreation(before), 2)
}

func TestApproveDeletion_DirectoryFailureKeepsPending(t *testing.T) {
	f := newWorkflowFixture(cook)
	req := f.deletionRequest(t, cook)
	f.users.failAll = errStore

	_, err := f.svc.ApproveDeletion(context.Background(), manager, req.ID)
	require.ErrorIs(t, err, domain.ErrUnavailable)

	stored := f.requests.get(req.ID)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Empty(t, stored.ProcessedByUID)
	assert.Nil(t, stored.ProcessedTimestamp)

	// The reopened request can still be approved once the store is back.
	f.users.failAll = nil
	updated, err := f.svc.ApproveDeletion(context.Background(), manager, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)
}

// declineFirstLedger lets a decline run between the approver's pending check
// and its status write.
type declineFirstLedger struct {
	ports.RequestLedger
	decline func()
}

func (l *declineFirstLedger) SetRequestStatus(ctx context.Context, kind domain.RequestKind, id string, d domain.RequestDecision) (*domain.StaffRequest, error) {
	if d.Status == domain.StatusApproved && l.decline != nil {
		l.decline()
		l.decline = nil
	}
	return l.RequestLedger.SetRequestStatus(ctx, kind, id, d)
}

func TestApproveDeletion_LosingToDeclineKeepsTarget(t *testing.T) {
	f := newWorkflowFixture(cook)
	req := f.deletionRequest(t, cook)
	ctx := context.Background()

	var declineErr error
	ledger := &declineFirstLedger{RequestLedger: f.ledger, decline: func() {
		_, declineErr = f.svc.DeclineDeletion(ctx, developer, req.ID, ports.DeclineInput{Feedback: "not yet"})
	}}
	approver := NewApprovalWorkflowService(ledger, newDirectory(f.users, f.identity), f.notifier, zerolog.Nop())

	_, err := approver.ApproveDeletion(ctx, manager, req.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	require.NoError(t, declineErr)

	stored := f.requests.get(req.ID)
	assert.Equal(t, domain.StatusDeclined, stored.Status)
	assert.Equal(t, "not yet", stored.ManagerFeedback)
	_, err = f.users.FindByID(ctx, cook.ID)
	assert.NoError(t, err)
}

// declineDuringDeleteDirectory attempts a decline while the approver is
// removing the target.
type declineDuringDeleteDirectory struct {
	ports.UserDirectory
	decline func()
}

func (d *declineDuringDeleteDirectory) DeleteUser(ctx context.Context, actor domain.Actor, targetID string) error {
	d.decline()
	return d.UserDirectory.DeleteUser(ctx, actor, targetID)
}

func TestApproveDeletion_DeclineAfterClaimIsRejected(t *testing.T) {
	f := newWorkflowFixture(cook)
	req := f.deletionRequest(t, cook)
	ctx := context.Background()

	var declineErr error
	dir := &declineDuringDeleteDirectory{UserDirectory: newDirectory(f.users, f.identity), decline: func() {
		_, declineErr = f.svc.DeclineDeletion(ctx, developer, req.ID, ports.DeclineInput{Feedback: "not yet"})
	}}
	approver := NewApprovalWorkflowService(f.ledger, dir, f.notifier, zerolog.Nop())

	updated, err := approver.ApproveDeletion(ctx, manager, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)
	require.ErrorIs(t, declineErr, domain.ErrNotFoundOrProcessed)

	stored := f.requests.get(req.ID)
	assert.Equal(t, domain.StatusApproved, stored.Status)
	assert.Empty(t, stored.ManagerFeedback)
	_, err = f.users.FindByID(ctx, cook.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeclineDeletion(t *testing.T) {
	f := newWorkflowFixture(cook)
	req := f.deletionRequest(t, cook)
	before := len(f.notifier.all())

	updated, err := f.svc.DeclineDeletion(context.Background(), manager, req.ID, ports.DeclineInput{
		Feedback:     "not yet",
		RequesterUID: supervisor.UID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeclined, updated.Status)
	assert.Equal(t, "not yet", updated.ManagerFeedback)

	_, err = f.users.FindByID(context.Background(), cook.ID)
	require.NoError(t, err)

	sent := f.sinceCreation(before)
	require.Len(t, sent, 1)
	assert.Equal(t, supervisor.UID, sent[0].RecipientUID)
	assert.True(t, strings.Contains(sent[0].Message, "not yet"))
	assert.Contains(t, sent[0].Message, cook.Name)
}

func TestDecline_NoticeGoesToStoredRequester(t *testing.T) {
	f := newWorkflowFixture(cook)
	req := f.deletionRequest(t, cook)
	before := len(f.notifier.all())

	_, err := f.svc.DeclineDeletion(context.Background(), manager, req.ID, ports.DeclineInput{RequesterUID: staffer.UID})
	require.NoError(t, err)

	sent := f.sinceCreation(before)
	require.Len(t, sent, 1)
	assert.Equal(t, supervisor.UID, sent[0].RecipientUID)
}

func TestDecline_WithoutRequesterSendsNothing(t *testing.T) {
	f := newWorkflowFixture()
	req := f.addStaffRequest(t)
	before := len(f.notifier.all())

	updated, err := f.svc.DeclineAddStaff(context.Background(), developer, req.ID, ports.DeclineInput{Feedback: "budget"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeclined, updated.Status)
	assert.Empty(t, f.sinceCreation(before))
	assert.Zero(t, f.users.count())
}

func TestDeclineAddStaff_UsesSuppliedName(t *testing.T) {
	f := newWorkflowFixture()
	req := f.addStaffRequest(t)
	before := len(f.notifier.all())

	_, err := f.svc.DeclineAddStaff(context.Background(), manager, req.ID, ports.DeclineInput{
		RequesterUID:   supervisor.UID,
		TargetUserName: "Ada L.",
	})
	require.NoError(t, err)

	sent := f.sinceCreation(before)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Message, "Ada L.")
	assert.NotContains(t, sent[0].Message, "Feedback")
}

func TestApproveAddStaff_CreateFailureKeepsPending(t *testing.T) {
	f := newWorkflowFixture()
	req := f.addStaffRequest(t)
	// Someone registered the staff id after the request was filed.
	require.NoError(t, f.users.Create(context.Background(), &domain.User{ID: "late", StaffID: "123456", Name: "Late", Role: domain.RoleStaff}))
	before := len(f.notifier.all())

	_, err := f.svc.ApproveAddStaff(context.Background(), manager, req.ID)
	require.ErrorIs(t, err, domain.ErrDuplicateStaffID)
	assert.Equal(t, domain.StatusPending, f.requests.get(req.ID).Status)
	assert.Empty(t, f.sinceCreation(before))
}

func TestApproveAddStaff_LostRaceRemovesCreatedUser(t *testing.T) {
	f := newWorkflowFixture()
	req := f.addStaffRequest(t)
	f.requests.failNext = domain.ErrAlreadyProcessed

	_, err := f.svc.ApproveAddStaff(context.Background(), developer, req.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.Zero(t, f.users.count())
}

func TestApprove_NotifierFailureIsNotFatal(t *testing.T) {
	f := newWorkflowFixture()
	req := f.addStaffRequest(t)
	f.notifier.fail = errStore

	updated, err := f.svc.ApproveAddStaff(context.Background(), manager, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)
}

func TestApprove_UnknownRequest(t *testing.T) {
	f := newWorkflowFixture()

	_, err := f.svc.ApproveDeletion(context.Background(), manager, "missing")
	require.ErrorIs(t, err, domain.ErrNotFoundOrProcessed)
	_, err = f.svc.DeclineAddStaff(context.Background(), manager, "missing", ports.DeclineInput{})
	require.ErrorIs(t, err, domain.ErrNotFoundOrProcessed)
}
