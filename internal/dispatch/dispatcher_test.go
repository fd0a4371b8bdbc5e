package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/deanbaranes/bpark-server/internal/engine"
	"github.com/deanbaranes/bpark-server/internal/model"
	"github.com/deanbaranes/bpark-server/internal/repository"
	"github.com/deanbaranes/bpark-server/internal/utils"
)

// fakeEngine returns canned results per operation.
type fakeEngine struct {
	dropoffAP  *model.ActiveParking
	dropoffErr error

	reservation    *model.Reservation
	reservationErr error

	activateAP  *model.ActiveParking
	activateErr error

	extendExit time.Time
	extendErr  error

	cancelOK      bool
	cancelErr     error
	cancelSubject uint64

	pickupH   *model.ParkingHistory
	pickupErr error

	free []int
}

func (f *fakeEngine) RequestImmediateSpot(ctx context.Context, subscriberID uint64) (*model.ActiveParking, error) {
	return f.dropoffAP, f.dropoffErr
}

func (f *fakeEngine) RequestReservation(ctx context.Context, subscriberID uint64, start time.Time) (*model.Reservation, error) {
	return f.reservation, f.reservationErr
}

func (f *fakeEngine) ActivateReservation(ctx context.Context, code string) (*model.ActiveParking, error) {
	return f.activateAP, f.activateErr
}

func (f *fakeEngine) ExtendActiveParking(ctx context.Context, subscriberID uint64) (time.Time, error) {
	return f.extendExit, f.extendErr
}

func (f *fakeEngine) CancelReservation(ctx context.Context, subscriberID, id uint64) (bool, error) {
	f.cancelSubject = subscriberID
	return f.cancelOK, f.cancelErr
}

func (f *fakeEngine) Pickup(ctx context.Context, code string) (*model.ParkingHistory, error) {
	return f.pickupH, f.pickupErr
}

func (f *fakeEngine) FreeSpots(ctx context.Context) ([]int, error) { return f.free, nil }

// fakeDirectory backs the subscriber and account lookups.
type fakeDirectory struct {
	subscribers map[uint64]*model.Subscriber
	accounts    map[string]*model.ManagementAccount
	updateErr   error
}

func (f *fakeDirectory) GetByID(ctx context.Context, id uint64) (*model.Subscriber, error) {
	if s, ok := f.subscribers[id]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeDirectory) GetByIDAndCode(ctx context.Context, id uint64, code string) (*model.Subscriber, error) {
	s, ok := f.subscribers[id]
	if !ok || s.SubscriptionCode != code {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeDirectory) Create(ctx context.Context, s *model.Subscriber) error {
	for _, other := range f.subscribers {
		if other.VehicleID == s.VehicleID {
			return repository.ErrDuplicate
		}
	}
	s.ID = uint64(len(f.subscribers) + 1)
	f.subscribers[s.ID] = s
	return nil
}

func (f *fakeDirectory) UpdateContact(ctx context.Context, id uint64, email, phone string) error {
	return f.updateErr
}

func (f *fakeDirectory) GetByUsername(ctx context.Context, username string) (*model.ManagementAccount, error) {
	if a, ok := f.accounts[username]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

type fakeListers struct {
	reservations []model.Reservation
	actives      []model.ActiveParking
	history      []model.ParkingHistory
}

func (f *fakeListers) ListFuture(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	return f.reservations, nil
}

func (f *fakeListers) ListActive(ctx context.Context) ([]model.ActiveParking, error) {
	return f.actives, nil
}

func (f *fakeListers) ListBySubscriber(ctx context.Context, id uint64) ([]model.ParkingHistory, error) {
	return f.history, nil
}

type fakeReports struct {
	duration []model.DurationReportRow
	status   []model.StatusReportRow
}

func (f *fakeReports) Duration(ctx context.Context, year int, month time.Month) ([]model.DurationReportRow, error) {
	return f.duration, nil
}

func (f *fakeReports) Status(ctx context.Context, year int, month time.Month) ([]model.StatusReportRow, error) {
	return f.status, nil
}

type fakeSnapshots struct {
	payloads map[string][]byte
}

func (f *fakeSnapshots) Get(ctx context.Context, year int, month time.Month, kind string) ([]byte, error) {
	if p, ok := f.payloads[kind]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func newTestDispatcher(eng *fakeEngine, dir *fakeDirectory, lists *fakeListers, snaps *fakeSnapshots) *Dispatcher {
	if dir == nil {
		dir = &fakeDirectory{subscribers: map[uint64]*model.Subscriber{}, accounts: map[string]*model.ManagementAccount{}}
	}
	if lists == nil {
		lists = &fakeListers{}
	}
	if snaps == nil {
		snaps = &fakeSnapshots{payloads: map[string][]byte{}}
	}
	return New(Deps{
		Engine:       eng,
		Subscribers:  dir,
		Accounts:     dir,
		Reservations: lists,
		Sessions:     lists,
		History:      lists,
		Reports:      &fakeReports{},
		Snapshots:    snaps,
	})
}

func TestDispatchLogin(t *testing.T) {
	dir := &fakeDirectory{
		subscribers: map[uint64]*model.Subscriber{
			5: {ID: 5, FullName: "Dana Peri", SubscriptionCode: "GOODCODE"},
		},
		accounts: map[string]*model.ManagementAccount{},
	}
	d := newTestDispatcher(&fakeEngine{}, dir, nil, nil)
	ctx := context.Background()

	resp := d.Dispatch(ctx, Login{SubscriberID: 5, Code: "GOODCODE", Source: "app"})
	if resp.Tag != TagLoginSuccess {
		t.Fatalf("tag = %s, want LOGIN_SUCCESS", resp.Tag)
	}
	view, ok := resp.Data.(SubscriberView)
	if !ok || view.FullName != "Dana Peri" {
		t.Fatalf("app login missing profile: %+v", resp.Data)
	}

	// Kiosk logins get the tag only.
	resp = d.Dispatch(ctx, Login{SubscriberID: 5, Code: "GOODCODE", Source: "kiosk"})
	if resp.Tag != TagLoginSuccess || resp.Data != nil {
		t.Fatalf("kiosk login = %+v, want bare LOGIN_SUCCESS", resp)
	}

	resp = d.Dispatch(ctx, Login{SubscriberID: 5, Code: "WRONG", Source: "app"})
	if resp.Tag != TagLoginFailure {
		t.Fatalf("tag = %s, want LOGIN_FAILURE", resp.Tag)
	}
}

func TestDispatchManagementLogin(t *testing.T) {
	hash, err := utils.HashPassword("s3cret", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	dir := &fakeDirectory{
		subscribers: map[uint64]*model.Subscriber{},
		accounts: map[string]*model.ManagementAccount{
			"boss": {ID: 1, Username: "boss", PasswordHash: hash, Role: model.RoleManager},
		},
	}
	d := newTestDispatcher(&fakeEngine{}, dir, nil, nil)
	ctx := context.Background()

	resp := d.Dispatch(ctx, ManagementLogin{Username: "boss", Password: "s3cret"})
	if resp.Tag != TagManagementLoginSuccess || resp.Detail != model.RoleManager {
		t.Fatalf("got %+v, want success with manager role", resp)
	}
	resp = d.Dispatch(ctx, ManagementLogin{Username: "boss", Password: "wrong"})
	if resp.Tag != TagManagementLoginFailure {
		t.Fatalf("tag = %s, want LOGIN_MANAGEMENT_FAILURE", resp.Tag)
	}
	resp = d.Dispatch(ctx, ManagementLogin{Username: "ghost", Password: "s3cret"})
	if resp.Tag != TagManagementLoginFailure {
		t.Fatalf("tag = %s, want LOGIN_MANAGEMENT_FAILURE for unknown user", resp.Tag)
	}
}

func TestDispatchReservationDenials(t *testing.T) {
	cases := []struct {
		err        error
		wantTag    string
		wantDetail string
	}{
		{engine.ErrCapacityExceeded, TagReservationFailed, ReasonCapacityExceeded},
		{engine.ErrNoSpots, TagReservationFailed, ReasonNoSpots},
		{engine.ErrPastWindow, TagReservationFailed, ReasonPastWindow},
		{engine.ErrDuplicateReservation, TagReservationAlreadyExist, ""},
		{errors.New("connection reset"), TagServerError, ""},
	}
	for _, tc := range cases {
		d := newTestDispatcher(&fakeEngine{reservationErr: tc.err}, nil, nil, nil)
		resp := d.Dispatch(context.Background(), NewReservation{SubscriberID: 1, StartsAt: time.Now().Add(time.Hour)})
		if resp.Tag != tc.wantTag || resp.Detail != tc.wantDetail {
			t.Fatalf("err %v: got tag=%s detail=%s, want %s/%s", tc.err, resp.Tag, resp.Detail, tc.wantTag, tc.wantDetail)
		}
	}
}

func TestDispatchActivationOutcomes(t *testing.T) {
	ap := &model.ActiveParking{SpotNumber: 4, AccessCode: "ABCD22"}
	cases := []struct {
		eng     *fakeEngine
		wantTag string
	}{
		{&fakeEngine{activateAP: ap}, TagActivationSuccess},
		{&fakeEngine{activateErr: engine.ErrArriveEarly}, TagArriveEarly},
		{&fakeEngine{activateErr: repository.ErrNotFound}, TagNotFound},
		{&fakeEngine{activateErr: engine.ErrAlreadyParked}, TagCarAlreadyParked},
	}
	for _, tc := range cases {
		d := newTestDispatcher(tc.eng, nil, nil, nil)
		resp := d.Dispatch(context.Background(), ActivateReservation{Code: "ABCD22"})
		if resp.Tag != tc.wantTag {
			t.Fatalf("got tag %s, want %s", resp.Tag, tc.wantTag)
		}
	}
}

func TestDispatchPickupTowed(t *testing.T) {
	d := newTestDispatcher(&fakeEngine{pickupErr: engine.ErrVehicleTowed}, nil, nil, nil)
	resp := d.Dispatch(context.Background(), Pickup{Code: "TOWED1"})
	if resp.Tag != TagVehicleTowed {
		t.Fatalf("tag = %s, want SENT_TOWED_VEHICLE_MSG", resp.Tag)
	}
}

func TestDispatchExtend(t *testing.T) {
	exit := time.Date(2026, 8, 20, 20, 0, 0, 0, time.UTC)
	d := newTestDispatcher(&fakeEngine{extendExit: exit}, nil, nil, nil)
	resp := d.Dispatch(context.Background(), Extend{SubscriberID: 1})
	if resp.Tag != TagExtendSuccess {
		t.Fatalf("tag = %s, want EXTEND_SUCCESS", resp.Tag)
	}
	if resp.Detail != exit.Format(time.RFC3339) {
		t.Fatalf("detail = %s, want the new exit time", resp.Detail)
	}

	d = newTestDispatcher(&fakeEngine{extendErr: engine.ErrAlreadyExtended}, nil, nil, nil)
	if resp := d.Dispatch(context.Background(), Extend{SubscriberID: 1}); resp.Tag != TagExtendAlreadyDone {
		t.Fatalf("tag = %s, want EXTEND_ALREADY_DONE", resp.Tag)
	}

	d = newTestDispatcher(&fakeEngine{extendErr: repository.ErrNotFound}, nil, nil, nil)
	if resp := d.Dispatch(context.Background(), Extend{SubscriberID: 1}); resp.Tag != TagExtendNoActive {
		t.Fatalf("tag = %s, want EXTEND_FAILED_NO_ACTIVE", resp.Tag)
	}
}

func TestDispatchCancel(t *testing.T) {
	eng := &fakeEngine{cancelOK: true}
	d := newTestDispatcher(eng, nil, nil, nil)
	if resp := d.Dispatch(context.Background(), CancelReservation{SubscriberID: 3, ReservationID: 9}); resp.Tag != TagCancelSuccess {
		t.Fatalf("tag = %s, want CANCEL_SUCCESS", resp.Tag)
	}
	// The acting subscriber scopes the cancellation.
	if eng.cancelSubject != 3 {
		t.Fatalf("cancel ran for subscriber %d, want 3", eng.cancelSubject)
	}
	d = newTestDispatcher(&fakeEngine{cancelOK: false}, nil, nil, nil)
	if resp := d.Dispatch(context.Background(), CancelReservation{SubscriberID: 3, ReservationID: 9}); resp.Tag != TagCancelFailed {
		t.Fatalf("tag = %s, want CANCEL_FAILED", resp.Tag)
	}
}

func TestDispatchSiteActivity(t *testing.T) {
	lists := &fakeListers{
		reservations: []model.Reservation{{ID: 1, SpotNumber: 2, AccessCode: "RES111"}},
		actives:      []model.ActiveParking{{ID: 4, SpotNumber: 7, AccessCode: "ACT222"}},
	}
	d := newTestDispatcher(&fakeEngine{free: []int{1, 3}}, nil, lists, nil)
	resp := d.Dispatch(context.Background(), GetSiteActivity{})
	if resp.Tag != TagSiteActivity {
		t.Fatalf("tag = %s, want SITE_ACTIVITY", resp.Tag)
	}
	view, ok := resp.Data.(SiteActivityView)
	if !ok {
		t.Fatalf("data = %T, want SiteActivityView", resp.Data)
	}
	if len(view.Reservations) != 1 || len(view.ActiveParkings) != 1 || len(view.FreeSpots) != 2 {
		t.Fatalf("view = %+v", view)
	}
}

func TestDispatchReportPrefersSnapshot(t *testing.T) {
	stored := []model.DurationReportRow{{Day: 1, ParkedMinutes: 300}}
	payload, err := json.Marshal(stored)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	snaps := &fakeSnapshots{payloads: map[string][]byte{repository.ReportKindDuration: payload}}
	d := newTestDispatcher(&fakeEngine{}, nil, nil, snaps)

	resp := d.Dispatch(context.Background(), ParkingDurationReport{Year: 2026, Month: time.July})
	if resp.Tag != TagReportReady {
		t.Fatalf("tag = %s, want REPORT_READY", resp.Tag)
	}
	rows, ok := resp.Data.([]model.DurationReportRow)
	if !ok || len(rows) != 1 || rows[0].ParkedMinutes != 300 {
		t.Fatalf("data = %+v, want the stored snapshot", resp.Data)
	}
}

func TestDispatchRegisterIssuesSubscriptionCode(t *testing.T) {
	dir := &fakeDirectory{subscribers: map[uint64]*model.Subscriber{}, accounts: map[string]*model.ManagementAccount{}}
	d := newTestDispatcher(&fakeEngine{}, dir, nil, nil)

	resp := d.Dispatch(context.Background(), RegisterSubscriber{
		FullName: "Dana Peri", Email: "dana@example.com", VehicleID: "12-345-67",
	})
	if resp.Tag != TagRegisterSuccess {
		t.Fatalf("tag = %s, want REGISTER_SUCCESS", resp.Tag)
	}
	reg, ok := resp.Data.(RegistrationView)
	if !ok || reg.ID == 0 || len(reg.SubscriptionCode) != 8 {
		t.Fatalf("registration data = %+v", resp.Data)
	}

	// Same vehicle again: duplicate.
	resp = d.Dispatch(context.Background(), RegisterSubscriber{
		FullName: "Dana Again", Email: "other@example.com", VehicleID: "12-345-67",
	})
	if resp.Tag != TagRegisterFailed {
		t.Fatalf("tag = %s, want REGISTER_FAILED", resp.Tag)
	}
}

func TestDispatchUnknownRequest(t *testing.T) {
	d := newTestDispatcher(&fakeEngine{}, nil, nil, nil)
	if resp := d.Dispatch(context.Background(), nil); resp.Tag != TagUnrecognizedRequest {
		t.Fatalf("tag = %s, want UNRECOGNIZED_REQUEST", resp.Tag)
	}
}
