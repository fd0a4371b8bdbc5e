package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/deanbaranes/bpark-server/internal/engine"
	"github.com/deanbaranes/bpark-server/internal/model"
	"github.com/deanbaranes/bpark-server/internal/repository"
	"github.com/deanbaranes/bpark-server/internal/utils"
)

// Subscription codes are longer than gate access codes; they are a
// standing credential, not a one-visit token.
const subscriptionCodeLength = 8

// AllocationEngine is the slice of the engine the dispatcher drives.
type AllocationEngine interface {
	RequestImmediateSpot(ctx context.Context, subscriberID uint64) (*model.ActiveParking, error)
	RequestReservation(ctx context.Context, subscriberID uint64, start time.Time) (*model.Reservation, error)
	ActivateReservation(ctx context.Context, code string) (*model.ActiveParking, error)
	ExtendActiveParking(ctx context.Context, subscriberID uint64) (time.Time, error)
	CancelReservation(ctx context.Context, subscriberID, id uint64) (bool, error)
	Pickup(ctx context.Context, code string) (*model.ParkingHistory, error)
	FreeSpots(ctx context.Context) ([]int, error)
}

// SubscriberDirectory covers the subscriber reads and writes the
// dispatcher performs directly, outside the engine.
type SubscriberDirectory interface {
	GetByID(ctx context.Context, id uint64) (*model.Subscriber, error)
	GetByIDAndCode(ctx context.Context, id uint64, code string) (*model.Subscriber, error)
	Create(ctx context.Context, s *model.Subscriber) error
	UpdateContact(ctx context.Context, id uint64, email, phone string) error
}

// AccountDirectory resolves staff credentials.
type AccountDirectory interface {
	GetByUsername(ctx context.Context, username string) (*model.ManagementAccount, error)
}

// ReservationLister and SessionLister feed the site-activity view.
type ReservationLister interface {
	ListFuture(ctx context.Context, now time.Time) ([]model.Reservation, error)
}

type SessionLister interface {
	ListActive(ctx context.Context) ([]model.ActiveParking, error)
}

// HistoryLister feeds the subscriber history view.
type HistoryLister interface {
	ListBySubscriber(ctx context.Context, subscriberID uint64) ([]model.ParkingHistory, error)
}

// ReportSource computes reports live when no stored snapshot exists.
type ReportSource interface {
	Duration(ctx context.Context, year int, month time.Month) ([]model.DurationReportRow, error)
	Status(ctx context.Context, year int, month time.Month) ([]model.StatusReportRow, error)
}

// ReportSnapshots reads the report payloads the scheduler persisted.
type ReportSnapshots interface {
	Get(ctx context.Context, year int, month time.Month, kind string) ([]byte, error)
}

// Deps bundles everything a Dispatcher needs. All fields are
// required.
type Deps struct {
	Engine       AllocationEngine
	Subscribers  SubscriberDirectory
	Accounts     AccountDirectory
	Reservations ReservationLister
	Sessions     SessionLister
	History      HistoryLister
	Reports      ReportSource
	Snapshots    ReportSnapshots
}

// Dispatcher maps requests to operations. It holds no mutable state
// of its own; every request is independent and safe to run
// concurrently with any other.
type Dispatcher struct {
	d   Deps
	now func() time.Time
}

// New constructs a Dispatcher over the given dependencies.
func New(d Deps) *Dispatcher {
	if d.Engine == nil || d.Subscribers == nil || d.Accounts == nil ||
		d.Reservations == nil || d.Sessions == nil || d.History == nil ||
		d.Reports == nil || d.Snapshots == nil {
		panic("nil dependency passed to dispatch.New")
	}
	return &Dispatcher{d: d, now: func() time.Time { return time.Now().UTC() }}
}

// SetClock replaces the dispatcher's wall clock. Tests only.
func (dp *Dispatcher) SetClock(now func() time.Time) { dp.now = now }

// Dispatch runs one request and returns its response. Expected
// denials map to their protocol tags; infrastructure failures are
// logged and collapse to SERVER_ERROR. An unknown request type is a
// contract violation, answered with UNRECOGNIZED_REQUEST.
func (dp *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	switch r := req.(type) {
	case Login:
		return dp.login(ctx, r)
	case ManagementLogin:
		return dp.managementLogin(ctx, r)
	case NewReservation:
		return dp.newReservation(ctx, r)
	case ActivateReservation:
		return dp.activateReservation(ctx, r)
	case ImmediateDropoff:
		return dp.immediateDropoff(ctx, r)
	case Pickup:
		return dp.pickup(ctx, r)
	case Extend:
		return dp.extend(ctx, r)
	case CancelReservation:
		return dp.cancelReservation(ctx, r)
	case GetSiteActivity:
		return dp.siteActivity(ctx)
	case ParkingDurationReport:
		return dp.durationReport(ctx, r.Year, r.Month)
	case MemberStatusReport:
		return dp.statusReport(ctx, r.Year, r.Month)
	case RegisterSubscriber:
		return dp.register(ctx, r)
	case UpdateContactInfo:
		return dp.updateContact(ctx, r)
	case GetSubscriber:
		return dp.getSubscriber(ctx, r)
	case GetParkingHistory:
		return dp.parkingHistory(ctx, r)
	default:
		return Response{Tag: TagUnrecognizedRequest}
	}
}

// serverError logs an infrastructure failure and returns the generic
// server-error response. The error never reaches the client.
func serverError(op string, err error) Response {
	log.Printf("dispatch: %s: %v", op, err)
	return Response{Tag: TagServerError}
}

func (dp *Dispatcher) login(ctx context.Context, r Login) Response {
	sub, err := dp.d.Subscribers.GetByIDAndCode(ctx, r.SubscriberID, r.Code)
	if errors.Is(err, repository.ErrNotFound) {
		return Response{Tag: TagLoginFailure}
	}
	if err != nil {
		return serverError("login", err)
	}
	resp := Response{Tag: TagLoginSuccess}
	if r.Source == "app" {
		v := subscriberView(sub)
		resp.Data = v
	}
	return resp
}

func (dp *Dispatcher) managementLogin(ctx context.Context, r ManagementLogin) Response {
	acct, err := dp.d.Accounts.GetByUsername(ctx, r.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return Response{Tag: TagManagementLoginFailure}
	}
	if err != nil {
		return serverError("management login", err)
	}
	if !utils.VerifyPassword(acct.PasswordHash, r.Password) {
		return Response{Tag: TagManagementLoginFailure}
	}
	return Response{Tag: TagManagementLoginSuccess, Detail: acct.Role}
}

func (dp *Dispatcher) newReservation(ctx context.Context, r NewReservation) Response {
	res, err := dp.d.Engine.RequestReservation(ctx, r.SubscriberID, r.StartsAt)
	switch {
	case err == nil:
		return Response{Tag: TagReservationCreated, Data: reservationView(res)}
	case errors.Is(err, engine.ErrDuplicateReservation):
		return Response{Tag: TagReservationAlreadyExist}
	case errors.Is(err, engine.ErrCapacityExceeded):
		return Response{Tag: TagReservationFailed, Detail: ReasonCapacityExceeded}
	case errors.Is(err, engine.ErrNoSpots):
		return Response{Tag: TagReservationFailed, Detail: ReasonNoSpots}
	case errors.Is(err, engine.ErrPastWindow):
		return Response{Tag: TagReservationFailed, Detail: ReasonPastWindow}
	default:
		return serverError("new reservation", err)
	}
}

func (dp *Dispatcher) activateReservation(ctx context.Context, r ActivateReservation) Response {
	ap, err := dp.d.Engine.ActivateReservation(ctx, r.Code)
	switch {
	case err == nil:
		return Response{Tag: TagActivationSuccess, Data: sessionView(ap)}
	case errors.Is(err, engine.ErrArriveEarly):
		return Response{Tag: TagArriveEarly}
	case errors.Is(err, engine.ErrAlreadyParked):
		return Response{Tag: TagCarAlreadyParked}
	case errors.Is(err, repository.ErrNotFound):
		return Response{Tag: TagNotFound}
	default:
		return serverError("activate reservation", err)
	}
}

func (dp *Dispatcher) immediateDropoff(ctx context.Context, r ImmediateDropoff) Response {
	ap, err := dp.d.Engine.RequestImmediateSpot(ctx, r.SubscriberID)
	switch {
	case err == nil:
		return Response{Tag: TagDropoffSuccess, Data: sessionView(ap)}
	case errors.Is(err, engine.ErrNoSpots):
		return Response{Tag: TagNoSpotsAvailable}
	case errors.Is(err, engine.ErrAlreadyParked):
		return Response{Tag: TagCarAlreadyParked}
	default:
		return serverError("immediate dropoff", err)
	}
}

func (dp *Dispatcher) pickup(ctx context.Context, r Pickup) Response {
	h, err := dp.d.Engine.Pickup(ctx, r.Code)
	switch {
	case err == nil:
		return Response{Tag: TagPickupSuccess, Data: historyView(h)}
	case errors.Is(err, engine.ErrVehicleTowed):
		return Response{Tag: TagVehicleTowed}
	case errors.Is(err, repository.ErrNotFound):
		return Response{Tag: TagPickupFailure}
	default:
		return serverError("pickup", err)
	}
}

func (dp *Dispatcher) extend(ctx context.Context, r Extend) Response {
	newExit, err := dp.d.Engine.ExtendActiveParking(ctx, r.SubscriberID)
	switch {
	case err == nil:
		return Response{Tag: TagExtendSuccess, Detail: newExit.Format(time.RFC3339)}
	case errors.Is(err, engine.ErrAlreadyExtended):
		return Response{Tag: TagExtendAlreadyDone}
	case errors.Is(err, repository.ErrNotFound):
		return Response{Tag: TagExtendNoActive}
	default:
		return serverError("extend", err)
	}
}

func (dp *Dispatcher) cancelReservation(ctx context.Context, r CancelReservation) Response {
	deleted, err := dp.d.Engine.CancelReservation(ctx, r.SubscriberID, r.ReservationID)
	if err != nil {
		return serverError("cancel reservation", err)
	}
	if !deleted {
		return Response{Tag: TagCancelFailed}
	}
	return Response{Tag: TagCancelSuccess}
}

func (dp *Dispatcher) siteActivity(ctx context.Context) Response {
	reservations, err := dp.d.Reservations.ListFuture(ctx, dp.now())
	if err != nil {
		return serverError("site activity: reservations", err)
	}
	actives, err := dp.d.Sessions.ListActive(ctx)
	if err != nil {
		return serverError("site activity: sessions", err)
	}
	free, err := dp.d.Engine.FreeSpots(ctx)
	if err != nil {
		return serverError("site activity: free spots", err)
	}
	view := SiteActivityView{
		Reservations:   make([]ReservationView, 0, len(reservations)),
		ActiveParkings: make([]SessionView, 0, len(actives)),
		FreeSpots:      free,
	}
	for i := range reservations {
		view.Reservations = append(view.Reservations, reservationView(&reservations[i]))
	}
	for i := range actives {
		view.ActiveParkings = append(view.ActiveParkings, sessionView(&actives[i]))
	}
	return Response{Tag: TagSiteActivity, Data: view}
}

// durationReport serves the stored snapshot when the scheduler has
// generated one, and computes the report live otherwise (the current
// month, or a backfill request).
func (dp *Dispatcher) durationReport(ctx context.Context, year int, month time.Month) Response {
	payload, err := dp.d.Snapshots.Get(ctx, year, month, repository.ReportKindDuration)
	if err == nil {
		var rows []model.DurationReportRow
		if err := json.Unmarshal(payload, &rows); err != nil {
			return serverError("duration report: decode snapshot", err)
		}
		return Response{Tag: TagReportReady, Data: rows}
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return serverError("duration report: snapshot", err)
	}
	rows, err := dp.d.Reports.Duration(ctx, year, month)
	if err != nil {
		return serverError("duration report", err)
	}
	return Response{Tag: TagReportReady, Data: rows}
}

func (dp *Dispatcher) statusReport(ctx context.Context, year int, month time.Month) Response {
	payload, err := dp.d.Snapshots.Get(ctx, year, month, repository.ReportKindStatus)
	if err == nil {
		var rows []model.StatusReportRow
		if err := json.Unmarshal(payload, &rows); err != nil {
			return serverError("status report: decode snapshot", err)
		}
		return Response{Tag: TagReportReady, Data: rows}
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return serverError("status report: snapshot", err)
	}
	rows, err := dp.d.Reports.Status(ctx, year, month)
	if err != nil {
		return serverError("status report", err)
	}
	return Response{Tag: TagReportReady, Data: rows}
}

func (dp *Dispatcher) register(ctx context.Context, r RegisterSubscriber) Response {
	code, err := utils.GenerateCode(subscriptionCodeLength)
	if err != nil {
		return serverError("register: code generation", err)
	}
	sub := &model.Subscriber{
		FullName:         r.FullName,
		Email:            r.Email,
		Phone:            r.Phone,
		VehicleID:        r.VehicleID,
		SubscriptionCode: code,
		CreditCardRef:    r.CreditCardRef,
	}
	if err := dp.d.Subscribers.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return Response{Tag: TagRegisterFailed, Detail: "already registered"}
		}
		return serverError("register", err)
	}
	return Response{Tag: TagRegisterSuccess, Data: RegistrationView{ID: sub.ID, SubscriptionCode: code}}
}

func (dp *Dispatcher) updateContact(ctx context.Context, r UpdateContactInfo) Response {
	err := dp.d.Subscribers.UpdateContact(ctx, r.SubscriberID, r.Email, r.Phone)
	if errors.Is(err, repository.ErrNotFound) {
		return Response{Tag: TagUpdateFailed}
	}
	if err != nil {
		return serverError("update contact", err)
	}
	return Response{Tag: TagUpdateSuccess}
}

func (dp *Dispatcher) getSubscriber(ctx context.Context, r GetSubscriber) Response {
	sub, err := dp.d.Subscribers.GetByID(ctx, r.SubscriberID)
	if errors.Is(err, repository.ErrNotFound) {
		return Response{Tag: TagNotFound}
	}
	if err != nil {
		return serverError("get subscriber", err)
	}
	return Response{Tag: TagSubscriberFound, Data: subscriberView(sub)}
}

func (dp *Dispatcher) parkingHistory(ctx context.Context, r GetParkingHistory) Response {
	records, err := dp.d.History.ListBySubscriber(ctx, r.SubscriberID)
	if err != nil {
		return serverError("parking history", err)
	}
	views := make([]HistoryView, 0, len(records))
	for i := range records {
		views = append(views, historyView(&records[i]))
	}
	return Response{Tag: TagHistory, Data: views}
}
