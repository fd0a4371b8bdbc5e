package dispatch

// Response is the single reply a Dispatch call produces. Tag is one
// of the closed set below; Detail carries a short machine-readable
// qualifier (a denial reason, a role, a timestamp) and Data carries
// the payload object where the operation returns one.
type Response struct {
	Tag    string `json:"tag"`
	Detail string `json:"detail,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Response tags. The set is closed: clients switch on these values
// and nothing else.
const (
	TagLoginSuccess           = "LOGIN_SUCCESS"
	TagLoginFailure           = "LOGIN_FAILURE"
	TagManagementLoginSuccess = "LOGIN_MANAGEMENT_SUCCESS"
	TagManagementLoginFailure = "LOGIN_MANAGEMENT_FAILURE"

	TagReservationCreated      = "RESERVATION_CREATED"
	TagReservationFailed       = "RESERVATION_FAILED"
	TagReservationAlreadyExist = "RESERVATION_ALREADY_EXIST"

	TagActivationSuccess = "ACTIVATION_SUCCESS"
	TagArriveEarly       = "ARRIVE_EARLY"
	TagNotFound          = "NOT_FOUND"

	TagDropoffSuccess   = "DROPOFF_SUCCESS"
	TagNoSpotsAvailable = "NO_SPOTS_AVAILABLE"
	TagCarAlreadyParked = "CAR_ALREADY_PARKED"

	TagPickupSuccess = "PICKUP_SUCCESS"
	TagPickupFailure = "PICKUP_FAILURE"
	TagVehicleTowed  = "SENT_TOWED_VEHICLE_MSG"

	TagExtendSuccess     = "EXTEND_SUCCESS"
	TagExtendAlreadyDone = "EXTEND_ALREADY_DONE"
	TagExtendNoActive    = "EXTEND_FAILED_NO_ACTIVE"

	TagCancelSuccess = "CANCEL_SUCCESS"
	TagCancelFailed  = "CANCEL_FAILED"

	TagSiteActivity = "SITE_ACTIVITY"
	TagReportReady  = "REPORT_READY"

	TagRegisterSuccess = "REGISTER_SUCCESS"
	TagRegisterFailed  = "REGISTER_FAILED"
	TagUpdateSuccess   = "UPDATE_SUCCESS"
	TagUpdateFailed    = "UPDATE_FAILED"
	TagSubscriberFound = "SUBSCRIBER_FOUND"
	TagHistory         = "PARKING_HISTORY"

	TagServerError         = "SERVER_ERROR"
	TagUnrecognizedRequest = "UNRECOGNIZED_REQUEST"
)

// Denial reasons carried in Detail alongside TagReservationFailed.
const (
	ReasonCapacityExceeded = "CAPACITY_EXCEEDED"
	ReasonNoSpots          = "NO_SPOTS_AVAILABLE"
	ReasonPastWindow       = "PAST_WINDOW"
)
