package model

import "time"

// Subscriber represents a registered parking subscriber as stored in
// the `subscribers` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs are
// primarily used internally by the repository layer; handlers define
// separate response types with appropriate JSON tags.
//
// Fields:
//  ID               – primary key identifier of the subscriber.
//  FullName         – display name.
//  Email            – contact email address.
//  Phone            – contact phone number.
//  VehicleID        – primary vehicle identifier (licence plate).
//  SubscriptionCode – access code used to log in from the app or kiosk.
//  CreditCardRef    – opaque reference to the billing instrument.
//  LateCount        – rolling count of late pickups (towed sessions).
//  CreatedAt        – timestamp of registration.
type Subscriber struct {
	ID               uint64    // subscribers.id
	FullName         string    // subscribers.full_name
	Email            string    // subscribers.email
	Phone            string    // subscribers.phone
	VehicleID        string    // subscribers.vehicle_id
	SubscriptionCode string    // subscribers.subscription_code
	CreditCardRef    string    // subscribers.credit_card_ref
	LateCount        int       // subscribers.late_count
	CreatedAt        time.Time // subscribers.created_at
}
