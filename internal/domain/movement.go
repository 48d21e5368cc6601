package domain

import "time"

// ServiceType represents the kind of movement a request asks for.
type ServiceType string

const (
	ServiceRideshare ServiceType = "rideshare"
	ServiceDelivery  ServiceType = "delivery"
	ServiceCourier   ServiceType = "courier"
	ServiceFreight   ServiceType = "freight"
	ServiceGigWork   ServiceType = "gig_work"
)

// Valid reports whether the service type is one of the known values.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceRideshare, ServiceDelivery, ServiceCourier, ServiceFreight, ServiceGigWork:
		return true
	}
	return false
}

// Priority represents how urgently a request should be fulfilled.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether the priority is one of the known values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MovementRequest describes a movement to be brokered. It is created by the
// caller and read-only to the broker.
type MovementRequest struct {
	ServiceType         ServiceType            `json:"service_type"`
	PickupLocation      Location               `json:"pickup_location"`
	DropoffLocation     Location               `json:"dropoff_location"`
	RequestedPickupTime *time.Time             `json:"requested_pickup_time,omitempty"`
	Priority            Priority               `json:"priority"`
	SpecialRequirements map[string]interface{} `json:"special_requirements,omitempty"`
	ContactInfo         map[string]string      `json:"contact_info,omitempty"`
	PackageDetails      map[string]interface{} `json:"package_details,omitempty"`
}

// MovementResponse carries the ranked quotes returned for one request.
type MovementResponse struct {
	RequestID          string    `json:"request_id"`
	Quotes             []*Quote  `json:"quotes"`
	RecommendedQuoteID string    `json:"recommended_quote_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
