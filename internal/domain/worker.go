package domain

// Vehicle describes the vehicle a worker operates, if any.
type Vehicle struct {
	Type         string  `json:"type"` // car, bike, scooter, truck, van, walking
	CapacityKg   float64 `json:"capacity_kg,omitempty"`
	LicensePlate string  `json:"license_plate,omitempty"`
	Make         string  `json:"make,omitempty"`
	Model        string  `json:"model,omitempty"`
}

// Worker is a provider-owned snapshot of a person or courier that can fulfil
// jobs. The broker only reads these; the owning provider is the source of truth.
type Worker struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone,omitempty"`
	Rating           *float64  `json:"rating,omitempty"` // 0..5
	Vehicle          *Vehicle  `json:"vehicle,omitempty"`
	CurrentLocation  *Location `json:"current_location,omitempty"`
	IsAvailable      bool      `json:"is_available"`
	ProviderID       string    `json:"provider_id"`
	ProviderWorkerID string    `json:"provider_worker_id"`
}
