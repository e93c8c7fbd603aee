package domain

// MusicianStatus is the account standing kept by the user directory
type MusicianStatus string

const (
	MusicianStatusActive    MusicianStatus = "active"
	MusicianStatusPending   MusicianStatus = "pending"
	MusicianStatusSuspended MusicianStatus = "suspended"
	MusicianStatusInactive  MusicianStatus = "inactive"
)

// Musician is the engine's read-only view of a musician account
type Musician struct {
	ID          string
	Name        string
	Instruments []string
	Status      MusicianStatus
}

// IsActive reports whether the musician may take bookings
func (m *Musician) IsActive() bool {
	return m.Status == MusicianStatusActive
}
