package ports

// Intake defines the interface for mail intakes feeding the relay
type Intake interface {
	// Start starts accepting mail in the background
	Start() error

	// Stop stops accepting mail
	Stop() error
}
