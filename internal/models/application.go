package models

// Reference is a character reference supplied with an application. Contact
// details stay in the intake record and are never copied onto the volunteer.
type Reference struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// AvailabilitySlot is one recurring weekly window the applicant can serve.
type AvailabilitySlot struct {
	Day   string `json:"day"`
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`   // HH:MM
}

// Application is the intake payload for a prospective volunteer.
type Application struct {
	Age                int                `json:"age"`
	Motivation         string             `json:"motivation"`
	Availability       []AvailabilitySlot `json:"availability"`
	References         []Reference        `json:"references"`
	Specializations    []string           `json:"specializations,omitempty"`
	Languages          []string           `json:"languages,omitempty"`
	EmergencyResponder bool               `json:"emergencyResponder,omitempty"`
}

// ApplicationReceipt is returned to the applicant on successful intake.
type ApplicationReceipt struct {
	VolunteerID            string   `json:"volunteerId"`
	Status                 Status   `json:"status"`
	RequiredModules        []string `json:"requiredModules"`
	EstimatedTrainingHours float64  `json:"estimatedTrainingHours"`
}
