package models

// Traveler holds the identity details collected for one passenger
type Traveler struct {
	ID          string             `json:"id"`
	FirstName   string             `json:"firstName"`
	LastName    string             `json:"lastName"`
	DateOfBirth string             `json:"dateOfBirth"` // YYYY-MM-DD
	Gender      string             `json:"gender"`      // MALE, FEMALE, OTHER
	Passport    string             `json:"passport"`
	Email       string             `json:"email"`
	Mobile      string             `json:"mobile"`
	Contact     TravelerContact    `json:"contact"`
	Documents   []TravelerDocument `json:"documents"`
}

// TravelerContact is the contact block sent to the booking supplier
type TravelerContact struct {
	EmailAddress string          `json:"emailAddress"`
	Phones       []TravelerPhone `json:"phones"`
}

// TravelerPhone is one phone entry in supplier format
type TravelerPhone struct {
	DeviceType         string `json:"deviceType"`
	CountryCallingCode string `json:"countryCallingCode"`
	Number             string `json:"number"`
}

// TravelerDocument is an identity document in supplier format
type TravelerDocument struct {
	DocumentType    string `json:"documentType"`
	Number          string `json:"number"`
	ExpiryDate      string `json:"expiryDate"`
	IssuanceCountry string `json:"issuanceCountry"`
	Nationality     string `json:"nationality"`
	Holder          bool   `json:"holder"`
}

// FullName joins first and last name for display and persistence
func (t *Traveler) FullName() string {
	if t.LastName == "" {
		return t.FirstName
	}
	return t.FirstName + " " + t.LastName
}
