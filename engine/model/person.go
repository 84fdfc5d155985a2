package model

// Person is the canonical customer record. All pipeline and view code
// depends on this shape; the wire format is translated at the client
// boundary so field-name drift in the API never leaks past the adapter.
type Person struct {
	ID                 int
	Slug               string
	Name               string
	Username           string
	Email              string
	Phone              string
	NumberID           string
	RegistrationType   *string
	IsWifi             bool
	IsMobile           bool
	IsRegisteredMobile bool
}

// PersonWire mirrors the /users payload exactly as the API sends it.
type PersonWire struct {
	ID                 int     `json:"id"`
	Slug               string  `json:"slug"`
	Name               string  `json:"name"`
	Username           string  `json:"username"`
	Email              string  `json:"email"`
	NumberID           string  `json:"number_id"`
	WPNumber           string  `json:"wp_number"`
	RegistrationType   *string `json:"registration_type"`
	IsWifi             bool    `json:"is_wifi"`
	IsMobile           bool    `json:"is_mobile"`
	IsRegisteredMobile bool    `json:"is_registered_mobile"`
}

// Canonical converts the wire record into the normalized shape.
func (w PersonWire) Canonical() Person {
	return Person{
		ID:                 w.ID,
		Slug:               w.Slug,
		Name:               w.Name,
		Username:           w.Username,
		Email:              w.Email,
		Phone:              w.WPNumber,
		NumberID:           w.NumberID,
		RegistrationType:   w.RegistrationType,
		IsWifi:             w.IsWifi,
		IsMobile:           w.IsMobile,
		IsRegisteredMobile: w.IsRegisteredMobile,
	}
}

// Wire converts a canonical person back to the API payload shape. The
// demo server uses this when emitting pages.
func (p Person) Wire() PersonWire {
	return PersonWire{
		ID:                 p.ID,
		Slug:               p.Slug,
		Name:               p.Name,
		Username:           p.Username,
		Email:              p.Email,
		NumberID:           p.NumberID,
		WPNumber:           p.Phone,
		RegistrationType:   p.RegistrationType,
		IsWifi:             p.IsWifi,
		IsMobile:           p.IsMobile,
		IsRegisteredMobile: p.IsRegisteredMobile,
	}
}
