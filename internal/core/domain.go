package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusPlanned    LoadStatus = "Planned"
	StatusInProgress LoadStatus = "In Progress"
	StatusCompleted  LoadStatus = "Completed"
	StatusInvoiced   LoadStatus = "Invoiced"
	StatusCancelled  LoadStatus = "Cancelled"
)

// ProfileID is the fixed primary key of the singleton user profile row.
const ProfileID int64 = 1

type (
	LoadStatus string

	// Load is a single freight shipment. Shipper and consignee reference
	// Company rows; ConsigneeID 0 means no consignee recorded.
	Load struct {
		ID                 int64      `json:"id"`
		LoadNumber         string     `json:"load_number"`
		ShipperID          int64      `json:"shipper_id"`
		ConsigneeID        int64      `json:"consignee_id,omitempty"`
		PickupDate         time.Time  `json:"pickup_date"`
		ActualPickupTime   *time.Time `json:"actual_pickup_time,omitempty"`
		DeliveryDate       time.Time  `json:"delivery_date"`
		ActualDeliveryTime *time.Time `json:"actual_delivery_time,omitempty"`
		FreightRate        Money      `json:"freight_rate_cents"`
		Status             LoadStatus `json:"status"`
		Cancelled          bool       `json:"cancelled"`
	}

	// Company is an address book entry referenced by loads.
	Company struct {
		ID             int64  `json:"id"`
		Name           string `json:"name"`
		AddressLineOne string `json:"address_line_one"`
		AddressLineTwo string `json:"address_line_two,omitempty"`
		City           string `json:"city"`
		State          string `json:"state"`
		ZipCode        string `json:"zip_code"`
		Country        string `json:"country"`
		PhoneNumber    string `json:"phone_number,omitempty"`
	}

	// UserProfile holds the driver and company identity printed on invoice
	// headers. There is exactly one row, keyed by ProfileID.
	UserProfile struct {
		ID                    int64  `json:"id"`
		UserName              string `json:"user_name"`
		UserPhoneNumber       string `json:"user_phone_number,omitempty"`
		UserEmail             string `json:"user_email,omitempty"`
		CompanyName           string `json:"company_name"`
		CompanyAddressLineOne string `json:"company_address_line_one"`
		CompanyAddressLineTwo string `json:"company_address_line_two,omitempty"`
		CompanyCity           string `json:"company_city"`
		CompanyState          string `json:"company_state"`
		CompanyZipCode        string `json:"company_zip_code"`
		CompanyCountry        string `json:"company_country"`
		CompanyPhoneNumber    string `json:"company_phone_number,omitempty"`
	}
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")

	ErrEmptyLoadNumber = fmt.Errorf("%w: load number is required", ErrValidation)
	ErrNoShipper       = fmt.Errorf("%w: shipper is required", ErrValidation)
	ErrNegativeRate    = fmt.Errorf("%w: freight rate cannot be negative", ErrValidation)
	ErrZeroDate        = fmt.Errorf("%w: date is required", ErrValidation)
)

func (l Load) Validate() error {
	if strings.TrimSpace(l.LoadNumber) == "" {
		return ErrEmptyLoadNumber
	}
	if l.ShipperID <= 0 {
		return ErrNoShipper
	}
	if l.FreightRate.Cents < 0 {
		return ErrNegativeRate
	}
	if l.PickupDate.IsZero() || l.DeliveryDate.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// NormalizeDates enforces the delivery-after-pickup invariant. When the
// delivery date precedes the pickup date it is reset to pickup + 24h.
// Returns true when a correction was applied so callers can surface a warning.
func (l *Load) NormalizeDates() bool {
	if l.DeliveryDate.Before(l.PickupDate) {
		l.DeliveryDate = l.PickupDate.Add(24 * time.Hour)
		return true
	}
	return false
}

func (c Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: company name is required", ErrValidation)
	}
	return nil
}

// dayOf truncates a timestamp to its calendar day, for inclusive date-range
// comparisons that ignore the time of day.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// withinDays reports whether t falls in [start, end] inclusive, comparing
// calendar days only.
func withinDays(t, start, end time.Time) bool {
	d := dayOf(t)
	return !d.Before(dayOf(start)) && !d.After(dayOf(end))
}
