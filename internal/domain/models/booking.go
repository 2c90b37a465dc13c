package models

import "time"

// BookingSource identifies the channel a booking came through.
type BookingSource string

const (
	SourceAirbnb  BookingSource = "airbnb"
	SourceBooking BookingSource = "booking"
	SourceCash    BookingSource = "cash"
	SourceOther   BookingSource = "other"
)

// Valid reports whether s is a known source. The empty source is accepted and
// counted as SourceOther by the statistics.
func (s BookingSource) Valid() bool {
	switch s {
	case "", SourceAirbnb, SourceBooking, SourceCash, SourceOther:
		return true
	}
	return false
}

// Normalized maps the empty source to SourceOther.
func (s BookingSource) Normalized() BookingSource {
	if s == "" {
		return SourceOther
	}
	return s
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusActive    BookingStatus = "active"
	StatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	return s == StatusActive || s == StatusCancelled
}

// PartialType tells which half of a month-split stay a record holds.
type PartialType string

const (
	PartialFirst  PartialType = "first"
	PartialSecond PartialType = "second"
)

// Booking is a stay of one client in one apartment. Amount is the daily rate.
type Booking struct {
	ID            string        `bson:"_id" json:"id"`
	ApartmentID   string        `bson:"apartment_id" json:"apartmentId"`
	ClientName    string        `bson:"client_name" json:"clientName"`
	PhoneNumber   string        `bson:"phone_number" json:"phoneNumber"`
	CheckIn       time.Time     `bson:"check_in" json:"checkIn"`
	CheckOut      time.Time     `bson:"check_out" json:"checkOut"`
	Amount        float64       `bson:"amount" json:"amount"`
	BookingSource BookingSource `bson:"booking_source" json:"bookingSource"`
	Status        BookingStatus `bson:"status" json:"status"`
	Year          int           `bson:"year" json:"year"`
	Month         int           `bson:"month" json:"month"`
	IsPartial     bool          `bson:"is_partial" json:"isPartial"`
	PartialType   PartialType   `bson:"partial_type,omitempty" json:"partialType,omitempty"`
	NumberOfDays  int           `bson:"number_of_days" json:"numberOfDays"`
	Receipts      []Receipt     `bson:"receipts" json:"receipts"`
	CreatedAt     time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updated_at" json:"updatedAt"`
}

// Cancelled reports whether the booking was cancelled.
func (b Booking) Cancelled() bool {
	return b.Status == StatusCancelled
}

// In returns b with its stay dates read in loc. Stored datetimes come back as
// UTC instants, while day counts and buckets depend on the booking's calendar.
func (b Booking) In(loc *time.Location) Booking {
	if !b.CheckIn.IsZero() {
		b.CheckIn = b.CheckIn.In(loc)
	}
	if !b.CheckOut.IsZero() {
		b.CheckOut = b.CheckOut.In(loc)
	}
	return b
}

// Bucket returns the year/month the booking is accounted in. Records written
// before the bucket was stored fall back to the check-in month.
func (b Booking) Bucket() (int, int) {
	if b.Year != 0 && b.Month >= 1 && b.Month <= 12 {
		return b.Year, b.Month
	}
	return b.CheckIn.Year(), int(b.CheckIn.Month())
}

// Validate checks the fields every stored booking must carry.
func (b Booking) Validate() error {
	switch {
	case b.ApartmentID == "":
		return &ErrValidation{Field: "apartmentId", Message: "must not be empty"}
	case b.ClientName == "":
		return &ErrValidation{Field: "clientName", Message: "must not be empty"}
	case b.CheckIn.IsZero():
		return &ErrValidation{Field: "checkIn", Message: "must be set"}
	case b.CheckOut.IsZero():
		return &ErrValidation{Field: "checkOut", Message: "must be set"}
	case b.CheckOut.Before(b.CheckIn):
		return &ErrValidation{Field: "checkOut", Message: "must be after checkIn"}
	case b.CheckOut.Equal(b.CheckIn) && b.PartialType != PartialSecond:
		// The second half of a stay checking out on the 1st holds no night.
		return &ErrValidation{Field: "checkOut", Message: "must be after checkIn"}
	case b.Amount < 0:
		return &ErrValidation{Field: "amount", Message: "must not be negative"}
	case !b.BookingSource.Valid():
		return &ErrValidation{Field: "bookingSource", Message: "unknown source " + string(b.BookingSource)}
	case b.Status != "" && !b.Status.Valid():
		return &ErrValidation{Field: "status", Message: "unknown status " + string(b.Status)}
	}
	return nil
}

// BookingPatch carries a partial booking update. Nil fields are left untouched.
type BookingPatch struct {
	ApartmentID   *string        `json:"apartmentId,omitempty"`
	ClientName    *string        `json:"clientName,omitempty"`
	PhoneNumber   *string        `json:"phoneNumber,omitempty"`
	CheckIn       *time.Time     `json:"checkIn,omitempty"`
	CheckOut      *time.Time     `json:"checkOut,omitempty"`
	Amount        *float64       `json:"amount,omitempty"`
	BookingSource *BookingSource `json:"bookingSource,omitempty"`
	Status        *BookingStatus `json:"status,omitempty"`
}

// Apply returns a copy of b with the patch applied.
func (p BookingPatch) Apply(b Booking) Booking {
	if p.ApartmentID != nil {
		b.ApartmentID = *p.ApartmentID
	}
	if p.ClientName != nil {
		b.ClientName = *p.ClientName
	}
	if p.PhoneNumber != nil {
		b.PhoneNumber = *p.PhoneNumber
	}
	if p.CheckIn != nil {
		b.CheckIn = *p.CheckIn
	}
	if p.CheckOut != nil {
		b.CheckOut = *p.CheckOut
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.BookingSource != nil {
		b.BookingSource = *p.BookingSource
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	return b
}

// TouchesDates reports whether the patch changes the stay itself.
func (p BookingPatch) TouchesDates() bool {
	return p.CheckIn != nil || p.CheckOut != nil
}

// Receipt is proof of payment attached to a booking.
type Receipt struct {
	ID         string    `bson:"id" json:"id"`
	BookingID  string    `bson:"booking_id" json:"bookingId"`
	ImageURL   string    `bson:"image_url" json:"imageUrl"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploadedAt"`
	Amount     float64   `bson:"amount" json:"amount"`
	Note       string    `bson:"note,omitempty" json:"note,omitempty"`
}

// Validate checks a receipt before it is attached.
func (r Receipt) Validate() error {
	if r.ImageURL == "" {
		return &ErrValidation{Field: "imageUrl", Message: "must not be empty"}
	}
	if r.Amount < 0 {
		return &ErrValidation{Field: "amount", Message: "must not be negative"}
	}
	return nil
}
