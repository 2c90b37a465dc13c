package models

import "time"

// Expense is an operating cost accounted in a year/month bucket.
type Expense struct {
	ID           string    `bson:"_id" json:"id"`
	Description  string    `bson:"description" json:"description"`
	Amount       float64   `bson:"amount" json:"amount"`
	Date         time.Time `bson:"date" json:"date"`
	Year         int       `bson:"year" json:"year"`
	Month        int       `bson:"month" json:"month"`
	ReceiptImage string    `bson:"receipt_image,omitempty" json:"receiptImage,omitempty"`
	ReceiptURL   string    `bson:"receipt_url,omitempty" json:"receiptUrl,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// In returns e with its date read in loc.
func (e Expense) In(loc *time.Location) Expense {
	if !e.Date.IsZero() {
		e.Date = e.Date.In(loc)
	}
	return e
}

// Bucket returns the year/month the expense is accounted in, derived from Date
// when the stored bucket is missing.
func (e Expense) Bucket() (int, int) {
	if e.Year != 0 && e.Month >= 1 && e.Month <= 12 {
		return e.Year, e.Month
	}
	return e.Date.Year(), int(e.Date.Month())
}

// Validate checks the fields every stored expense must carry.
func (e Expense) Validate() error {
	switch {
	case e.Description == "":
		return &ErrValidation{Field: "description", Message: "must not be empty"}
	case e.Amount < 0:
		return &ErrValidation{Field: "amount", Message: "must not be negative"}
	case e.Date.IsZero():
		return &ErrValidation{Field: "date", Message: "must be set"}
	}
	return nil
}

// ExpensePatch carries a partial expense update.
type ExpensePatch struct {
	Description  *string    `json:"description,omitempty"`
	Amount       *float64   `json:"amount,omitempty"`
	Date         *time.Time `json:"date,omitempty"`
	ReceiptImage *string    `json:"receiptImage,omitempty"`
	ReceiptURL   *string    `json:"receiptUrl,omitempty"`
}

// Apply returns a copy of e with the patch applied. A new date moves the
// expense into the matching bucket.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
		e.Year, e.Month = e.Date.Year(), int(e.Date.Month())
	}
	if p.ReceiptImage != nil {
		e.ReceiptImage = *p.ReceiptImage
	}
	if p.ReceiptURL != nil {
		e.ReceiptURL = *p.ReceiptURL
	}
	return e
}
