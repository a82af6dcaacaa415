package extractor

// InvoiceFields is the structured result of a field extraction. Every field
// is nullable and always present in serialized form, so consumers can rely on
// the keys existing.
type InvoiceFields struct {
	Amount        *float64 `json:"amount"`
	Date          *string  `json:"date"`
	Vendor        *string  `json:"vendor"`
	InvoiceNumber *string  `json:"invoice_number"`
	Description   *string  `json:"description"`
	TaxAmount     *float64 `json:"tax_amount"`
	Currency      *string  `json:"currency"`
}
