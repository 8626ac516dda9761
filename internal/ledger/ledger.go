package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry as money coming in or going out.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Entry origins. Synced entries carry the message identifier they came from
// so a later pass can recognize them.
const (
	OriginGmail  = "gmail"
	OriginManual = "manual"
)

// Vendor is a counterparty. A vendor with a non-empty GmailLabel is a
// vendor binding: the sync pass pulls invoice mails filed under that label
// and books them with the vendor's transaction type.
type Vendor struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	GmailLabel string          `json:"gmail_label,omitempty"`
	Type       TransactionType `json:"type"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Entry is a single financial record with its provenance.
type Entry struct {
	ID              string          `json:"id"`
	Type            TransactionType `json:"type"`
	VendorID        string          `json:"vendor_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Date            time.Time       `json:"date"`
	InvoiceNumber   string          `json:"invoice_number,omitempty"`
	Title           string          `json:"title"`
	PDFPath         string          `json:"pdf_path,omitempty"`
	Year            int             `json:"year"`
	Origin          string          `json:"origin"`
	SourceMessageID string          `json:"source_message_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
