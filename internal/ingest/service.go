package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tmlerp/invoice-sync/internal/extract"
	"github.com/tmlerp/invoice-sync/internal/ledger"
	"github.com/tmlerp/invoice-sync/internal/mailbox"
)

// IDGenerator generates unique IDs for ledger entries
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// TextExtractor pulls the text layer out of a PDF
type TextExtractor interface {
	Text(data []byte) (string, error)
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// fitzExtractor reads PDF text through go-fitz
type fitzExtractor struct{}

func (fitzExtractor) Text(data []byte) (string, error) {
	return extract.TextFromPDF(data)
}

// Service runs the invoice ingestion pipeline: it walks the vendor
// bindings, pulls candidate messages from the mailbox, extracts invoice
// fields from the first PDF attachment, and appends ledger entries.
type Service struct {
	source      mailbox.Source
	db          ledger.DB
	storage     ledger.Storage
	pdfText     TextExtractor
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator, time source
// and PDF text extraction
func NewService(source mailbox.Source, db ledger.DB, storage ledger.Storage) *Service {
	return NewServiceWithDeps(source, db, storage, fitzExtractor{}, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(source mailbox.Source, db ledger.DB, storage ledger.Storage, pdfText TextExtractor, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		source:      source,
		db:          db,
		storage:     storage,
		pdfText:     pdfText,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Sync runs one ingestion pass and returns the number of ledger entries it
// created. Vendor bindings are independent: a failure under one label is
// logged and never aborts the others. Re-running with no new messages
// creates nothing, since every synced entry is keyed by its message id.
func (s *Service) Sync(ctx context.Context) (int, error) {
	vendors, err := s.db.ListActiveVendorsWithLabel()
	if err != nil {
		return 0, fmt.Errorf("listing vendor bindings: %w", err)
	}

	created := 0
	for _, vendor := range vendors {
		created += s.syncVendor(ctx, vendor)
	}

	slog.Info("sync pass finished", "vendors", len(vendors), "created", created)
	return created, nil
}

// syncVendor processes every candidate message under one vendor's label.
func (s *Service) syncVendor(ctx context.Context, vendor *ledger.Vendor) int {
	candidates, err := s.source.ListCandidates(ctx, vendor.GmailLabel)
	if err != nil {
		slog.Warn("Failed to list messages", "vendor", vendor.Name, "label", vendor.GmailLabel, "error", err)
		return 0
	}

	created := 0
	for _, candidate := range candidates {
		if s.processMessage(ctx, vendor, candidate.MessageID) {
			created++
		}
	}
	return created
}

// processMessage turns one message into at most one ledger entry. Every
// skip condition is per-message: it never aborts siblings.
func (s *Service) processMessage(ctx context.Context, vendor *ledger.Vendor, messageID string) bool {
	exists, err := s.db.ExistsBySourceMessageID(messageID)
	if err != nil {
		slog.Warn("Failed to check for existing entry", "message_id", messageID, "error", err)
		return false
	}
	if exists {
		return false
	}

	msg, err := s.source.GetDetail(ctx, messageID)
	if err != nil {
		slog.Warn("Failed to fetch message", "message_id", messageID, "error", err)
		return false
	}

	attachments := mailbox.PDFAttachments(msg)
	if len(attachments) == 0 {
		return false
	}

	// One invoice per message is assumed; only the first PDF is processed.
	attachment := attachments[0]

	data, err := s.source.DownloadAttachment(ctx, messageID, attachment.AttachmentID)
	if err != nil {
		slog.Warn("Failed to download attachment", "message_id", messageID, "filename", attachment.Filename, "error", err)
		return false
	}

	now := s.timeSource.Now()
	savedName := fmt.Sprintf("%s_%s", now.Format("20060102_150405"), sanitizeFilename(attachment.Filename))
	savedPath, err := s.storage.Save(savedName, data)
	if err != nil {
		slog.Warn("Failed to save attachment", "message_id", messageID, "filename", attachment.Filename, "error", err)
		return false
	}

	text, err := s.pdfText.Text(data)
	if err != nil {
		slog.Warn("Failed to extract PDF text", "message_id", messageID, "filename", attachment.Filename, "error", err)
		s.discardArchive(savedPath, messageID)
		return false
	}

	invoice := extract.Extract(text, attachment.Filename)
	if invoice == nil {
		slog.Info("No usable invoice data", "message_id", messageID, "filename", attachment.Filename)
		s.discardArchive(savedPath, messageID)
		return false
	}

	invoiceNumber := repairInvoiceNumber(invoice.InvoiceNumber, attachment.Filename)

	date := now
	if invoice.HasDate {
		date = invoice.Date
	}

	entry := &ledger.Entry{
		ID:              s.idGenerator.Generate(),
		Type:            vendor.Type,
		Amount:          invoice.Amount,
		Date:            date,
		InvoiceNumber:   invoiceNumber,
		Title:           invoice.Title,
		PDFPath:         savedPath,
		Year:            date.Year(),
		Origin:          ledger.OriginGmail,
		SourceMessageID: messageID,
		CreatedAt:       now,
	}
	// Synced income entries are not vendor-linked.
	if vendor.Type == ledger.Expense {
		entry.VendorID = vendor.ID
	}

	if err := s.db.SaveEntry(entry); err != nil {
		slog.Warn("Failed to save entry", "message_id", messageID, "error", err)
		s.discardArchive(savedPath, messageID)
		return false
	}

	slog.Info("Imported invoice", "vendor", vendor.Name, "message_id", messageID, "amount", entry.Amount, "invoice_number", entry.InvoiceNumber)
	return true
}

// discardArchive removes a PDF that was archived before its message turned
// out to produce no entry, so the upload root only holds booked invoices.
func (s *Service) discardArchive(path, messageID string) {
	if err := s.storage.Delete(path); err != nil {
		slog.Warn("Failed to remove archived attachment", "message_id", messageID, "path", path, "error", err)
	}
}

var (
	filenameSpecials = regexp.MustCompile(`[^a-zA-Z0-9\s\-_.]`)
	filenameSpaces   = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up an attachment filename before it is stored
// under the upload root. Underscore segments survive untouched, since the
// repair pass mines them later.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	base = filenameSpecials.ReplaceAllString(base, "")
	base = filenameSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "invoice"
	}

	return base + ext
}
