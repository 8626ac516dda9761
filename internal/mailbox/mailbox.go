package mailbox

import (
	"context"
	"strings"
)

// Candidate identifies one message found under a vendor's label.
type Candidate struct {
	MessageID string
}

// Attachment is a PDF attachment located in a message.
type Attachment struct {
	Filename     string
	AttachmentID string
}

// Part mirrors the slice of a message's MIME part tree the sync needs:
// filename, attachment id, and one level of children worth walking.
type Part struct {
	Filename     string
	AttachmentID string
	Parts        []Part
}

// Message is a fetched message detail.
type Message struct {
	ID      string
	Payload Part
}

// Source yields candidate invoice documents from an external mailbox. The
// sync pass only ever reads; nothing in the mailbox is mutated.
type Source interface {
	// ListCandidates returns the most recent messages filed under the
	// given label, bounded at the source's page size
	ListCandidates(ctx context.Context, label string) ([]Candidate, error)

	// GetDetail fetches the full message including its part tree
	GetDetail(ctx context.Context, messageID string) (*Message, error)

	// DownloadAttachment fetches the raw bytes of one attachment
	DownloadAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}

// PDFAttachments collects the PDF attachments of a message, looking at the
// payload's direct parts and one nested level of sub-parts. Invoices from
// forwarded or signed mails often sit one level down.
func PDFAttachments(msg *Message) []Attachment {
	var attachments []Attachment

	payload := msg.Payload
	if len(payload.Parts) == 0 {
		if att, ok := pdfAttachment(payload); ok {
			attachments = append(attachments, att)
		}
		return attachments
	}

	for _, part := range payload.Parts {
		if att, ok := pdfAttachment(part); ok {
			attachments = append(attachments, att)
		}
		for _, sub := range part.Parts {
			if att, ok := pdfAttachment(sub); ok {
				attachments = append(attachments, att)
			}
		}
	}

	return attachments
}

func pdfAttachment(part Part) (Attachment, bool) {
	if part.AttachmentID == "" || !strings.HasSuffix(strings.ToLower(part.Filename), ".pdf") {
		return Attachment{}, false
	}
	return Attachment{Filename: part.Filename, AttachmentID: part.AttachmentID}, true
}
