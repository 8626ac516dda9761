package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	entryBucketName   = "entries"
	messageBucketName = "entries_by_message"
	vendorBucketName  = "vendors"
)

// DB defines the interface for ledger persistence
type DB interface {
	// SaveEntry appends a ledger entry. It refuses a duplicate source
	// message id so overlapping sync passes cannot double-book an invoice.
	SaveEntry(entry *Entry) error

	// GetEntry retrieves an entry by ID
	GetEntry(id string) (*Entry, error)

	// ListEntries returns all entries
	ListEntries() ([]*Entry, error)

	// ExistsBySourceMessageID reports whether an entry was already created
	// from the given external message
	ExistsBySourceMessageID(messageID string) (bool, error)

	// SaveVendor saves a vendor
	SaveVendor(vendor *Vendor) error

	// GetVendor retrieves a vendor by ID
	GetVendor(id string) (*Vendor, error)

	// ListVendors returns all vendors
	ListVendors() ([]*Vendor, error)

	// ListActiveVendorsWithLabel returns the active vendor bindings, i.e.
	// active vendors that declare a non-empty mailbox label
	ListActiveVendorsWithLabel() ([]*Vendor, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{entryBucketName, messageBucketName, vendorBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveEntry appends a ledger entry. The message index bucket doubles as the
// uniqueness constraint on the source message id; the index put and the
// entry put sit in one transaction, so an entry never half-applies.
func (b *BoltDB) SaveEntry(entry *Entry) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if entry.SourceMessageID != "" {
			index := tx.Bucket([]byte(messageBucketName))
			if existing := index.Get([]byte(entry.SourceMessageID)); existing != nil {
				return fmt.Errorf("entry already exists for message %s", entry.SourceMessageID)
			}
			if err := index.Put([]byte(entry.SourceMessageID), []byte(entry.ID)); err != nil {
				return err
			}
		}

		bucket := tx.Bucket([]byte(entryBucketName))
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		return bucket.Put([]byte(entry.ID), data)
	})
}

// GetEntry retrieves an entry by ID
func (b *BoltDB) GetEntry(id string) (*Entry, error) {
	var entry *Entry
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entryBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("entry not found: %s", id)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns all entries
func (b *BoltDB) ListEntries() ([]*Entry, error) {
	entries := make([]*Entry, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entryBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling entry: %w", err)
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ExistsBySourceMessageID reports whether a synced entry already references
// the given message
func (b *BoltDB) ExistsBySourceMessageID(messageID string) (bool, error) {
	var exists bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		index := tx.Bucket([]byte(messageBucketName))
		exists = index.Get([]byte(messageID)) != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

// SaveVendor saves a vendor
func (b *BoltDB) SaveVendor(vendor *Vendor) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(vendorBucketName))
		data, err := json.Marshal(vendor)
		if err != nil {
			return fmt.Errorf("marshaling vendor: %w", err)
		}
		return bucket.Put([]byte(vendor.ID), data)
	})
}

// GetVendor retrieves a vendor by ID
func (b *BoltDB) GetVendor(id string) (*Vendor, error) {
	var vendor *Vendor
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(vendorBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("vendor not found: %s", id)
		}
		return json.Unmarshal(data, &vendor)
	})
	if err != nil {
		return nil, err
	}
	return vendor, nil
}

// ListVendors returns all vendors
func (b *BoltDB) ListVendors() ([]*Vendor, error) {
	vendors := make([]*Vendor, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(vendorBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var vendor Vendor
			if err := json.Unmarshal(v, &vendor); err != nil {
				return fmt.Errorf("unmarshaling vendor: %w", err)
			}
			vendors = append(vendors, &vendor)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

// ListActiveVendorsWithLabel returns active vendors with a mailbox label.
// Vendors without a label are manually-booked only and never synced.
func (b *BoltDB) ListActiveVendorsWithLabel() ([]*Vendor, error) {
	vendors, err := b.ListVendors()
	if err != nil {
		return nil, err
	}
	bound := make([]*Vendor, 0, len(vendors))
	for _, vendor := range vendors {
		if vendor.Active && vendor.GmailLabel != "" {
			bound = append(bound, vendor)
		}
	}
	return bound, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
