package client

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrStale marks a refetch that failed after its mutation succeeded. The
// mutation is not rolled back and the cached collection keeps its old value.
var ErrStale = errors.New("cache is stale")

const (
	opAccounts  = "refresh-accounts"
	opDocuments = "refresh-documents"
	opIssuances = "refresh-issuances"
	opBarangays = "refresh-barangays"
)

// Cache keeps local, non-authoritative copies of the collections the dashboard
// displays.
type Cache struct {
	client *Client
	flight *Flight

	mu        sync.RWMutex
	users     []User
	documents []Document
	issuances []Issuance
	barangays []Barangay
}

func NewCache(client *Client) *Cache {
	return &Cache{client: client, flight: NewFlight()}
}

func (c *Cache) Users() []User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]User(nil), c.users...)
}

func (c *Cache) Documents() []Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Document(nil), c.documents...)
}

func (c *Cache) Issuances() []Issuance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Issuance(nil), c.issuances...)
}

func (c *Cache) Barangays() []Barangay {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Barangay(nil), c.barangays...)
}

// RefreshAccounts is dropped with ErrInFlight while another refresh of the
// accounts is outstanding.
func (c *Cache) RefreshAccounts() error {
	return c.flight.Drop(opAccounts, func() error {
		users, err := c.client.ListUsers()
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.users = users
		c.mu.Unlock()
		return nil
	})
}

func (c *Cache) RefreshDocuments() error {
	_, err := c.flight.Attach(opDocuments, func() (interface{}, error) {
		docs, err := c.client.ListDocuments()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.documents = docs
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

func (c *Cache) RefreshIssuances() error {
	_, err := c.flight.Attach(opIssuances, func() (interface{}, error) {
		issuances, err := c.client.ListIssuances("")
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.issuances = issuances
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

func (c *Cache) RefreshBarangays() error {
	_, err := c.flight.Attach(opBarangays, func() (interface{}, error) {
		barangays, err := c.client.ListBarangays()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.barangays = barangays
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

func stale(collection string, err error) error {
	if err == nil {
		return nil
	}
	slog.Warn("refetch after mutation failed", "collection", collection, "error", err)
	return fmt.Errorf("%w: refetch of %v failed: %w", ErrStale, collection, err)
}

func (c *Cache) CreateAccount(account NewAccount) error {
	if err := c.client.CreateAccount(account); err != nil {
		return err
	}
	return stale("accounts", c.RefreshAccounts())
}

func (c *Cache) UpdateUserAccess(userId uint, update AccessUpdate) error {
	if err := c.client.UpdateUserAccess(userId, update); err != nil {
		return err
	}
	return stale("accounts", c.RefreshAccounts())
}

func (c *Cache) UpdateProfile(userId uint, update ProfileUpdate) error {
	if err := c.client.UpdateProfile(userId, update); err != nil {
		return err
	}
	return stale("accounts", c.RefreshAccounts())
}

func (c *Cache) DeleteAccount(userId uint, password string) error {
	if err := c.client.DeleteAccount(userId, password); err != nil {
		return err
	}
	return stale("accounts", c.RefreshAccounts())
}

func (c *Cache) UploadDocument(doc NewDocument) (uint, error) {
	id, err := c.client.UploadDocument(doc)
	if err != nil {
		return 0, err
	}
	return id, stale("documents", c.RefreshDocuments())
}

func (c *Cache) DeleteDocument(documentId uint) error {
	if err := c.client.DeleteDocument(documentId); err != nil {
		return err
	}
	return stale("documents", c.RefreshDocuments())
}

func (c *Cache) IssueCertificate(issuance NewIssuance) (Issuance, error) {
	issued, err := c.client.IssueCertificate(issuance)
	if err != nil {
		return Issuance{}, err
	}
	return issued, stale("issuances", c.RefreshIssuances())
}
