package client

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseUrl string
	http    *http.Client
	store   SessionStore

	mu      sync.RWMutex
	session *StoredSession
}

func New(baseUrl string, store SessionStore) *Client {
	if store == nil {
		store = NewMemorySessionStore()
	}
	return &Client{
		baseUrl: baseUrl,
		http:    &http.Client{Timeout: defaultTimeout},
		store:   store,
	}
}

func (c *Client) call(method, path string) *apiCall {
	return newApiCall(c.http, method, c.baseUrl, path).WithToken(c.token())
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

// CurrentUser returns the logged in user as it was at login, or nil.
func (c *Client) CurrentUser() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	user := c.session.User
	return &user
}

func (c *Client) setSession(session *StoredSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
}

func (c *Client) Login(email, password string) (User, error) {
	var res struct {
		User  User   `json:"user"`
		Token string `json:"token"`
	}
	err := newApiCall(c.http, "POST", c.baseUrl, "/api/login").
		WithBody(map[string]string{"email": email, "password": password}).
		Into(&res)
	if err != nil {
		return User{}, fmt.Errorf("login failed: %w", err)
	}

	session := StoredSession{User: res.User, Token: res.Token}
	if err := c.store.Save(session); err != nil {
		return User{}, fmt.Errorf("login succeeded but session could not be saved: %w", err)
	}
	c.setSession(&session)

	return res.User, nil
}

// Restore loads the cached session without contacting the server.
func (c *Client) Restore() (User, error) {
	session, err := c.store.Load()
	if err != nil {
		return User{}, err
	}
	c.setSession(&session)
	return session.User, nil
}

func (c *Client) Logout() error {
	c.setSession(nil)
	return c.store.Clear()
}

func (c *Client) ListUsers() ([]User, error) {
	var users []User
	if err := c.call("GET", "/api/users").Into(&users); err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}

func (c *Client) CreateAccount(account NewAccount) error {
	if err := c.call("POST", "/api/create-account").WithBody(account).Into(nil); err != nil {
		return fmt.Errorf("error creating account: %w", err)
	}
	return nil
}

func (c *Client) UpdateUserAccess(userId uint, update AccessUpdate) error {
	err := c.call("PUT", "/api/users/"+idString(userId)).WithBody(update).Into(nil)
	if err != nil {
		return fmt.Errorf("error updating access of user %d: %w", userId, err)
	}
	return nil
}

func (c *Client) UpdateProfile(userId uint, update ProfileUpdate) error {
	err := c.call("PUT", "/api/users/"+idString(userId)+"/profile").WithBody(update).Into(nil)
	if err != nil {
		return fmt.Errorf("error updating profile of user %d: %w", userId, err)
	}
	return nil
}

// DeleteAccount deletes another user's account. The password is the caller's.
func (c *Client) DeleteAccount(userId uint, password string) error {
	err := c.call("DELETE", "/api/users/"+idString(userId)).
		WithBody(map[string]string{"password": password}).
		Into(nil)
	if err != nil {
		return fmt.Errorf("error deleting user %d: %w", userId, err)
	}
	return nil
}

func (c *Client) ChangePassword(currentPassword, newPassword string) error {
	err := c.call("POST", "/api/change-password").
		WithBody(map[string]string{
			"currentPassword": currentPassword,
			"newPassword":     newPassword,
			"confirmPassword": newPassword,
		}).
		Into(nil)
	if err != nil {
		return fmt.Errorf("error changing password: %w", err)
	}
	return nil
}

func (c *Client) ListDocuments() ([]Document, error) {
	var docs []Document
	if err := c.call("GET", "/api/documents").Into(&docs); err != nil {
		return nil, fmt.Errorf("error listing documents: %w", err)
	}
	return docs, nil
}

func (c *Client) UploadDocument(doc NewDocument) (uint, error) {
	var res struct {
		Id uint `json:"id"`
	}
	if err := c.call("POST", "/api/documents").WithBody(doc).Into(&res); err != nil {
		return 0, fmt.Errorf("error uploading document: %w", err)
	}
	return res.Id, nil
}

func (c *Client) DeleteDocument(documentId uint) error {
	if err := c.call("DELETE", "/api/documents/"+idString(documentId)).Into(nil); err != nil {
		return fmt.Errorf("error deleting document %d: %w", documentId, err)
	}
	return nil
}

// ListIssuances lists issuances of one type, or all when issuanceType is empty.
func (c *Client) ListIssuances(issuanceType string) ([]Issuance, error) {
	req := c.call("GET", "/api/issuances")
	if issuanceType != "" {
		req.WithQuery("type", issuanceType)
	}
	var issuances []Issuance
	if err := req.Into(&issuances); err != nil {
		return nil, fmt.Errorf("error listing issuances: %w", err)
	}
	return issuances, nil
}

func (c *Client) IssueCertificate(issuance NewIssuance) (Issuance, error) {
	var res struct {
		Id         uint   `json:"id"`
		CertNumber string `json:"certNumber"`
	}
	if err := c.call("POST", "/api/issuances").WithBody(issuance).Into(&res); err != nil {
		return Issuance{}, fmt.Errorf("error issuing certificate: %w", err)
	}

	issued := Issuance{
		Id:           res.Id,
		CertNumber:   res.CertNumber,
		Type:         issuance.Type,
		Name:         issuance.Name,
		Barangay:     issuance.Barangay,
		IssuanceDate: issuance.IssuanceDate,
		Status:       issuance.Status,
	}
	return issued, nil
}

func (c *Client) NextCertNumber(issuanceType string) (string, error) {
	var res struct {
		CertNumber string `json:"certNumber"`
	}
	if err := c.call("GET", "/api/issuances/next-cert-number/"+issuanceType).Into(&res); err != nil {
		return "", fmt.Errorf("error getting next certificate number: %w", err)
	}
	return res.CertNumber, nil
}

func (c *Client) ListBarangays() ([]Barangay, error) {
	var barangays []Barangay
	if err := c.call("GET", "/api/barangays").Into(&barangays); err != nil {
		return nil, fmt.Errorf("error listing barangays: %w", err)
	}
	return barangays, nil
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsConnectivity reports whether err means the server could not be reached.
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrConnectivity)
}
