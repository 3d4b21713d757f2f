package tests

import (
	"bytes"
	"civicore/registry/auth"
	"civicore/registry/schema"
	"civicore/registry/services"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

func (r *httpTestRequest) Body(body io.Reader) *httpTestRequest {
	r.body = body
	return r
}

type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %v", e.status, e.message)
}

func (e *statusError) Is(target error) bool {
	return target == ErrUnauthorized && e.status == http.StatusUnauthorized
}

var ErrUnauthorized = errors.New("unauthorized")

// status returns the http status carried by err, or 0 for other errors.
func status(err error) int {
	var serr *statusError
	if errors.As(err, &serr) {
		return serr.status
	}
	return 0
}

func message(err error) string {
	var serr *statusError
	if errors.As(err, &serr) {
		return serr.message
	}
	return ""
}

// response body will be parsed into result, passing nil indicates that no result is returned.
func (r *httpTestRequest) Do(result interface{}) error {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	for k, v := range r.headers {
		req.Header.Add(k, v)
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var failure struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(res.Body).Decode(&failure); err != nil {
			failure.Message = w.Body.String()
		}
		return &statusError{status: res.StatusCode, message: failure.Message}
	}

	if result != nil {
		err := json.NewDecoder(res.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

type client struct {
	api       chi.Router
	authToken string
	user      services.UserInfo
}

func (c *client) request(method, endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, method, endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Get(endpoint string) *httpTestRequest {
	return c.request("GET", endpoint)
}

func (c *client) Post(endpoint string) *httpTestRequest {
	return c.request("POST", endpoint)
}

func (c *client) Put(endpoint string) *httpTestRequest {
	return c.request("PUT", endpoint)
}

func (c *client) Delete(endpoint string) *httpTestRequest {
	return c.request("DELETE", endpoint)
}

type loginResponse struct {
	Success bool              `json:"success"`
	User    services.UserInfo `json:"user"`
	Token   string            `json:"token"`
}

func (c *client) login(email, password string) error {
	var res loginResponse
	err := c.Post("/login").Json(map[string]string{"email": email, "password": password}).Do(&res)
	if err != nil {
		return err
	}
	c.authToken = res.Token
	c.user = res.User
	return nil
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Id      uint   `json:"id"`
}

func (c *client) createAccount(name, email, password string, role schema.Role) error {
	body := map[string]string{"name": name, "email": email, "password": password, "role": string(role)}
	return c.Post("/create-account").Json(body).Do(nil)
}

func (c *client) listUsers() ([]services.UserInfo, error) {
	var users []services.UserInfo
	err := c.Get("/users").Do(&users)
	return users, err
}

func (c *client) userInfo(userId uint) (services.UserInfo, error) {
	var user services.UserInfo
	err := c.Get(fmt.Sprintf("/users/%d", userId)).Do(&user)
	return user, err
}

func (c *client) updateAccess(userId uint, body map[string]interface{}) error {
	return c.Put(fmt.Sprintf("/users/%d", userId)).Json(body).Do(nil)
}

func (c *client) deleteUser(userId uint, password string) error {
	return c.Delete(fmt.Sprintf("/users/%d", userId)).Json(map[string]string{"password": password}).Do(nil)
}

type sessionResponse struct {
	User         services.UserInfo `json:"user"`
	Capabilities auth.Capabilities `json:"capabilities"`
}

func (c *client) session() (sessionResponse, error) {
	var res sessionResponse
	err := c.Get("/session").Do(&res)
	return res, err
}

func (c *client) issue(body map[string]string) (services.IssuanceInfo, error) {
	var created struct {
		Success    bool   `json:"success"`
		Id         uint   `json:"id"`
		CertNumber string `json:"certNumber"`
	}
	if err := c.Post("/issuances").Json(body).Do(&created); err != nil {
		return services.IssuanceInfo{}, err
	}

	var issuance services.IssuanceInfo
	err := c.Get(fmt.Sprintf("/issuances/%d", created.Id)).Do(&issuance)
	return issuance, err
}

func (c *client) nextCertNumber(docType string) (string, error) {
	var res struct {
		CertNumber string `json:"certNumber"`
	}
	err := c.Get("/issuances/next-cert-number/" + docType).Do(&res)
	return res.CertNumber, err
}

func (c *client) listIssuances(query string) ([]services.IssuanceInfo, error) {
	var issuances []services.IssuanceInfo
	err := c.Get("/issuances" + query).Do(&issuances)
	return issuances, err
}

func itoa(id uint) string {
	return fmt.Sprintf("%d", id)
}
