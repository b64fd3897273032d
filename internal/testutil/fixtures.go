package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	email    string
	username string
	password string
}

// NewUserBuilder creates a new UserBuilder with unique default identities
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		email:    fmt.Sprintf("user_%s@example.com", suffix),
		username: fmt.Sprintf("user_%s", suffix),
		password: "testpassword123",
	}
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        b.email,
		Username:     b.username,
		PasswordHash: string(hashedPassword),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the login response
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Username string `json:"username"`
	} `json:"user"`
}

// BuildAndAuthenticate registers the user via the API, logs in and returns
// the login response.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) *AuthResponse {
	t.Helper()

	resp := PostJSON(t, ts.APIURL("/auth/register"), map[string]string{
		"email":    b.email,
		"username": b.username,
		"password": b.password,
	}, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: unexpected status code: %d", resp.StatusCode)
	}

	return LoginUser(t, ts, b.username, b.password)
}

// LoginUser logs in via the API.
func LoginUser(t *testing.T, ts *TestServer, usernameOrEmail, password string) *AuthResponse {
	t.Helper()

	resp := PostJSON(t, ts.APIURL("/auth/login"), map[string]string{
		"usernameOrEmail": usernameOrEmail,
		"password":        password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &authResp
}

// CreateList creates a shopping list via the API.
func CreateList(t *testing.T, ts *TestServer, token, name string) *domain.ShoppingList {
	t.Helper()

	resp := PostJSON(t, ts.APIURL("/shopping-lists"), map[string]string{"name": name}, token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create list: unexpected status code: %d", resp.StatusCode)
	}

	var list domain.ShoppingList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	return &list
}

// AddItem adds an item to a list via the API.
func AddItem(t *testing.T, ts *TestServer, token string, listID uint, name string) *domain.Item {
	t.Helper()

	resp := PostJSON(t, ts.APIURL(fmt.Sprintf("/shopping-lists/%d/items", listID)), map[string]string{"name": name}, token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add item: unexpected status code: %d", resp.StatusCode)
	}

	var item domain.Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		t.Fatalf("failed to decode item: %v", err)
	}
	return &item
}

// ListBuilder creates shopping lists directly in the database
type ListBuilder struct {
	name  string
	items []string
}

// NewListBuilder creates a new ListBuilder with default values
func NewListBuilder() *ListBuilder {
	return &ListBuilder{name: "Groceries"}
}

// WithName sets the list name
func (b *ListBuilder) WithName(name string) *ListBuilder {
	b.name = name
	return b
}

// WithItems adds items by name
func (b *ListBuilder) WithItems(names ...string) *ListBuilder {
	b.items = append(b.items, names...)
	return b
}

// Build creates the list and its items in the database
func (b *ListBuilder) Build(t *testing.T, db *gorm.DB) *domain.ShoppingList {
	t.Helper()

	list := &domain.ShoppingList{Name: b.name}
	for _, name := range b.items {
		list.Items = append(list.Items, domain.Item{Name: name, Quantity: 1})
	}

	if err := db.Create(list).Error; err != nil {
		t.Fatalf("failed to create list: %v", err)
	}
	return list
}

// PostJSON sends a JSON POST, with a bearer token when token is set.
func PostJSON(t *testing.T, url string, body interface{}, token string) *http.Response {
	t.Helper()
	return Do(t, CreateAuthenticatedRequest(t, http.MethodPost, url, body, token))
}

// Do executes a request and fails the test on transport errors.
func Do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", req.Method, req.URL, err)
	}
	return resp
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}
