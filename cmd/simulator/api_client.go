package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WebSocketURL returns the live endpoint for an access token.
func (c *APIClient) WebSocketURL(token string) string {
	wsBase := "ws" + strings.TrimPrefix(c.baseURL, "http")
	return wsBase + "/ws?token=" + token
}

// Response types matching backend

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type ShoppingList struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

type Item struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Completed bool   `json:"completed"`
}

// RegisterUser creates a throwaway account and logs it in.
func (c *APIClient) RegisterUser(baseName string) (*User, string, error) {
	username := fmt.Sprintf("%s_%s", baseName, uuid.NewString()[:6])
	password := "testpassword123"

	body := map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": password,
	}

	resp, err := c.post("/auth/register", body, "")
	if err != nil {
		return nil, "", fmt.Errorf("register request failed: %w", err)
	}
	if err := expectStatus(resp, http.StatusCreated, "register"); err != nil {
		return nil, "", err
	}
	resp.Body.Close()

	resp, err = c.post("/auth/login", map[string]string{
		"usernameOrEmail": username,
		"password":        password,
	}, "")
	if err != nil {
		return nil, "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK, "login"); err != nil {
		return nil, "", err
	}

	var result AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", fmt.Errorf("failed to decode response: %w", err)
	}

	return &result.User, result.AccessToken, nil
}

// CreateList creates a shopping list
func (c *APIClient) CreateList(token, name string) (*ShoppingList, error) {
	resp, err := c.post("/shopping-lists", map[string]string{"name": name}, token)
	if err != nil {
		return nil, fmt.Errorf("create list request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusCreated, "create list"); err != nil {
		return nil, err
	}

	var list ShoppingList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &list, nil
}

// GetList fetches a list with its items
func (c *APIClient) GetList(token string, listID uint) (*ShoppingList, error) {
	resp, err := c.get(fmt.Sprintf("/shopping-lists/%d", listID), token)
	if err != nil {
		return nil, fmt.Errorf("get list request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK, "get list"); err != nil {
		return nil, err
	}

	var list ShoppingList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &list, nil
}

// AddItem appends an item to a list
func (c *APIClient) AddItem(token string, listID uint, name string, quantity int) (*Item, error) {
	body := map[string]interface{}{
		"name":     name,
		"quantity": quantity,
	}

	resp, err := c.post(fmt.Sprintf("/shopping-lists/%d/items", listID), body, token)
	if err != nil {
		return nil, fmt.Errorf("add item request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusCreated, "add item"); err != nil {
		return nil, err
	}

	var item Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &item, nil
}

// CompleteItem marks an item as bought
func (c *APIClient) CompleteItem(token string, listID, itemID uint) error {
	resp, err := c.do(http.MethodPatch, fmt.Sprintf("/shopping-lists/%d/items/%d", listID, itemID), map[string]bool{"completed": true}, token)
	if err != nil {
		return fmt.Errorf("complete item request failed: %w", err)
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK, "complete item")
}

func expectStatus(resp *http.Response, want int, op string) error {
	if resp.StatusCode == want {
		return nil
	}
	bodyBytes, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return fmt.Errorf("%s failed (status %d): %s", op, resp.StatusCode, string(bodyBytes))
}

// HTTP helpers

func (c *APIClient) get(path, token string) (*http.Response, error) {
	return c.do(http.MethodGet, path, nil, token)
}

func (c *APIClient) post(path string, body interface{}, token string) (*http.Response, error) {
	return c.do(http.MethodPost, path, body, token)
}

func (c *APIClient) do(method, path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}
