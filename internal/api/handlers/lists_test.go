package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/dom/shared-lists/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListHandler_CRUD(t *testing.T) {
	ts := testutil.NewTestServer(t)
	token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts).AccessToken

	list := testutil.CreateList(t, ts, token, "Groceries")
	assert.NotZero(t, list.ID)
	assert.Equal(t, "Groceries", list.Name)

	listURL := ts.APIURL(fmt.Sprintf("/shopping-lists/%d", list.ID))

	t.Run("get all", func(t *testing.T) {
		resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/shopping-lists"), nil, token))
		defer resp.Body.Close()
		var lists []domain.ShoppingList
		testutil.AssertJSONResponse(t, resp, &lists)
		require.Len(t, lists, 1)
		assert.Equal(t, list.ID, lists[0].ID)
	})

	t.Run("update", func(t *testing.T) {
		resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodPatch, listURL, map[string]string{"name": "Weekend"}, token))
		defer resp.Body.Close()
		var updated domain.ShoppingList
		testutil.AssertStatusCode(t, resp, http.StatusOK)
		testutil.AssertJSONResponse(t, resp, &updated)
		assert.Equal(t, "Weekend", updated.Name)
	})

	t.Run("items", func(t *testing.T) {
		item := testutil.AddItem(t, ts, token, list.ID, "Milk")
		assert.Equal(t, 1, item.Quantity)

		itemURL := fmt.Sprintf("%s/items/%d", listURL, item.ID)
		resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodPatch, itemURL, map[string]interface{}{"completed": true, "quantity": 3}, token))
		var updated domain.Item
		testutil.AssertStatusCode(t, resp, http.StatusOK)
		testutil.AssertJSONResponse(t, resp, &updated)
		resp.Body.Close()
		assert.True(t, updated.Completed)
		assert.Equal(t, 3, updated.Quantity)

		resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, listURL, nil, token))
		var fetched domain.ShoppingList
		testutil.AssertJSONResponse(t, resp, &fetched)
		resp.Body.Close()
		require.Len(t, fetched.Items, 1)
		assert.Equal(t, "Milk", fetched.Items[0].Name)

		resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodDelete, itemURL, nil, token))
		testutil.AssertStatusCode(t, resp, http.StatusNoContent)
		resp.Body.Close()

		resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodDelete, itemURL, nil, token))
		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Item not found")
		resp.Body.Close()
	})

	t.Run("delete", func(t *testing.T) {
		resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodDelete, listURL, nil, token))
		testutil.AssertStatusCode(t, resp, http.StatusNoContent)
		resp.Body.Close()

		resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, listURL, nil, token))
		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "not found")
		resp.Body.Close()
	})
}

func TestListHandler_Errors(t *testing.T) {
	ts := testutil.NewTestServer(t)
	token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts).AccessToken
	list := testutil.CreateList(t, ts, token, "Groceries")

	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		token          string
		expectedStatus int
	}{
		{name: "requires auth", method: http.MethodGet, path: "/shopping-lists", expectedStatus: http.StatusUnauthorized},
		{name: "non-numeric id", method: http.MethodGet, path: "/shopping-lists/abc", token: token, expectedStatus: http.StatusBadRequest},
		{name: "zero id", method: http.MethodGet, path: "/shopping-lists/0", token: token, expectedStatus: http.StatusBadRequest},
		{name: "blank list name", method: http.MethodPost, path: "/shopping-lists", body: map[string]string{"name": " "}, token: token, expectedStatus: http.StatusBadRequest},
		{name: "item on missing list", method: http.MethodPost, path: "/shopping-lists/999/items", body: map[string]string{"name": "Eggs"}, token: token, expectedStatus: http.StatusNotFound},
		{name: "item with bad quantity", method: http.MethodPost, path: fmt.Sprintf("/shopping-lists/%d/items", list.ID), body: map[string]interface{}{"name": "Eggs", "quantity": 0}, token: token, expectedStatus: http.StatusBadRequest},
		{name: "update missing item", method: http.MethodPatch, path: fmt.Sprintf("/shopping-lists/%d/items/999", list.ID), body: map[string]bool{"completed": true}, token: token, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, tt.method, ts.APIURL(tt.path), tt.body, tt.token))
			defer resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestItemHandler_Suggestions(t *testing.T) {
	ts := testutil.NewTestServer(t)
	token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts).AccessToken
	list := testutil.CreateList(t, ts, token, "Groceries")
	testutil.AddItem(t, ts, token, list.ID, "Oat milk")

	resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/items/suggestions?q=milk"), nil, token))
	defer resp.Body.Close()

	var suggestions []string
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertJSONResponse(t, resp, &suggestions)
	assert.Equal(t, []string{"Milk", "Oat milk"}, suggestions)
}
