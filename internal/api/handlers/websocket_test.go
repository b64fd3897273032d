package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/shared-lists/internal/testutil"
	"github.com/dom/shared-lists/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketHandler_Handshake(t *testing.T) {
	ts := testutil.NewTestServer(t)
	auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{name: "missing token", token: "", expectedStatus: http.StatusUnauthorized},
		{name: "invalid token", token: "garbage", expectedStatus: http.StatusUnauthorized},
		{name: "refresh token rejected", token: auth.RefreshToken, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := testutil.DialWS(ts.WebSocketURL(tt.token))
			require.Error(t, err)
			assert.Nil(t, conn)
			require.NotNil(t, resp)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}

	assert.Equal(t, 0, ts.Hub.ConnectionCount(), "rejected handshakes never register")

	t.Run("valid token", func(t *testing.T) {
		testutil.NewWSClient(t, ts.WebSocketURL(auth.AccessToken))
		require.Eventually(t, func() bool { return ts.Hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
	})
}

func TestWebSocket_MutationsReachSubscribers(t *testing.T) {
	ts := testutil.NewTestServer(t)
	alice := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	bob := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	groceries := testutil.CreateList(t, ts, alice.AccessToken, "Groceries")
	hardware := testutil.CreateList(t, ts, alice.AccessToken, "Hardware")

	c1 := testutil.NewWSClient(t, ts.WebSocketURL(alice.AccessToken))
	c2 := testutil.NewWSClient(t, ts.WebSocketURL(bob.AccessToken))

	c1.Subscribe(groceries.ID)
	c2.Subscribe(hardware.ID)

	item := testutil.AddItem(t, ts, bob.AccessToken, groceries.ID, "Milk")

	var added websocket.ItemAddedEvent
	c1.ExpectEvent(websocket.EventItemAdded, &added, 2*time.Second)
	assert.Equal(t, groceries.ID, added.ListID)
	require.NotNil(t, added.Item)
	assert.Equal(t, item.ID, added.Item.ID)
	assert.Equal(t, "Milk", added.Item.Name)

	c1.ExpectNoMessage(200 * time.Millisecond)
	c2.ExpectNoMessage(200 * time.Millisecond)

	// After leaving the room c1 no longer hears about the list.
	c1.Unsubscribe(groceries.ID)
	testutil.AddItem(t, ts, bob.AccessToken, groceries.ID, "Eggs")
	c1.ExpectNoMessage(200 * time.Millisecond)
}

func TestWebSocket_ListLifecycleEvents(t *testing.T) {
	ts := testutil.NewTestServer(t)
	auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	list := testutil.CreateList(t, ts, auth.AccessToken, "Party")

	c := testutil.NewWSClient(t, ts.WebSocketURL(auth.AccessToken))
	c.Subscribe(list.ID)

	listURL := ts.APIURL(fmt.Sprintf("/shopping-lists/%d", list.ID))

	resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodPatch, listURL, map[string]string{"name": "Big party"}, auth.AccessToken))
	resp.Body.Close()
	var updated websocket.ListUpdatedEvent
	c.ExpectEvent(websocket.EventListUpdated, &updated, 2*time.Second)
	assert.Equal(t, "Big party", updated.List.Name)

	item := testutil.AddItem(t, ts, auth.AccessToken, list.ID, "Chips")
	c.ExpectEvent(websocket.EventItemAdded, nil, 2*time.Second)

	itemURL := fmt.Sprintf("%s/items/%d", listURL, item.ID)
	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodPatch, itemURL, map[string]bool{"completed": true}, auth.AccessToken))
	resp.Body.Close()
	var itemUpdated websocket.ItemUpdatedEvent
	c.ExpectEvent(websocket.EventItemUpdated, &itemUpdated, 2*time.Second)
	assert.True(t, itemUpdated.Item.Completed)

	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodDelete, itemURL, nil, auth.AccessToken))
	resp.Body.Close()
	var itemDeleted websocket.ItemDeletedEvent
	c.ExpectEvent(websocket.EventItemDeleted, &itemDeleted, 2*time.Second)
	assert.Equal(t, item.ID, itemDeleted.ItemID)

	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodDelete, listURL, nil, auth.AccessToken))
	resp.Body.Close()
	c.ExpectEvent(websocket.EventListDeleted, nil, 2*time.Second)
}

func TestWebSocket_ProtocolErrors(t *testing.T) {
	ts := testutil.NewTestServer(t)
	auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	c := testutil.NewWSClient(t, ts.WebSocketURL(auth.AccessToken))

	c.SendRaw([]byte("not json"))
	c.ExpectErrorWithCode(websocket.ErrCodeInvalidMessage, 2*time.Second)

	c.Send(websocket.MessageTypeSubscribe, websocket.RoomPayload{ListID: 404})
	c.ExpectErrorWithCode(websocket.ErrCodeRoomNotFound, 2*time.Second)

	c.Send("dance", nil)
	c.ExpectErrorWithCode(websocket.ErrCodeUnknownType, 2*time.Second)

	// The connection survives protocol errors.
	list := testutil.CreateList(t, ts, auth.AccessToken, "Still here")
	c.Subscribe(list.ID)
}

func TestWebSocket_PeerPresence(t *testing.T) {
	ts := testutil.NewTestServer(t)
	alice := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	bob := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	list := testutil.CreateList(t, ts, alice.AccessToken, "Shared")

	c1 := testutil.NewWSClient(t, ts.WebSocketURL(alice.AccessToken))
	c1.Subscribe(list.ID)

	c2 := testutil.NewWSClient(t, ts.WebSocketURL(bob.AccessToken))
	c2.Subscribe(list.ID)

	var joined websocket.PeerJoinedEvent
	c1.ExpectEvent(websocket.EventPeerJoined, &joined, 2*time.Second)
	assert.Equal(t, bob.User.ID, joined.UserID)

	c2.Close()

	var left websocket.PeerLeftEvent
	c1.ExpectEvent(websocket.EventPeerLeft, &left, 2*time.Second)
	assert.Equal(t, bob.User.ID, left.UserID)

	require.Eventually(t, func() bool { return ts.Hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
}
