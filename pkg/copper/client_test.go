package copper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogActivity(t *testing.T) {
	var gotReq ActivityRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activities", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "developer_api", r.Header.Get("X-PW-Application"))
		assert.Equal(t, "secret-token", r.Header.Get("X-PW-AccessToken"))
		assert.Equal(t, "rep@verdantleaf.example", r.Header.Get("X-PW-UserEmail"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(Activity{ID: 42, Details: gotReq.Details})
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:        srv.URL,
		AccessToken:    "secret-token",
		UserEmail:      "rep@verdantleaf.example",
		ActivityTypeID: 7,
	})

	activity, err := client.LogActivity(context.Background(), "Quote Q-1 sent", 99)
	require.NoError(t, err)
	assert.Equal(t, 42, activity.ID)
	assert.Equal(t, "user", gotReq.Type.Category)
	assert.Equal(t, 7, gotReq.Type.ID)
	require.NotNil(t, gotReq.Parent)
	assert.Equal(t, "person", gotReq.Parent.Type)
	assert.Equal(t, 99, gotReq.Parent.ID)
}

func TestLogActivityWithoutPerson(t *testing.T) {
	var gotReq ActivityRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(Activity{ID: 1})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.LogActivity(context.Background(), "details", 0)
	require.NoError(t, err)
	assert.Nil(t, gotReq.Parent)
}

func TestLogActivityServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.LogActivity(context.Background(), "details", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestFindPersonByEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/people/search", r.URL.Path)
		var req PersonSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"buyer@example.com"}, req.Emails)
		json.NewEncoder(w).Encode([]Person{{ID: 11, Name: "Buyer"}})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	person, err := client.FindPersonByEmail(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.Equal(t, 11, person.ID)
}

func TestFindPersonByEmailNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Person{})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	person, err := client.FindPersonByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, person)
}
