package nriva

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nriva-scraper/lib/ratelimit"

	"github.com/stretchr/testify/require"
)

func noopGate() *ratelimit.Gate {
	return ratelimit.NewGateWithClock(
		time.Second,
		func() time.Time { return time.Unix(0, 0) },
		func(ctx context.Context, d time.Duration) error { return nil },
	)
}

// serves pages of the given sizes off the DataTables-style endpoint
// and counts how many page requests came in
func searchTestServer(t *testing.T, pageSizes []int, total int64) (*httptest.Server, *int) {
	requests := 0

	mux := http.NewServeMux()
	mux.HandleFunc("GET /eedu-jodu/search-profiles", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta name="csrf-token" content="search-token"></head><body></body></html>`)
	})
	mux.HandleFunc("POST /eedu-jodu/search-eedujodu-profiles", func(w http.ResponseWriter, r *http.Request) {
		var payload searchPayload
		err := json.NewDecoder(r.Body).Decode(&payload)
		if err != nil {
			t.Error(err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		require.Equal(t, "search-token", payload.Token)
		require.Equal(t, requests+1, payload.Draw)
		require.Equal(t, requests*searchPageLength, payload.Start)

		size := 0
		if requests < len(pageSizes) {
			size = pageSizes[requests]
		}
		requests++

		data := make([]map[string]any, size)
		for i := range data {
			data[i] = map[string]any{
				"member_id": float64(requests*1000 + i),
				"name":      fmt.Sprintf("candidate %d", i),
			}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data":         data,
			"recordsTotal": total,
		})
	})

	return httptest.NewServer(mux), &requests
}

func TestSearchPagination(t *testing.T) {
	server, requests := searchTestServer(t, []int{100, 100, 37}, 237)
	defer server.Close()

	client, err := NewClient(context.Background(), ClientOptions{BaseUrl: server.URL})
	if err != nil {
		t.Fatal(err)
	}

	candidates, err := client.Search(context.Background(), Criteria{
		Gender:      "Female",
		MaxAge:      31,
		Citizenship: "USA",
	}, noopGate())
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, candidates, 237)
	require.Equal(t, 3, *requests)
	require.Equal(t, "1000", candidates[0].Id)
}

func TestSearchEmptyResult(t *testing.T) {
	server, requests := searchTestServer(t, nil, 0)
	defer server.Close()

	client, err := NewClient(context.Background(), ClientOptions{BaseUrl: server.URL})
	if err != nil {
		t.Fatal(err)
	}

	candidates, err := client.Search(context.Background(), Criteria{Gender: "Female"}, noopGate())
	if err != nil {
		t.Fatal(err)
	}
	require.Empty(t, candidates)
	require.Equal(t, 1, *requests)
}

func TestSearchOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /eedu-jodu/search-profiles", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta name="csrf-token" content="search-token"></head><body></body></html>`)
	})
	mux.HandleFunc("POST /eedu-jodu/search-eedujodu-profiles", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "search-token", r.FormValue("_token"))
		require.Equal(t, "Female", r.FormValue("gender"))
		require.Equal(t, "31", r.FormValue("max_age"))
		require.Equal(t, "USA", r.FormValue("citizenship"))
		require.Equal(t, "1", r.FormValue("draw"))
		require.Equal(t, "0", r.FormValue("start"))

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"member_id": "7", "name": "candidate"},
			},
			"recordsTotal": 1,
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(context.Background(), ClientOptions{BaseUrl: server.URL})
	if err != nil {
		t.Fatal(err)
	}

	candidates, err := client.SearchOnce(context.Background(), Criteria{
		Gender:      "Female",
		MaxAge:      31,
		Citizenship: "USA",
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, candidates, 1)
	require.Equal(t, "7", candidates[0].Id)
	require.Equal(t, "candidate", candidates[0].Fields["name"])
}

func TestCriteriaSlug(t *testing.T) {
	criteria := Criteria{Gender: "Female", MaxAge: 31, Citizenship: "USA"}
	require.Equal(t, "Female_USA_maxAge31", criteria.Slug())
}

func TestCandidateId(t *testing.T) {
	testCases := []struct {
		fields   map[string]any
		expected string
	}{
		{fields: map[string]any{"member_id": float64(42)}, expected: "42"},
		// a fractional id is preserved, not truncated
		{fields: map[string]any{"member_id": float64(42.5)}, expected: "42.5"},
		{fields: map[string]any{"member_id": "42"}, expected: "42"},
		{fields: map[string]any{"profile_id": float64(7)}, expected: "7"},
		{fields: map[string]any{"member_id": "", "profile_id": "9"}, expected: "9"},
		{fields: map[string]any{"name": "nobody"}, expected: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, candidateId(test.fields))
	}
}
