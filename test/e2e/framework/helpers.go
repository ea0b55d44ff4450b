package framework

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"time"
)

// TipsAPIKey is the key the fake API expects.
const TipsAPIKey = "e2e-key"

type fakeTip struct {
	Number   uint64 `json:"number"`
	Tip      string `json:"tip"`
	Tweeted  uint64 `json:"tweeted"`
	Approved bool   `json:"approved"`
}

// Tips is the archive served by the fake API.
var Tips = []fakeTip{
	{Number: 1, Tip: "DO NOT FEED FROG AFTER MIDNIGHT.", Tweeted: 1, Approved: true},
	{Number: 2, Tip: "FROG ENJOYS A GOOD POND.", Tweeted: 1, Approved: true},
	{Number: 3, Tip: "NEVER ASK FROG ABOUT THE WEATHER.", Tweeted: 1, Approved: true},
}

// NewTipsAPI starts a minimal frog.tips API over Tips.
func NewTipsAPI() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /tips/{n}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != TipsAPIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		n, err := strconv.ParseUint(r.PathValue("n"), 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		i := slices.IndexFunc(Tips, func(t fakeTip) bool { return t.Number == n })
		if i < 0 {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(Tips[i])
	})

	mux.HandleFunc("POST /tips/search", func(w http.ResponseWriter, r *http.Request) {
		var q struct {
			Tip *string `json:"tip"`
		}
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		results := []fakeTip{}
		for _, tip := range Tips {
			if q.Tip == nil || strings.Contains(tip.Tip, strings.ToUpper(*q.Tip)) {
				results = append(results, tip)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
	})

	return httptest.NewServer(mux)
}

// Fetch sends request as-is and returns everything the server writes back
// before closing the connection.
func Fetch(addr, request string) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	if _, err := io.WriteString(conn, request); err != nil {
		return "", err
	}

	body, err := io.ReadAll(conn)
	return string(body), err
}
