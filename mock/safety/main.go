package main

import (
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

//go:embed blocklists.json
var blocklistData []byte

type blocklist struct {
	UserIDs    []string `json:"user_ids"`
	ContentIDs []string `json:"content_ids"`
}

func main() {
	var lists map[string]blocklist
	if err := json.Unmarshal(blocklistData, &lists); err != nil {
		log.Fatalf("[Safety] Invalid blocklists.json: %v", err)
	}

	// Paths: /api/v1/users/{id}/blocked-users and /blocked-contents
	http.HandleFunc("/api/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		// Simulate network latency (10-60ms)
		time.Sleep(time.Duration(10+time.Now().UnixNano()%50) * time.Millisecond)

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 5 {
			http.NotFound(w, r)

			return
		}
		userID, resource := parts[3], parts[4]
		list := lists[userID]

		w.Header().Set("Content-Type", "application/json")

		var body any
		switch resource {
		case "blocked-users":
			body = map[string][]string{"user_ids": emptyIfNil(list.UserIDs)}
		case "blocked-contents":
			body = map[string][]string{"content_ids": emptyIfNil(list.ContentIDs)}
		default:
			http.NotFound(w, r)

			return
		}

		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Printf("[Safety] Write error: %v", err)
		}

		log.Printf("[Safety] %s %s - 200 OK", r.Method, r.URL.Path)
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[Safety] Health write error: %v", err)
		}
	})

	log.Println("Mock Trust & Safety service running on :8091")
	server := &http.Server{
		Addr:         ":8091",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
