// Mock credential status endpoint for local development. Serves
// GET /credentials/{id}/status with the {revoked, valid} shape the
// revocation client consumes.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

const defaultPort = "9091"

type StatusResponse struct {
	CredentialID string `json:"credentialId"`
	Revoked      bool   `json:"revoked"`
	Valid        bool   `json:"valid"`
}

// revokedIDs simulates a revocation list keyed by credential ID.
var revokedIDs = map[string]bool{
	"urn:credential:revoked-demo": true,
}

func main() {
	port := getEnv("PORT", defaultPort)

	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/credentials/", handleStatus)

	log.Printf("mock status registry starting on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "status-registry",
	})
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/credentials/")
	id, ok := strings.CutSuffix(path, "/status")
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}

	// Unknown IDs get 404 so the pipeline's "credential unknown to issuer"
	// branch can be exercised.
	if strings.HasPrefix(id, "urn:credential:unknown") {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{
		CredentialID: id,
		Revoked:      revokedIDs[id],
		Valid:        !revokedIDs[id],
	})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
