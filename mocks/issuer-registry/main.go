// Mock issuer registry for local development. Serves the lookup contract the
// verification service consumes: GET /registry/issuers/did/{did}.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort      = "9090"
	defaultLatencyMs = "50"
)

type IssuerResponse struct {
	DID         string `json:"did"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	TrustStatus string `json:"trustStatus"`
	TrustLevel  string `json:"trustLevel"`
}

var issuers = map[string]IssuerResponse{
	"did:web:registry.gov.example": {
		DID:         "did:web:registry.gov.example",
		Name:        "Government Registry",
		Type:        "government",
		TrustStatus: "trusted",
		TrustLevel:  "high",
	},
	"did:web:university.example": {
		DID:         "did:web:university.example",
		Name:        "Example University",
		Type:        "educational",
		TrustStatus: "trusted",
		TrustLevel:  "high",
	},
	"did:web:issuer.partner.example": {
		DID:         "did:web:issuer.partner.example",
		Name:        "Partner Issuer",
		Type:        "commercial",
		TrustStatus: "pending",
		TrustLevel:  "medium",
	},
}

var latencyMs = getEnvInt("LATENCY_MS", defaultLatencyMs)

func main() {
	port := getEnv("PORT", defaultPort)

	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/registry/issuers/did/", handleIssuerLookup)

	log.Printf("mock issuer registry starting on port %s (latency %dms)", port, latencyMs)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "issuer-registry",
	})
}

func handleIssuerLookup(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)

	did := strings.TrimPrefix(r.URL.Path, "/registry/issuers/did/")
	w.Header().Set("Content-Type", "application/json")

	info, ok := issuers[strings.ToLower(did)]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "not_found",
			"message": "issuer is not registered",
		})
		return
	}
	json.NewEncoder(w).Encode(info)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key, fallback string) int {
	v := getEnv(key, fallback)
	n, err := strconv.Atoi(v)
	if err != nil {
		n, _ = strconv.Atoi(fallback)
	}
	return n
}
