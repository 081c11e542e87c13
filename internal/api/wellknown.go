package api

import "net/http"

// wellKnownManifest is the static JSON manifest for /.well-known/trellis.json.
const wellKnownManifest = `{
  "name": "Trellis",
  "description": "Plant-care tracker with shared gardens and care reminders",
  "version": "0.1.0",
  "api_base": "/api/v1",
  "auth": {
    "type": "bearer",
    "header": "Authorization"
  },
  "endpoints": {
    "gardens": "/api/v1/gardens",
    "plants": "/api/v1/plants",
    "care_upcoming": "/api/v1/care/upcoming",
    "weather_advisories": "/api/v1/weather/advisories",
    "identify": "/api/v1/plants/identify"
  },
  "health": "/health"
}`

// WellKnownHandler returns the static Trellis well-known manifest.
func WellKnownHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(wellKnownManifest))
}
