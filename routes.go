package memberauth

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// Router returns a gorilla/mux router with the local auth endpoints
// mounted. Mount it under your auth prefix:
//
//	r := mux.NewRouter()
//	r.PathPrefix("/auth").Handler(http.StripPrefix("/auth", localAuth.Router()))
func (a *LocalAuth) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/login", a).Methods(http.MethodPost)
	r.HandleFunc("/logout", a.HandleLogout).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/forgot-password", a.HandleForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/reset-password", a.HandleResetPassword).Methods(http.MethodPost)
	r.HandleFunc("/change-password", a.HandleChangePassword).Methods(http.MethodPost)
	r.HandleFunc("/link-password", a.HandleSetLocalPassword).Methods(http.MethodPost)
	return r
}

// ProvidersHandler serves the configured provider registry as read-only
// JSON (name and display name only; client handles and secrets stay
// server-side).
func ProvidersHandler(registry *ProviderRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type providerInfo struct {
			Name        string         `json:"name"`
			DisplayName string         `json:"display_name"`
			Extra       map[string]any `json:"extra,omitempty"`
		}
		var out []providerInfo
		for _, c := range registry.All() {
			out = append(out, providerInfo{Name: c.Name, DisplayName: c.DisplayName, Extra: c.Extra})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"providers": out})
	}
}
