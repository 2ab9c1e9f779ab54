// Command catalogfixture serves a small bundled set of card printings over
// HTTP, standing in for a real card-catalog provider during local
// development (internal/catalogclient is the engine-side consumer of this
// contract). Grounded on the teacher's internal/delivery/http router and
// card_handler.go, using gorilla/mux as that package does, since the
// primary game API already claims gin for itself.
package main

import (
	"embed"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"mtgserver/internal/engine/domain"
)

//go:embed fixtures/*.json
var fixturesFS embed.FS

type catalog struct {
	byID   map[string]domain.Card
	byName map[string]domain.Card
}

func loadCatalog() (*catalog, error) {
	raw, err := fixturesFS.ReadFile("fixtures/cards.json")
	if err != nil {
		return nil, fmt.Errorf("read fixtures/cards.json: %w", err)
	}
	var cards []domain.Card
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("decode fixtures/cards.json: %w", err)
	}
	c := &catalog{byID: map[string]domain.Card{}, byName: map[string]domain.Card{}}
	for _, card := range cards {
		c.byID[card.ID] = card
		c.byName[card.Name] = card
	}
	return c, nil
}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	flag.Parse()

	cat, err := loadCatalog()
	if err != nil {
		log.Fatalf("load catalog fixture: %v", err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "catalogfixture"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/cards/by-name/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		card, ok := cat.byName[name]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "card not found"})
			return
		}
		writeJSON(w, http.StatusOK, card)
	}).Methods(http.MethodGet)

	r.HandleFunc("/cards/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		card, ok := cat.byID[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "card not found"})
			return
		}
		writeJSON(w, http.StatusOK, card)
	}).Methods(http.MethodGet)

	r.HandleFunc("/cards/bulk-by-name", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Names []string `json:"names"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		out := map[string]domain.Card{}
		for _, name := range req.Names {
			if card, ok := cat.byName[name]; ok {
				out[name] = card
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"cards": out})
	}).Methods(http.MethodPost)

	log.Printf("catalog fixture listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, r))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
