package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

//
// --- INDEXATION DES COMMANDES DANS ELASTICSEARCH ---
//

// OrderIndexer pousse les commandes dans l'index "orders" pour la recherche
// admin. Best-effort : une panne Elastic ne touche jamais le checkout.
type OrderIndexer struct{}

func NewOrderIndexer() *OrderIndexer {
	return &OrderIndexer{}
}

func (i *OrderIndexer) IndexOrder(o models.Order) {
	if database.Elastic == nil {
		log.Println("⚠️ Elastic non initialisé, commande non indexée:", o.OrderCode)
		return
	}

	data, _ := json.Marshal(o)
	req := esapi.IndexRequest{
		Index:      "orders",
		DocumentID: o.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		log.Println("❌ Erreur envoi Elastic:", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("⚠️ Elastic a renvoyé une erreur pour %s: %s", o.OrderCode, res.String())
	}
}

//
// --- RECHERCHE ADMIN ---
//

// SearchOrders recherche les commandes par code, utilisateur ou statut
func SearchOrders(query string) ([]map[string]interface{}, error) {
	if database.Elastic == nil {
		return nil, errors.New("client Elasticsearch non initialisé")
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"order_code", "user_id", "order_status", "payment_status"},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, err
	}

	res, err := database.Elastic.Search(
		database.Elastic.Search.WithContext(context.Background()),
		database.Elastic.Search.WithIndex("orders"),
		database.Elastic.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.New("erreur Elasticsearch: " + res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
