// Command server runs two demo subgraphs on one listener: a bookstore
// service exposed at /stores and an author service at /authors. Point the
// gateway at them to exercise introspection and composition; the serve
// command adds no extend bindings, so the hidden authors service contributes
// only its types:
//
//	go run ./tests/bookstore/server -addr :9090
//	graphmesh serve -subgraph stores=http://localhost:9090/stores \
//	               -subgraph.hidden authors=http://localhost:9090/authors
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/graphmesh/graphmesh/internal/language"
)

type book struct {
	Title    string `json:"title"`
	AuthorID int    `json:"authorId"`
}

type author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var books = []book{
	{Title: "The Left Hand of Darkness", AuthorID: 1},
	{Title: "The Dispossessed", AuthorID: 1},
	{Title: "Solaris", AuthorID: 2},
}

var authors = []author{
	{ID: 1, Name: "Ursula K. Le Guin"},
	{ID: 2, Name: "Stanisław Lem"},
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/stores", subgraphHandler(storesIntrospection, resolveStores))
	mux.HandleFunc("/authors", subgraphHandler(authorsIntrospection, resolveAuthors))

	log.Printf("demo subgraphs listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

type resolver func(f *language.Field) (any, error)

func subgraphHandler(introspection string, resolve resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		if strings.Contains(req.Query, "__schema") {
			_, _ = w.Write([]byte(introspection))
			return
		}

		doc, err := language.ParseQuery(req.Query)
		if err != nil {
			writeErrors(w, err.Error())
			return
		}
		if len(doc.Operations) != 1 {
			writeErrors(w, "expected a single operation")
			return
		}

		data := map[string]any{}
		for _, sel := range doc.Operations[0].SelectionSet {
			f, ok := sel.(*language.Field)
			if !ok {
				continue
			}
			v, err := resolve(f)
			if err != nil {
				writeErrors(w, err.Error())
				return
			}
			key := f.Alias
			if key == "" {
				key = f.Name
			}
			data[key] = v
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}
}

func writeErrors(w http.ResponseWriter, msg string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":   nil,
		"errors": []map[string]any{{"message": msg}},
	})
}

func resolveStores(f *language.Field) (any, error) {
	switch f.Name {
	case "books":
		out := make([]map[string]any, len(books))
		for i, b := range books {
			out[i] = map[string]any{"title": b.Title, "authorId": b.AuthorID}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown field %q", f.Name)
}

func resolveAuthors(f *language.Field) (any, error) {
	switch f.Name {
	case "getAuthors":
		ids := map[int]bool{}
		for _, arg := range f.Arguments {
			if arg.Name != "ids" {
				continue
			}
			for _, child := range arg.Value.Children {
				var id int
				_, _ = fmt.Sscanf(child.Value.Raw, "%d", &id)
				ids[id] = true
			}
		}
		out := []map[string]any{}
		for _, a := range authors {
			if len(ids) == 0 || ids[a.ID] {
				out = append(out, map[string]any{"id": a.ID, "name": a.Name})
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown field %q", f.Name)
}

const storesIntrospection = `{"data":{"__schema":{
  "queryType":{"name":"Query"},"mutationType":null,"subscriptionType":null,
  "types":[
    {"kind":"OBJECT","name":"Query","fields":[
      {"name":"books","args":[],"type":{"kind":"LIST","name":null,"ofType":{"kind":"OBJECT","name":"Book","ofType":null}},"isDeprecated":false,"deprecationReason":null}
    ],"inputFields":null,"interfaces":[],"enumValues":null,"possibleTypes":null},
    {"kind":"OBJECT","name":"Book","fields":[
      {"name":"title","args":[],"type":{"kind":"SCALAR","name":"String","ofType":null},"isDeprecated":false,"deprecationReason":null},
      {"name":"authorId","args":[],"type":{"kind":"SCALAR","name":"Int","ofType":null},"isDeprecated":false,"deprecationReason":null}
    ],"inputFields":null,"interfaces":[],"enumValues":null,"possibleTypes":null}
  ]
}}}`

const authorsIntrospection = `{"data":{"__schema":{
  "queryType":{"name":"Query"},"mutationType":null,"subscriptionType":null,
  "types":[
    {"kind":"OBJECT","name":"Query","fields":[
      {"name":"getAuthors","args":[
        {"name":"ids","type":{"kind":"LIST","name":null,"ofType":{"kind":"SCALAR","name":"Int","ofType":null}},"defaultValue":null}
      ],"type":{"kind":"LIST","name":null,"ofType":{"kind":"OBJECT","name":"Author","ofType":null}},"isDeprecated":false,"deprecationReason":null}
    ],"inputFields":null,"interfaces":[],"enumValues":null,"possibleTypes":null},
    {"kind":"OBJECT","name":"Author","fields":[
      {"name":"id","args":[],"type":{"kind":"SCALAR","name":"Int","ofType":null},"isDeprecated":false,"deprecationReason":null},
      {"name":"name","args":[],"type":{"kind":"SCALAR","name":"String","ofType":null},"isDeprecated":false,"deprecationReason":null}
    ],"inputFields":null,"interfaces":[],"enumValues":null,"possibleTypes":null}
  ]
}}}`
