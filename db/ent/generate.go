//go:build ignore

package main

import (
	"log"

	"entgo.io/ent/entc"
	"entgo.io/ent/entc/gen"
)

// Generates a typed client for the run table into gen/ent. The repository
// package builds its queries from the schema descriptors and does not need it.
func main() {
	err := entc.Generate(
		"./db/ent/schema",
		&gen.Config{
			Target:  "gen/ent",
			Package: "github.com/joseph-ayodele/invoice-extractor/gen/ent",
			Schema:  "github.com/joseph-ayodele/invoice-extractor/db/ent/schema",
		},
	)
	if err != nil {
		log.Fatal(err)
	}
}
