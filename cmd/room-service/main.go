// Package main — room-service entry point (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/prathamsaiya01/apna-adda-1/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
