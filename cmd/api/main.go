package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/scythe504/chain-reaction-backend/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	srv, err := server.NewServer()
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}

	log.Printf("Server starting on http://localhost%s", srv.Addr)
	log.Fatal(srv.ListenAndServe())
}
