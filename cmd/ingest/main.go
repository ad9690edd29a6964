package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/config"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/ingest"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/repository/postgres"
	"github.com/aryankhare2110/NSS-Bloodlink/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	if cfg.Ingest.DriveCredentialsFile == "" {
		log.Fatal("INGEST_DRIVE_CREDENTIALS_FILE is required")
	}
	credentials, err := os.ReadFile(cfg.Ingest.DriveCredentialsFile)
	if err != nil {
		log.Fatalf("Failed to read drive credentials: %v", err)
	}

	// Initialize Google Drive client
	driveClient, err := ingest.NewDriveClient(credentials)
	if err != nil {
		log.Fatalf("Failed to initialize Google Drive client: %v", err)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	demandRepo := postgres.NewDemandRepository(db)
	ingestor := ingest.NewIngestor(driveClient, demandRepo)

	// Register routes
	r := mux.NewRouter()
	handler := ingest.NewHandler(driveClient, ingestor, cfg.Ingest.DriveFolderID)
	handler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Ingest.Port)
	log.Printf("Ingest server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
