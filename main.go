package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/stephankoppes/book-nest/internal/app"
	"github.com/stephankoppes/book-nest/internal/config"
	"github.com/stephankoppes/book-nest/internal/datastore"
	"github.com/stephankoppes/book-nest/internal/domain"
	"github.com/stephankoppes/book-nest/internal/supabase"
)

func main() {
	godotenv.Load(".env")
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var (
		auth    domain.Identity
		admin   domain.Identity
		clients app.SessionClients
	)
	switch cfg.Backend {
	case "memory":
		// Local development mode: everything in process, no backend.
		db := datastore.NewMemoryDB()
		covers := datastore.NewMemoryCovers("http://localhost" + cfg.Addr)
		identity := datastore.NewMemoryIdentity()
		auth = identity
		admin = identity
		clients = func(string) (domain.LibraryDatabase, domain.CoverStore) {
			return db, covers
		}
	case "supabase":
		if cfg.Supabase.URL == "" || cfg.Supabase.AnonKey == "" {
			log.Fatal("SUPABASE_URL and SUPABASE_ANON_KEY must be set")
		}
		client := supabase.New(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Supabase.CoverBucket)
		auth = client
		admin = supabase.NewAdmin(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey)
		clients = func(accessToken string) (domain.LibraryDatabase, domain.CoverStore) {
			c := client.WithToken(accessToken)
			return c, c
		}
	default:
		log.Fatalf("unknown backend %q", cfg.Backend)
	}

	a := app.New(cfg, auth, admin, clients)

	log.Printf("Listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, a.Handler()); err != nil {
		log.Fatal(err)
	}
}
