package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/sciapp/notebook-templates/internal/auth"
	"github.com/sciapp/notebook-templates/internal/catalog"
	"github.com/sciapp/notebook-templates/internal/config"
	"github.com/sciapp/notebook-templates/internal/hub"
	"github.com/sciapp/notebook-templates/internal/sink"
	"github.com/sciapp/notebook-templates/internal/web"
	"github.com/sciapp/notebook-templates/internal/workflow"
	"github.com/sciapp/notebook-templates/pkg/db"
	"github.com/sciapp/notebook-templates/pkg/token"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cat, err := catalog.Discover(cfg.TemplateDir)
	if err != nil {
		log.Fatalf("discover templates: %v", err)
	}
	log.Printf("discovered %d templates under %s", cat.Len(), cfg.TemplateDir)

	secret, err := cfg.Secret()
	if err != nil {
		log.Fatalf("signing secret: %v", err)
	}
	codec := token.NewCodec(secret)

	maxAge, err := cfg.MaxAge()
	if err != nil {
		log.Fatalf("token max age: %v", err)
	}

	collab := workflow.Collaborators{
		HubURLs: hub.None{},
		Gate:    auth.Open{},
	}
	switch cfg.Sink.Kind {
	case "filesystem":
		fs := &sink.Filesystem{Dir: cfg.Sink.Dir}
		collab.Destinations, collab.Sink = fs, fs
	case "inline":
		var inline sink.Inline
		collab.Destinations, collab.Sink = inline, inline
	case "postgres":
		pool, err := db.Connect(context.Background(), cfg.Sink.DatabaseURL)
		if err != nil {
			log.Fatalf("connect database: %v", err)
		}
		pg := &sink.Postgres{DB: pool}
		collab.Destinations, collab.Sink = pg, pg
	default:
		log.Fatalf("unknown sink kind %q", cfg.Sink.Kind)
	}
	if cfg.Hub.BaseURL != "" {
		collab.HubURLs = &hub.Static{BaseURL: cfg.Hub.BaseURL, User: cfg.Hub.User}
	}

	var sessions *auth.Sessions
	if len(cfg.Auth.Users) > 0 {
		sessions = &auth.Sessions{Codec: codec, Users: cfg.Auth.Users}
		collab.Gate = sessions
	}

	wf := workflow.New(cat, codec, collab, maxAge)
	handler, err := web.New(wf, sessions)
	if err != nil {
		log.Fatalf("build router: %v", err)
	}

	log.Printf("listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatal(err)
	}
}
