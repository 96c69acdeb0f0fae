package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/rainzhq/rainz/internal/api"
	"github.com/rainzhq/rainz/internal/ingest"
	"github.com/rainzhq/rainz/internal/models"
	"github.com/rainzhq/rainz/internal/providers"
	"github.com/rainzhq/rainz/internal/refine"
	"github.com/rainzhq/rainz/internal/store"
	"github.com/rainzhq/rainz/internal/weather"
)

var defaultLocations = []models.Location{
	{Name: "Austin", Latitude: 30.2672, Longitude: -97.7431, Active: true},
	{Name: "New York", Latitude: 40.7128, Longitude: -74.0060, Active: true},
	{Name: "Seattle", Latitude: 47.6062, Longitude: -122.3321, Active: true},
}

var cli struct {
	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name=env-file,help='Path to a .env file to load.'"`

	DB   string `help:"Path to SQLite database." default:"data/rainz.db"`
	Port string `help:"HTTP server port." default:"8080" env:"PORT"`

	WeatherAPIKey  string `help:"WeatherAPI.com API key." env:"WEATHERAPI_KEY"`
	OpenWeatherKey string `help:"OpenWeatherMap API key." env:"OPENWEATHER_KEY"`
	OpenAIKey      string `help:"OpenAI API key for forecast refinement (optional)." env:"OPENAI_API_KEY"`

	NoPoll bool `help:"Disable the snapshot scheduler (server only, for local dev)."`
	Once   bool `help:"Snapshot once and exit (for testing)."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("rainz"),
		kong.Description("Multi-source weather aggregation and ensemble forecast service."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	for _, loc := range defaultLocations {
		if _, err := st.UpsertLocation(loc); err != nil {
			log.Fatalf("upsert location %s: %v", loc.Name, err)
		}
	}
	log.Println("locations seeded")

	var ps []providers.Provider
	if cli.WeatherAPIKey != "" {
		ps = append(ps, providers.NewWeatherAPI(cli.WeatherAPIKey))
	}
	if cli.OpenWeatherKey != "" {
		ps = append(ps, providers.NewOpenWeather(cli.OpenWeatherKey))
	}
	ps = append(ps, providers.NewOpenMeteo())
	log.Printf("registered %d weather providers", len(ps))

	var refiner weather.Refiner
	if r, err := refine.New(cli.OpenAIKey); err != nil {
		log.Printf("forecast refinement disabled: %v", err)
	} else {
		refiner = r
	}

	ws := weather.NewService(ps, refiner)
	ensembleClient := providers.NewEnsembleClient()
	scheduler := ingest.NewScheduler(st, ws, ensembleClient)
	server := api.NewServer(ws, ensembleClient, st, cli.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cli.Once {
		log.Println("running single snapshot")
		scheduler.SnapshotAggregations(ctx)
		scheduler.SnapshotEnsembles(ctx)
		log.Println("done")
		return
	}

	if !cli.NoPoll {
		go func() {
			if err := scheduler.Run(ctx); err != nil {
				log.Printf("scheduler: %v", err)
			}
		}()
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
