package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/woozymasta/atollmap/internal/dataset"
	"github.com/woozymasta/atollmap/internal/logger"
	"github.com/woozymasta/atollmap/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Document string `short:"d" long:"document" env:"DOCUMENT_FILE"  description:"JSON document written by convert" default:"maldives_projects.json"`
	TilesDir string `short:"t" long:"tiles"    env:"TILES_DIR"      description:"Overlay tiles directory"          default:"tiles"`
	Addr     string `short:"a" long:"addr"     env:"LISTEN_ADDRESS" description:"Address to listen on"             default:"0.0.0.0"`
	Port     int    `short:"p" long:"port"     env:"LISTEN_PORT"    description:"Port to listen on"                default:"8080"`
}

func main() {
	_ = godotenv.Load(".env.local")

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	doc, err := dataset.ReadFile(opts.Document)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Document).Msg("Failed to load document")
	}

	srvCtx, err := server.NewServerContext(doc, opts.TilesDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	handler := server.RequestLogger(srvCtx.Routes())

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Int("islands", doc.Metadata.TotalIslands).
		Str("dataset_id", doc.Metadata.DatasetID).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
