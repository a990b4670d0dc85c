package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/mediaconvert"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/upcastmedia/vodpipe/internal/app"
	"github.com/upcastmedia/vodpipe/internal/config"
	"github.com/upcastmedia/vodpipe/internal/domain/repository"
	"github.com/upcastmedia/vodpipe/internal/infrastructure/delivery"
	"github.com/upcastmedia/vodpipe/internal/infrastructure/objectstore"
	"github.com/upcastmedia/vodpipe/internal/infrastructure/persistence"
	"github.com/upcastmedia/vodpipe/internal/infrastructure/transcoding"
)

var (
	addr = flag.String("addr", "", "web server address (overrides ADDR)")
	cert = flag.String("cert", "", "path of TLS certificate file (overrides CERT_FILE)")
	key  = flag.String("key", "", "path of TLS private key file (overrides CERT_KEY)")
)

func main() {
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "vodpipe").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *cert != "" {
		cfg.CertFile = *cert
	}
	if *key != "" {
		cfg.KeyFile = *key
	}

	// One shared session; retries happen in this codebase, not in the SDK.
	sess := session.Must(session.NewSession(&aws.Config{
		Region:     aws.String(cfg.AWSRegion),
		MaxRetries: aws.Int(0),
	}))

	store := objectstore.NewGateway(s3.New(sess), cfg.InputBucket, cfg.RequestTimeout, cfg.PartURLConcurrency, logger)
	signer, err := delivery.NewSigner(cfg.CloudFrontDomain, cfg.CloudFrontKeyPairID, cfg.CloudFrontPrivateKeyFile, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot build delivery signer")
	}
	orchestrator := transcoding.NewOrchestrator(
		mediaconvert.New(sess, aws.NewConfig().WithEndpoint(cfg.MediaConvertEndpoint)),
		cfg.InputBucket, cfg.MediaConvertRole, cfg.RequestTimeout, logger)

	var uploads repository.UploadRepository
	if cfg.UploadTable != "" {
		uploads = persistence.NewUploadRepository(dynamodb.New(sess), cfg.UploadTable, cfg.RequestTimeout, logger)
	} else {
		logger.Warn().Msg("AWS_DB_VOD_NAME is unset, upload records are disabled")
	}

	r := mux.NewRouter()
	app.SetupRoutes(r, app.NewController(store, signer, orchestrator, uploads, cfg.Env, logger))

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	logger.Info().Str("addr", cfg.Addr).Str("env", string(cfg.Env)).Msg("server started")

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		err = srv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	logger.Fatal().Err(err).Msg("server stopped")
}
