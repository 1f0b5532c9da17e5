package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/rm-hull/circle-mockup/internal"
	"github.com/rm-hull/circle-mockup/internal/api"
	"github.com/rm-hull/circle-mockup/internal/imagen"
	"github.com/rm-hull/circle-mockup/internal/studio"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"
)

func ApiServer(port int, debug bool, opts RenderOptions) {
	internal.Startup()

	renderer, err := opts.Renderer()
	if err != nil {
		log.Fatal(err)
	}

	var generator imagen.Client
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		generator = imagen.NewClient(apiKey)
	} else {
		log.Println("WARNING: GEMINI_API_KEY environment variable not set, image generation is disabled.")
	}

	r := gin.New()

	prometheus := ginprom.New(
		ginprom.Engine(r),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prometheus.Instrument(),
	)

	if debug {
		log.Println("WARNING: pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err = healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{})
	if err != nil {
		log.Fatalf("failed to initialize healthcheck: %v", err)
	}

	api.New(renderer, generator, studio.New(renderer), DefaultModel()).Register(r)

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting HTTP API Server on port %d...", port)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP API Server failed to start on port %d: %v", port, err)
	}
}
