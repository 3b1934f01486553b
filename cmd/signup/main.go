package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"

	"signupgate/internal/platform/config"
	"signupgate/internal/platform/logger"
	"signupgate/internal/signup/client"
	"signupgate/internal/signup/metrics"
	"signupgate/internal/signup/models"
	"signupgate/internal/signup/service"
	"signupgate/internal/signup/terminal"
	"signupgate/internal/signup/validation"
	id "signupgate/pkg/domain"
)

// main runs one signup workflow interactively in the terminal. The -email,
// -name and -phone flags prefill the form the way the profile edit page does.
func main() {
	configPath := flag.String("config", config.PathFromEnv(), "path to YAML config")
	prefillEmail := flag.String("email", "", "prefill email")
	prefillName := flag.String("name", "", "prefill name")
	prefillPhone := flag.String("phone", "", "prefill mobile number")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	log := logger.NewWithWriter(cfg.Env, os.Stderr)
	if cfg.Env == config.EnvLocal {
		log = logger.Discard()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend := client.NewFromConfig(cfg.Backend, log, metrics.New(prometheus.NewRegistry()))
	presenter := terminal.NewPresenter(os.Stdout, cfg.Frontend.SignInURL())
	wf := service.New(id.NewWorkflowID(), service.Deps{
		Client:    backend,
		Submitter: backend,
		Validator: validation.New(),
		Navigator: presenter,
		Notifier:  presenter,
	}, service.WithLogger(log))

	wf.Prefill(ctx, models.Prefill{Email: *prefillEmail, Username: *prefillName, PhoneNumber: *prefillPhone})

	if err := terminal.NewSession(wf, presenter, os.Stdin, os.Stdout).Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
