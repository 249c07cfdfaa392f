package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/code-program/pkg/metrics"
)

const (
	logLevelFlag           = "log-level"
	newRelicAppNameFlag    = "new-relic-app-name"
	newRelicLicenseKeyFlag = "new-relic-license-key"
)

func main() {
	if err := newApp(os.Stdout).RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runner holds what the commands share once the app is configured.
type runner struct {
	log *logrus.Entry
	out io.Writer
	nr  *newrelic.Application
}

func (r *runner) context(c *cli.Context) context.Context {
	return metrics.NewContext(c.Context, r.nr)
}

func newApp(out io.Writer) *cli.App {
	r := &runner{
		log: logrus.StandardLogger().WithField("type", "cmd/counter"),
		out: out,
	}

	return &cli.App{
		Name:   "counter",
		Usage:  "encode, inspect and locally execute counter program instructions",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    logLevelFlag,
				Usage:   "logrus level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    newRelicAppNameFlag,
				EnvVars: []string{"NEW_RELIC_APP_NAME"},
				Value:   "counter",
			},
			&cli.StringFlag{
				Name:    newRelicLicenseKeyFlag,
				Usage:   "enables New Relic metrics and log forwarding when set",
				EnvVars: []string{"NEW_RELIC_LICENSE_KEY"},
			},
		},
		Before: r.setup,
		After:  r.teardown,
		Commands: []*cli.Command{
			encodeCommand(r),
			decodeCommand(r),
			addressCommand(r),
			errorCommand(r),
			simulateCommand(r),
		},
	}
}

func (r *runner) setup(c *cli.Context) error {
	if licenseKey := c.String(newRelicLicenseKeyFlag); len(licenseKey) > 0 {
		nr, err := newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(c.String(newRelicAppNameFlag)),
			newrelic.ConfigLicense(licenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			return errors.Wrap(err, "error connecting to new relic")
		}
		r.nr = nr
	}

	configureLogger(c.String(logLevelFlag), r.nr)
	return nil
}

func (r *runner) teardown(_ *cli.Context) error {
	if r.nr != nil {
		r.nr.Shutdown(5 * time.Second)
	}
	return nil
}

func configureLogger(logLevel string, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", logLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}
