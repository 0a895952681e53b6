// Package main runs the mixer control loop against a live input source,
// reloading the airframe whenever the settings file is re-saved.
package main

import (
	"context"
	"os"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"github.com/tailless/flightmix/actuator"
	"github.com/tailless/flightmix/input"
	"github.com/tailless/flightmix/input/ibus"
	"github.com/tailless/flightmix/input/mavlink"
	"github.com/tailless/flightmix/loop"
	"github.com/tailless/flightmix/mixer/airframes"
	"github.com/tailless/flightmix/settings"
)

var logger = golog.NewDevelopmentLogger("mixloop")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, _ golog.Logger) error {
	app := &cli.App{
		Name:  "mixloop",
		Usage: "run the control-surface mixer loop",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "settings",
				Aliases: []string{"s"},
				Usage:   "mixer settings `FILE`",
			},
			&cli.Float64Flag{
				Name:  "frequency",
				Value: 500,
				Usage: "cycle rate in Hz",
			},
			&cli.StringFlag{
				Name:  "input",
				Value: "ibus",
				Usage: "input source: ibus or mavlink",
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "serial `PORT` of the ibus receiver",
			},
			&cli.StringFlag{
				Name:  "udp",
				Value: "127.0.0.1:14550",
				Usage: "UDP `ADDRESS` of the mavlink endpoint",
			},
		},
		Action: runLoop,
	}
	return app.RunContext(ctx, args)
}

func runLoop(c *cli.Context) error {
	ctx := c.Context

	path := c.String("settings")
	if path == "" {
		path = settings.DefaultPath
	}
	s, err := settings.Read(path)
	if os.IsNotExist(errors.Cause(err)) {
		s = settings.Default()
	} else if err != nil {
		return err
	}
	af, err := airframes.LoadSelected(s)
	if err != nil {
		return err
	}
	logger.Infow("loaded airframe", "tag", af.Tag(), "motors", af.MotorCount(), "servos", af.ServoCount())

	src, closeNode, err := openSource(c)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(src.Close)
	if closeNode != nil {
		defer closeNode()
	}

	sink, err := actuator.NewPWMSink(actuator.PWMConfig{
		Motors: af.MotorCount(),
		Servos: af.ServoCount(),
	}, pulseLogger{})
	if err != nil {
		return err
	}

	l, err := loop.New(loop.Config{Frequency: c.Float64("frequency")}, af, src, sink, logger)
	if err != nil {
		return err
	}
	if err := l.Start(); err != nil {
		return err
	}
	defer l.Stop()

	watcher, err := settings.NewWatcher(path, logger)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(watcher.Close)

	for {
		select {
		case <-ctx.Done():
			return nil
		case fresh := <-watcher.Changes():
			next, err := airframes.LoadSelected(fresh)
			if err != nil {
				logger.Errorw("keeping current airframe", "error", err)
				continue
			}
			l.SwapAirframe(next)
			logger.Infow("swapped airframe", "tag", next.Tag())
		}
	}
}

func openSource(c *cli.Context) (input.Source, func(), error) {
	switch c.String("input") {
	case "ibus":
		src, err := ibus.NewSource(ibus.Config{Port: c.String("port")}, logger)
		return src, nil, err
	case "mavlink":
		node, err := gomavlib.NewNode(gomavlib.NodeConf{
			Endpoints: []gomavlib.EndpointConf{
				gomavlib.EndpointUDPServer{Address: c.String("udp")},
			},
			Dialect:     common.Dialect,
			OutVersion:  gomavlib.V2,
			OutSystemID: 10,
		})
		if err != nil {
			return nil, nil, err
		}
		return mavlink.NewSource(node, logger), node.Close, nil
	}
	return nil, nil, errors.Errorf("unknown input source %q", c.String("input"))
}

// pulseLogger stands in for a board driver on hosts without output hardware.
type pulseLogger struct{}

func (pulseLogger) SetPulseWidth(_ context.Context, channel int, us uint) error {
	logger.Debugw("pulse", "channel", channel, "us", us)
	return nil
}
