// Package cli implements the flightmix field-editing surface: the mmix/smix
// mnemonics that shape the CUSTOM airframe, staged in a sibling of the
// settings file until an explicit save commits them.
package cli

import (
	"github.com/urfave/cli/v2"
)

// NewApp returns the flightmix CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:            "flightmix",
		Usage:           "edit and persist the control-surface mixer",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "settings",
				Aliases: []string{"s"},
				Usage:   "load and persist mixer settings at `FILE`",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "mixer",
				Usage:     "select the active airframe; with no argument, list the known tags",
				ArgsUsage: "[TAG]",
				Action:    MixerAction,
			},
			{
				Name:      "mmix",
				Usage:     "define one custom motor's weights, or reset the motor table",
				ArgsUsage: "reset | <slot> <throttle> <roll> <pitch> <yaw>",
				Action:    MotorMixAction,
			},
			{
				Name:      "smix",
				Usage:     "define one custom servo rule, or reset the servo table",
				ArgsUsage: "reset | <rule> <servo> <source> <rate> <speed> <min> <max>",
				Action:    ServoMixAction,
			},
			{
				Name:   "save",
				Usage:  "validate the staged mixer and commit it to the settings file",
				Action: SaveAction,
			},
			{
				Name:   "dump",
				Usage:  "print the committed mixer in CLI form",
				Action: DumpAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "staged",
						Usage: "print the staged, uncommitted mixer instead",
					},
				},
			},
		},
	}
}
