package cli

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/tailless/flightmix/mixer"
	"github.com/tailless/flightmix/mixer/airframes"
	"github.com/tailless/flightmix/settings"
)

func settingsPath(c *cli.Context) string {
	if path := c.String("settings"); path != "" {
		return path
	}
	return settings.DefaultPath
}

func stagedPath(c *cli.Context) string {
	return settingsPath(c) + ".staged"
}

// loadStaged returns the settings the next edit applies to: the staged file
// if one exists, otherwise the committed file, otherwise the defaults.
func loadStaged(c *cli.Context) (*settings.Settings, error) {
	for _, path := range []string{stagedPath(c), settingsPath(c)} {
		s, err := settings.Read(path)
		if err == nil {
			return s, nil
		}
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
	}
	return settings.Default(), nil
}

func writeStaged(c *cli.Context, s *settings.Settings) error {
	return settings.Write(stagedPath(c), s)
}

// MixerAction selects the airframe tag, or lists the known tags when called
// without an argument.
func MixerAction(c *cli.Context) error {
	if c.NArg() == 0 {
		for _, tag := range airframes.Tags() {
			fmt.Fprintln(c.App.Writer, tag)
		}
		fmt.Fprintln(c.App.Writer, settings.CustomTag)
		return nil
	}
	tag := strings.ToUpper(c.Args().First())
	if _, ok := airframes.Lookup(tag); !ok && tag != settings.CustomTag {
		return errors.Errorf("unknown airframe tag %q", tag)
	}
	s, err := loadStaged(c)
	if err != nil {
		return err
	}
	s.Mixer = tag
	return writeStaged(c, s)
}

// MotorMixAction defines one motor's weights: mmix <slot> <t> <r> <p> <y>,
// each weight a fraction in [-1.0, 1.0]. "mmix reset" clears the table.
func MotorMixAction(c *cli.Context) error {
	s, err := loadStaged(c)
	if err != nil {
		return err
	}
	if c.NArg() == 1 && strings.EqualFold(c.Args().First(), "reset") {
		s.ResetMotorMix()
		return writeStaged(c, s)
	}
	if c.NArg() != 5 {
		return errors.New("usage: mmix reset | mmix <slot> <throttle> <roll> <pitch> <yaw>")
	}
	args := c.Args().Slice()
	slot, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrapf(err, "bad motor slot %q", args[0])
	}
	var weights [4]int16
	for i, arg := range args[1:] {
		w, err := parseWeight(arg)
		if err != nil {
			return err
		}
		weights[i] = w
	}
	if err := s.SetMotorMix(slot, settings.MotorMix{
		Throttle: weights[0],
		Roll:     weights[1],
		Pitch:    weights[2],
		Yaw:      weights[3],
	}); err != nil {
		return err
	}
	return writeStaged(c, s)
}

// ServoMixAction defines one servo rule:
// smix <rule> <servo> <source> <rate> <speed> <min> <max>, with rate a
// percent in [-100, 100]. "smix reset" clears the table.
func ServoMixAction(c *cli.Context) error {
	s, err := loadStaged(c)
	if err != nil {
		return err
	}
	if c.NArg() == 1 && strings.EqualFold(c.Args().First(), "reset") {
		s.ResetServoMix()
		return writeStaged(c, s)
	}
	if c.NArg() != 7 {
		return errors.New("usage: smix reset | smix <rule> <servo> <source> <rate> <speed> <min> <max>")
	}
	fields := make([]int, 7)
	for i, arg := range c.Args().Slice() {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return errors.Wrapf(err, "bad smix field %q", arg)
		}
		fields[i] = v
	}
	if err := s.SetServoMix(fields[0], settings.ServoMix{
		Servo:  fields[1],
		Source: fields[2],
		Rate:   int16(fields[3]),
		Speed:  int16(fields[4]),
		Min:    int16(fields[5]),
		Max:    int16(fields[6]),
	}); err != nil {
		return err
	}
	return writeStaged(c, s)
}

// SaveAction validates that the staged settings load into an airframe and
// commits them to the settings file.
func SaveAction(c *cli.Context) error {
	staged := stagedPath(c)
	s, err := settings.Read(staged)
	if os.IsNotExist(errors.Cause(err)) {
		return errors.New("nothing staged to save")
	}
	if err != nil {
		return err
	}
	af, err := airframes.LoadSelected(s)
	if err != nil {
		return err
	}
	if err := settings.Write(settingsPath(c), s); err != nil {
		return err
	}
	if err := os.Remove(staged); err != nil && !os.IsNotExist(err) {
		return err
	}
	fmt.Fprintf(c.App.Writer, "saved mixer %s (%d motors, %d servos)\n",
		af.Tag(), af.MotorCount(), af.ServoCount())
	return nil
}

// DumpAction prints the committed (or staged) mixer back in CLI form.
func DumpAction(c *cli.Context) error {
	path := settingsPath(c)
	if c.Bool("staged") {
		path = stagedPath(c)
	}
	s, err := settings.Read(path)
	if os.IsNotExist(errors.Cause(err)) {
		s = settings.Default()
	} else if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "mixer %s\n", s.Mixer)
	for slot, m := range s.MotorMix {
		fmt.Fprintf(c.App.Writer, "mmix %d %s %s %s %s\n", slot,
			fmtWeight(m.Throttle), fmtWeight(m.Roll), fmtWeight(m.Pitch), fmtWeight(m.Yaw))
	}
	for rule, r := range s.ServoMix {
		fmt.Fprintf(c.App.Writer, "smix %d %d %d %d %d %d %d\n",
			rule, r.Servo, r.Source, r.Rate, r.Speed, r.Min, r.Max)
	}
	return nil
}

// parseWeight converts a fractional CLI weight in [-1.0, 1.0] to the ×1000
// fixed point the mixer uses.
func parseWeight(arg string) (int16, error) {
	f, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "bad weight %q", arg)
	}
	if f < -1 || f > 1 {
		return 0, errors.Errorf("weight %q out of range [-1.0,1.0]", arg)
	}
	return int16(math.Round(f * mixer.FullScale)), nil
}

func fmtWeight(w int16) string {
	return strconv.FormatFloat(float64(w)/mixer.FullScale, 'f', 3, 64)
}
