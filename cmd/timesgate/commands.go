package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"timesgate/internal/domain"
)

func parseToggle(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "1", "start", "enable", "enabled":
		return true, nil
	case "off", "false", "0", "stop", "disable", "disabled":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", arg)
}

func parseInts(args []string, names ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer, got %q", names[i], a)
		}
		out[i] = n
	}
	return out, nil
}

// toggleCmd builds a command taking one on/off argument sent as field.
func toggleCmd(use, short string, action domain.Action, field string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <on|off>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseToggle(args[0])
			if err != nil {
				return err
			}
			return run(cmd, action, map[string]bool{field: on})
		},
	}
}

func queryCmd(use, short string, action domain.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, action, nil)
		},
	}
}

func deviceCommands() []*cobra.Command {
	brightness := &cobra.Command{
		Use:   "brightness <0-100>",
		Short: "Set display brightness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseInts(args, "brightness")
			if err != nil {
				return err
			}
			return run(cmd, domain.ActionSetBrightness, map[string]int{"brightness": v[0]})
		},
	}

	var utc int64
	setTime := &cobra.Command{
		Use:   "set-time",
		Short: "Set the device clock, now unless --utc is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := map[string]any{}
			if cmd.Flags().Changed("utc") {
				params["utc"] = utc
			}
			return run(cmd, domain.ActionSetDeviceTime, params)
		},
	}
	setTime.Flags().Int64Var(&utc, "utc", 0, "unix timestamp in seconds")

	timezone := &cobra.Command{
		Use:   "timezone <zone>",
		Short: "Set the time zone, e.g. GMT-5",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, domain.ActionSetTimezone, map[string]string{"timezone": args[0]})
		},
	}

	temperature := &cobra.Command{
		Use:   "temperature <celsius|fahrenheit>",
		Short: "Set the temperature unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, domain.ActionSetTemperatureMode, map[string]string{"mode": strings.ToLower(args[0])})
		},
	}

	timeFormat := &cobra.Command{
		Use:   "time-format <12h|24h>",
		Short: "Set 12 or 24 hour clock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, domain.ActionSetTimeFormat, map[string]string{"format": strings.ToLower(args[0])})
		},
	}

	weather := &cobra.Command{
		Use:   "weather-location <latitude> <longitude>",
		Short: "Set coordinates for the weather display",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("latitude must be a number, got %q", args[0])
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("longitude must be a number, got %q", args[1])
			}
			return run(cmd, domain.ActionSetWeatherLocation, map[string]float64{"latitude": lat, "longitude": lon})
		},
	}

	return []*cobra.Command{
		brightness,
		queryCmd("settings", "Show all device settings", domain.ActionGetSettings),
		setTime,
		queryCmd("time", "Show the device time", domain.ActionGetDeviceTime),
		timezone,
		temperature,
		toggleCmd("mirror", "Turn mirror mode on or off", domain.ActionSetMirrorMode, "enabled"),
		timeFormat,
		toggleCmd("screen", "Turn the screen on or off", domain.ActionSetScreenPower, "enabled"),
		weather,
		queryCmd("reboot", "Reboot the device", domain.ActionReboot),
	}
}

func displayCommands() []*cobra.Command {
	var panel int
	dial := &cobra.Command{
		Use:   "dial <clock-id>",
		Short: "Select a clock face, on every panel or on one with --panel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseInts(args, "clock id")
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("panel") {
				return run(cmd, domain.ActionSetIndividualDial, map[string]int{"panel": panel, "clock_id": v[0]})
			}
			return run(cmd, domain.ActionSetWholeDial, map[string]int{"clock_id": v[0]})
		},
	}
	dial.Flags().IntVar(&panel, "panel", 0, "panel 1-5 (left, top, right, bottom, center)")

	text := newTextCmd()

	var clearID int
	clearText := &cobra.Command{
		Use:   "clear-text",
		Short: "Remove displayed text, all items unless --id is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := map[string]int{}
			if cmd.Flags().Changed("id") {
				params["text_id"] = clearID
			}
			return run(cmd, domain.ActionClearText, params)
		},
	}
	clearText.Flags().IntVar(&clearID, "id", domain.AllTextIDs, "text id to remove")

	gif := &cobra.Command{
		Use:   "gif <url>",
		Short: "Play a GIF fetched by the device from url",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, domain.ActionPlayGIF, map[string]string{"url": args[0]})
		},
	}

	return []*cobra.Command{
		queryCmd("channel", "Show the current channel", domain.ActionGetChannelInfo),
		dial,
		queryCmd("dials", "List the clock faces", domain.ActionGetDialList),
		text,
		clearText,
		gif,
		queryCmd("fonts", "List the device fonts", domain.ActionGetFontList),
	}
}

func newTextCmd() *cobra.Command {
	var (
		id, x, y, dir, font, width, speed, align int
		color                                    string
	)
	cmd := &cobra.Command{
		Use:   "text <message>",
		Short: "Show text on the display",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{"text": args[0]}
			set := func(flag, key string, v any) {
				if cmd.Flags().Changed(flag) {
					params[key] = v
				}
			}
			set("id", "text_id", id)
			set("x", "x", x)
			set("y", "y", y)
			set("direction", "direction", dir)
			set("font", "font", font)
			set("width", "width", width)
			set("speed", "speed", speed)
			set("color", "color", color)
			set("align", "align", align)
			return run(cmd, domain.ActionSendText, params)
		},
	}

	f := cmd.Flags()
	f.IntVar(&id, "id", 1, "text id 0-19")
	f.IntVar(&x, "x", 0, "x position")
	f.IntVar(&y, "y", 0, "y position")
	f.IntVar(&dir, "direction", 0, "scroll direction: 0 left, 1 right")
	f.IntVar(&font, "font", 2, "font size 0-4")
	f.IntVar(&width, "width", 64, "text width 1-64")
	f.IntVar(&speed, "speed", 0, "scroll speed 0-100, 0 is static")
	f.StringVar(&color, "color", "#FFFFFF", "#RRGGBB color")
	f.IntVar(&align, "align", 1, "alignment: 0 left, 1 center, 2 right")
	return cmd
}

func toolCommands() []*cobra.Command {
	var stop bool
	countdown := &cobra.Command{
		Use:   "countdown <minutes> <seconds>",
		Short: "Start, or with --stop stop, the countdown timer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseInts(args, "minutes", "seconds")
			if err != nil {
				return err
			}
			return run(cmd, domain.ActionSetCountdown, map[string]any{"minutes": v[0], "seconds": v[1], "start": !stop})
		},
	}
	countdown.Flags().BoolVar(&stop, "stop", false, "stop instead of start")

	scoreboard := &cobra.Command{
		Use:   "scoreboard <red> <blue>",
		Short: "Show the scoreboard",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseInts(args, "red score", "blue score")
			if err != nil {
				return err
			}
			return run(cmd, domain.ActionSetScoreboard, map[string]int{"red": v[0], "blue": v[1]})
		},
	}

	var on, off, total int64
	buzzer := &cobra.Command{
		Use:   "buzzer",
		Short: "Sound the buzzer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := map[string]int64{}
			if cmd.Flags().Changed("on") {
				params["on_ms"] = on
			}
			if cmd.Flags().Changed("off") {
				params["off_ms"] = off
			}
			if cmd.Flags().Changed("total") {
				params["total_ms"] = total
			}
			return run(cmd, domain.ActionPlayBuzzer, params)
		},
	}
	buzzer.Flags().Int64Var(&on, "on", 500, "on time per cycle in ms")
	buzzer.Flags().Int64Var(&off, "off", 500, "off time per cycle in ms")
	buzzer.Flags().Int64Var(&total, "total", 2000, "total play time in ms")

	return []*cobra.Command{
		countdown,
		toggleCmd("stopwatch", "Start or stop the stopwatch", domain.ActionSetStopwatch, "start"),
		scoreboard,
		toggleCmd("noise", "Turn the noise meter on or off", domain.ActionSetNoiseMeter, "enabled"),
		buzzer,
	}
}

func advancedCommands() []*cobra.Command {
	raw := &cobra.Command{
		Use:   "raw <json>",
		Short: `Send a raw command, e.g. '{"Command":"Channel/GetAllConf"}'`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, domain.ActionRaw, json.RawMessage(args[0]))
		},
	}

	commandList := &cobra.Command{
		Use:   "command-list <json-array>",
		Short: "Send several commands in one request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cmds []json.RawMessage
			if err := json.Unmarshal([]byte(args[0]), &cmds); err != nil {
				return fmt.Errorf("command list must be a JSON array: %w", err)
			}
			return run(cmd, domain.ActionSendCommandList, map[string]any{"commands": cmds})
		},
	}

	var level string
	notify := &cobra.Command{
		Use:   "notify <message>",
		Short: "Beep and show an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, domain.ActionNotify, map[string]string{"message": args[0], "level": level})
		},
	}
	notify.Flags().StringVarP(&level, "level", "l", "info", "info, warning, error or success")

	return []*cobra.Command{raw, commandList, notify}
}
