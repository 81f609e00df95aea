package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CommandName is the value of the "Command" discriminator field.
type CommandName string

const (
	CmdSetBrightness     CommandName = "Channel/SetBrightness"
	CmdGetAllConf        CommandName = "Channel/GetAllConf"
	CmdSetUTC            CommandName = "Device/SetUTC"
	CmdGetDeviceTime     CommandName = "Device/GetDeviceTime"
	CmdSetTimeZone       CommandName = "Sys/TimeZone"
	CmdSetTempMode       CommandName = "Device/SetDisTempMode"
	CmdSetMirrorMode     CommandName = "Device/SetMirrorMode"
	CmdSetTime24Flag     CommandName = "Device/SetTime24Flag"
	CmdOnOffScreen       CommandName = "Channel/OnOffScreen"
	CmdSetLogAndLat      CommandName = "Sys/LogAndLat"
	CmdReboot            CommandName = "Device/Reboot"
	CmdGetCurChannelInfo CommandName = "Channel/GetCurChannelInfo"
	CmdSetWholeDial      CommandName = "Channel/SetWholeDial"
	CmdGetWholeDial      CommandName = "Channel/GetWholeDial"
	CmdSetIndividualDial CommandName = "Channel/SetIndividualDial"
	CmdSendHTTPText      CommandName = "Draw/SendHttpText"
	CmdClearHTTPText     CommandName = "Draw/ClearHttpText"
	CmdCommandList       CommandName = "Draw/CommandList"
	CmdPlayTFGif         CommandName = "Device/PlayTFGif"
	CmdGetFontList       CommandName = "Device/GetFontList"
	CmdSetTimer          CommandName = "Tools/SetTimer"
	CmdSetStopWatch      CommandName = "Tools/SetStopWatch"
	CmdSetScoreBoard     CommandName = "Tools/SetScoreBoard"
	CmdSetNoiseStatus    CommandName = "Tools/SetNoiseStatus"
	CmdPlayBuzzer        CommandName = "Device/PlayBuzzer"
)

// CommandKey is the JSON field carrying the CommandName.
const CommandKey = "Command"

// Param is one operation-specific field of a Command.
type Param struct {
	Key   string
	Value any
}

// Command is a single instruction for the device. Parameters keep the order
// they were added in, and are written to the wire in that order after the
// "Command" field.
type Command struct {
	Name   CommandName
	Params []Param
}

func NewCommand(name CommandName, params ...Param) Command {
	return Command{Name: name, Params: params}
}

// P is shorthand for building a Param.
func P(key string, value any) Param {
	return Param{Key: key, Value: value}
}

// With returns a copy of c with key set to value. An existing key keeps its
// position; a new key is appended.
func (c Command) With(key string, value any) Command {
	params := make([]Param, len(c.Params), len(c.Params)+1)
	copy(params, c.Params)
	for i := range params {
		if params[i].Key == key {
			params[i].Value = value
			return Command{Name: c.Name, Params: params}
		}
	}
	return Command{Name: c.Name, Params: append(params, Param{Key: key, Value: value})}
}

func (c Command) Get(key string) (any, bool) {
	for _, p := range c.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

func (c Command) Keys() []string {
	keys := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		keys = append(keys, p.Key)
	}
	return keys
}

func (c Command) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: CommandKey, Reason: "must not be empty"}
	}
	return nil
}

func (c Command) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	name, err := json.Marshal(string(c.Name))
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"` + CommandKey + `":`)
	buf.Write(name)

	for _, p := range c.Params {
		if p.Key == CommandKey {
			continue
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", p.Key, err)
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a command object keeping field order. Parameter values
// are kept as json.RawMessage so they are re-sent byte for byte.
func (c *Command) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("command must be a JSON object")
	}

	var (
		name    CommandName
		hasName bool
		params  []Param
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding %s: %w", key, err)
		}

		if key == CommandKey {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("%s must be a string", CommandKey)
			}
			name = CommandName(s)
			hasName = true
			continue
		}
		params = append(params, Param{Key: key, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	if !hasName {
		return fmt.Errorf("missing %s field", CommandKey)
	}

	c.Name = name
	c.Params = params
	return nil
}

// ParseCommand decodes a raw command object.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, &ValidationError{Field: CommandKey, Reason: err.Error()}
	}
	return cmd, nil
}

// Flag maps a boolean onto the device's 0/1 convention.
func Flag(on bool) int {
	if on {
		return 1
	}
	return 0
}
