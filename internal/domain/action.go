package domain

import "encoding/json"

// Action names a remote operation accepted by the HTTP and MQTT bridges.
type Action string

const (
	ActionSetBrightness      Action = "set_brightness"
	ActionGetSettings        Action = "get_settings"
	ActionSetDeviceTime      Action = "set_device_time"
	ActionGetDeviceTime      Action = "get_device_time"
	ActionSetTimezone        Action = "set_timezone"
	ActionSetTemperatureMode Action = "set_temperature_mode"
	ActionSetMirrorMode      Action = "set_mirror_mode"
	ActionSetTimeFormat      Action = "set_time_format"
	ActionSetScreenPower     Action = "set_screen_power"
	ActionSetWeatherLocation Action = "set_weather_location"
	ActionReboot             Action = "reboot"
	ActionGetChannelInfo     Action = "get_channel_info"
	ActionSetWholeDial       Action = "set_whole_dial"
	ActionSetIndividualDial  Action = "set_individual_dial"
	ActionGetDialList        Action = "get_dial_list"
	ActionSendText           Action = "send_text"
	ActionClearText          Action = "clear_text"
	ActionPlayGIF            Action = "play_gif"
	ActionGetFontList        Action = "get_font_list"
	ActionSetCountdown       Action = "set_countdown"
	ActionSetStopwatch       Action = "set_stopwatch"
	ActionSetScoreboard      Action = "set_scoreboard"
	ActionSetNoiseMeter      Action = "set_noise_meter"
	ActionPlayBuzzer         Action = "play_buzzer"
	ActionSendCommandList    Action = "send_command_list"
	ActionRaw                Action = "raw"
	ActionNotify             Action = "notify"
)

// ActionRequest is the envelope received by the bridges.
type ActionRequest struct {
	ID     string          `json:"id,omitempty"`
	Action Action          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ActionResult is the envelope sent back by the bridges.
type ActionResult struct {
	ID         string `json:"id"`
	Action     Action `json:"action"`
	Success    bool   `json:"success"`
	Payload    any    `json:"payload,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	ErrorCode  *int   `json:"error_code,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// JournalEntry records one executed action.
type JournalEntry struct {
	RequestID  string `json:"request_id" dynamodbav:"request_id"`
	Device     string `json:"device" dynamodbav:"device"`
	Action     Action `json:"action" dynamodbav:"action"`
	Params     string `json:"params,omitempty" dynamodbav:"params,omitempty"`
	Success    bool   `json:"success" dynamodbav:"success"`
	ErrorKind  string `json:"error_kind,omitempty" dynamodbav:"error_kind,omitempty"`
	Error      string `json:"error,omitempty" dynamodbav:"error,omitempty"`
	ErrorCode  *int   `json:"error_code,omitempty" dynamodbav:"error_code,omitempty"`
	DurationMS int64  `json:"duration_ms" dynamodbav:"duration_ms"`
	Timestamp  int64  `json:"timestamp" dynamodbav:"timestamp"`
	ExpiresAt  int64  `json:"expires_at,omitempty" dynamodbav:"expires_at,omitempty"`
}
