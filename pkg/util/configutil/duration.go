package configutil

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a configuration duration.
// It is a wrapper around time.Duration that can be decoded from json, yaml and viper values.
//
//   - string is parsed using time.ParseDuration.
//   - int64 and float64 are interpreted as seconds.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// Std returns d as time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var a any
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	switch v := a.(type) {
	case string:
		return d.UnmarshalText([]byte(v))
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
	default:
		return fmt.Errorf("invalid duration type %T: %v", v, v)
	}
	return nil
}
