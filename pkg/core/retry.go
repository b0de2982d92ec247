package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultRetryLimit is the retry budget used when retries are enabled without a limit.
const DefaultRetryLimit = 25

// Retry is a boolean-or-numeric retry policy.
type Retry struct {
	Enabled bool
	Limit   int
}

// RetryOn enables retries with the default budget.
var RetryOn = Retry{Enabled: true}

// RetryOff disables retries.
var RetryOff = Retry{}

// RetryLimit enables retries with an explicit budget. n <= 0 disables retries.
func RetryLimit(n int) Retry {
	if n <= 0 {
		return RetryOff
	}
	return Retry{Enabled: true, Limit: n}
}

// Attempts returns the number of retries a backend should make.
func (r Retry) Attempts() int {
	if !r.Enabled {
		return 0
	}
	if r.Limit > 0 {
		return r.Limit
	}
	return DefaultRetryLimit
}

func (r Retry) String() string {
	if r.Enabled && r.Limit > 0 {
		return strconv.Itoa(r.Limit)
	}
	return strconv.FormatBool(r.Enabled)
}

// MarshalJSON encodes the policy as false, true or the numeric limit.
func (r Retry) MarshalJSON() ([]byte, error) {
	if r.Enabled && r.Limit > 0 {
		return json.Marshal(r.Limit)
	}
	return json.Marshal(r.Enabled)
}

func (r *Retry) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := ParseRetry(v)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Decode lets envconfig read a Retry from an environment variable.
func (r *Retry) Decode(value string) error {
	parsed, err := ParseRetry(value)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRetry converts a loosely typed value into a Retry.
func ParseRetry(v any) (Retry, error) {
	switch val := v.(type) {
	case nil:
		return RetryOff, nil
	case Retry:
		return val, nil
	case bool:
		if val {
			return RetryOn, nil
		}
		return RetryOff, nil
	case int:
		return RetryLimit(val), nil
	case int32:
		return RetryLimit(int(val)), nil
	case int64:
		return RetryLimit(int(val)), nil
	case float64:
		return RetryLimit(int(val)), nil
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		switch s {
		case "", "false", "no", "off":
			return RetryOff, nil
		case "true", "yes", "on":
			return RetryOn, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return RetryOff, fmt.Errorf("backgrounder: invalid retry value %q", val)
		}
		return RetryLimit(n), nil
	default:
		return RetryOff, fmt.Errorf("backgrounder: invalid retry value of type %T", v)
	}
}
