package dispatcher

import (
	"fmt"
	"strconv"
	"time"

	"mercator-hq/relay/pkg/providers"
)

// Reserved parameter keys are consumed by the dispatcher and never sent
// to the vendor.
const (
	ParamRetries        = "retries"
	ParamTimeout        = "timeout"
	ParamConnectTimeout = "connect_timeout"
)

type reservedParams struct {
	retries *int
	timeout *time.Duration
	pair    *providers.Timeouts
	connect *time.Duration
}

// extractReserved splits merged params into the reserved values and the
// params forwarded to the adapter. Numeric timeouts are seconds; strings
// may also use Go duration syntax. A two-element timeout is a
// (connect, read) pair.
func extractReserved(merged providers.Params) (reservedParams, providers.Params, error) {
	var r reservedParams

	if _, ok := merged[ParamRetries]; ok {
		n, ok := merged.Int(ParamRetries)
		if !ok {
			return r, nil, fmt.Errorf("%s must be an integer, got %T", ParamRetries, merged[ParamRetries])
		}
		r.retries = &n
	}

	if raw, ok := merged[ParamTimeout]; ok {
		if pair, ok, err := toPair(raw); ok {
			if err != nil {
				return r, nil, fmt.Errorf("%s: %w", ParamTimeout, err)
			}
			r.pair = &pair
		} else {
			d, err := toDuration(raw)
			if err != nil {
				return r, nil, fmt.Errorf("%s: %w", ParamTimeout, err)
			}
			r.timeout = &d
		}
	}

	if raw, ok := merged[ParamConnectTimeout]; ok {
		d, err := toDuration(raw)
		if err != nil {
			return r, nil, fmt.Errorf("%s: %w", ParamConnectTimeout, err)
		}
		r.connect = &d
	}

	forwarded := make(providers.Params, len(merged))
	for k, v := range merged {
		switch k {
		case ParamRetries, ParamTimeout, ParamConnectTimeout:
			continue
		}
		forwarded[k] = v
	}

	return r, forwarded, nil
}

// shapeTimeouts computes the (connect, read) pair of a call:
//   - an explicit pair is used verbatim
//   - a single duration is the read timeout, paired with the connect timeout
//   - otherwise the provider's connect and read timeouts apply
//
// Call options take precedence over reserved params.
func shapeTimeouts(o callOptions, r reservedParams, cfg providers.ProviderConfig) providers.Timeouts {
	connect := cfg.ConnectTimeout
	if r.connect != nil {
		connect = *r.connect
	}

	switch {
	case o.timeoutPair != nil:
		return *o.timeoutPair
	case o.timeout > 0:
		return providers.Timeouts{Connect: connect, Read: o.timeout}
	case r.pair != nil:
		return *r.pair
	case r.timeout != nil:
		return providers.Timeouts{Connect: connect, Read: *r.timeout}
	}

	t := cfg.DefaultTimeouts()
	t.Connect = connect
	return t
}

func toDuration(v any) (time.Duration, error) {
	switch x := v.(type) {
	case time.Duration:
		return x, nil
	case int:
		return time.Duration(x) * time.Second, nil
	case int64:
		return time.Duration(x) * time.Second, nil
	case float64:
		return time.Duration(x * float64(time.Second)), nil
	case float32:
		return time.Duration(float64(x) * float64(time.Second)), nil
	case string:
		if d, err := time.ParseDuration(x); err == nil {
			return d, nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", x)
		}
		return time.Duration(f * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("unsupported duration type %T", v)
}

// toPair reports ok when v is a two-element sequence.
func toPair(v any) (providers.Timeouts, bool, error) {
	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case []float64:
		for _, f := range x {
			items = append(items, f)
		}
	case []int:
		for _, i := range x {
			items = append(items, i)
		}
	case []time.Duration:
		for _, d := range x {
			items = append(items, d)
		}
	case providers.Timeouts:
		return x, true, nil
	default:
		return providers.Timeouts{}, false, nil
	}

	if len(items) != 2 {
		return providers.Timeouts{}, true, fmt.Errorf("timeout pair must have 2 elements, got %d", len(items))
	}
	connect, err := toDuration(items[0])
	if err != nil {
		return providers.Timeouts{}, true, err
	}
	read, err := toDuration(items[1])
	if err != nil {
		return providers.Timeouts{}, true, err
	}
	return providers.Timeouts{Connect: connect, Read: read}, true, nil
}
