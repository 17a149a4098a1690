package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/viper"
)

// formatResult renders an Eval result for display. With an unspecified
// format, nil prints nothing, JSON-representable values print as JSON, and
// anything else falls back to its string form.
func formatResult(result any, format string) (string, error) {
	switch strings.ToLower(format) {
	case "":
		if result == nil {
			return "", nil
		}
		output, err := resultJSON(result)
		if err != nil {
			return fmt.Sprintf("%v", result), nil
		}
		return string(output), nil
	case "json":
		output, err := resultJSON(result)
		if err != nil {
			return "", err
		}
		return string(output), nil
	case "text":
		return fmt.Sprintf("%v", result), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

func resultJSON(result any) ([]byte, error) {
	if viper.GetBool("no-color") {
		return json.MarshalIndent(result, "", "  ")
	}
	return prettyjson.Marshal(result)
}
