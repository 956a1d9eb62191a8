package lang

import (
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Package lang holds the user-visible reply strings. Built-in English
// defaults always exist; an optional YAML file overrides them and can be
// reloaded at runtime with the !reload command.

var (
	mu       sync.RWMutex
	messages map[string]string
)

var defaults = map[string]string{
	"ticket_created":     "🎫 Your ticket has been created: <#{channel}>",
	"ticket_exists":      "⚠️ You already have an open ticket: <#{channel}>. Please use that channel.",
	"ticket_closed":      "Ticket closed.",
	"ticket_deleting":    "Deletion scheduled. This channel will be removed shortly.",
	"not_ticket_channel": "This is not a ticket channel.",
	"close_denied":       "🚫 You are not allowed to close this ticket.",
	"delete_denied":      "🚫 Only staff may delete tickets. If this is your ticket, ask a staff member.",
	"no_permission":      "You need admin permissions to use this command.",
	"generic_error":      "Something went wrong. Please try again later.",
	"pong":               "Pong!",
	"reloaded":           "Message strings reloaded.",
	"panel_posted":       "Ticket panel posted.",
	"cleared":            "Deleted {count} message(s).",
}

// Load reads the YAML message file and installs its active language block as
// overrides. A missing file is not an error; the defaults stay in effect.
func Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		mu.Lock()
		messages = nil
		mu.Unlock()
		return nil
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	activeLang := "en"
	if v, ok := raw["active_language"]; ok {
		if s, ok := v.(string); ok && s != "" {
			activeLang = s
		}
	}

	block, ok := raw[activeLang].(map[string]interface{})
	if !ok {
		block, ok = raw["en"].(map[string]interface{})
		if !ok {
			mu.Lock()
			messages = nil
			mu.Unlock()
			return nil
		}
	}

	m := make(map[string]string, len(block))
	for k, v := range block {
		if s, ok := v.(string); ok {
			m[k] = s
		}
	}

	mu.Lock()
	messages = m
	mu.Unlock()
	return nil
}

// T resolves a message key and substitutes {placeholder} pairs.
func T(key string, pairs ...string) string {
	mu.RLock()
	s, ok := messages[key]
	mu.RUnlock()

	if !ok {
		if s, ok = defaults[key]; !ok {
			return "{" + key + "}"
		}
	}

	for j := 0; j+1 < len(pairs); j += 2 {
		s = strings.ReplaceAll(s, "{"+pairs[j]+"}", pairs[j+1])
	}
	return s
}

func Reload(path string) error {
	return Load(path)
}
