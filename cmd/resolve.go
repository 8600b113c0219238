// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Heckie75/renkforce-bs21-bluetooth-switch/pkg/bs21"
)

// The BS-21 ships with a fixed OUI.
var macRe = regexp.MustCompile(`^5C:B6:CC:[0-9A-F]{2}:[0-9A-F]{2}:[0-9A-F]{2}$`)

// KnownDevice is one entry of the local alias table ~/.known_bs21:
// MAC address, PIN and a free-form alias, whitespace separated.
type KnownDevice struct {
	Address string
	PIN     string
	Alias   string
}

func knownDevicesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".known_bs21")
}

// loadKnownDevices reads the alias table. A missing file is an empty
// table, not an error.
func loadKnownDevices(path string) ([]KnownDevice, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var devices []KnownDevice
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		mac := strings.ToUpper(fields[0])
		if !macRe.MatchString(mac) || bs21.ValidatePIN(fields[1]) != nil {
			continue
		}
		dev := KnownDevice{Address: mac, PIN: fields[1]}
		if len(fields) > 2 {
			dev.Alias = strings.Join(fields[2:], " ")
		}
		devices = append(devices, dev)
	}
	return devices, scanner.Err()
}

// resolveDevice turns a MAC address or alias, plus an optional
// explicit PIN, into a device handle. Aliases match case-insensitively
// by prefix; an explicit PIN always wins over the table.
func resolveDevice(target, pin string) (bs21.Device, error) {
	devices, err := loadKnownDevices(knownDevicesPath())
	if err != nil {
		return bs21.Device{}, fmt.Errorf("reading alias table: %w", err)
	}

	mac := strings.ToUpper(target)
	if macRe.MatchString(mac) {
		dev := bs21.Device{Address: mac, PIN: pin}
		for _, known := range devices {
			if known.Address == mac {
				dev.Alias = known.Alias
				if dev.PIN == "" {
					dev.PIN = known.PIN
				}
				break
			}
		}
		return dev, nil
	}

	var matches []KnownDevice
	prefix := strings.ToLower(target)
	for _, known := range devices {
		if strings.HasPrefix(strings.ToLower(known.Alias), prefix) {
			matches = append(matches, known)
		}
	}

	switch len(matches) {
	case 0:
		return bs21.Device{}, fmt.Errorf("no device matches %q; give a MAC address or add the alias to ~/.known_bs21", target)
	case 1:
		dev := bs21.Device{Address: matches[0].Address, PIN: pin, Alias: matches[0].Alias}
		if dev.PIN == "" {
			dev.PIN = matches[0].PIN
		}
		return dev, nil
	default:
		aliases := make([]string, len(matches))
		for i, m := range matches {
			aliases[i] = m.Alias
		}
		return bs21.Device{}, fmt.Errorf("alias %q is ambiguous: %s", target, strings.Join(aliases, ", "))
	}
}
